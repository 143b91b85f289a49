package tracker

import (
	timestats "github.com/cwbudde/algo-dsp/stats/time"
)

// RMS returns the root-mean-square energy of each centred frame. Samples
// outside the signal count as zeros. The result has FrameCount(len(samples),
// hop) entries, matching the pitch contour of the same signal.
func RMS(samples []float64, frameLength, hop int) []float64 {
	count := FrameCount(len(samples), hop)
	if frameLength <= 0 {
		return make([]float64, count)
	}

	out := make([]float64, count)
	frame := make([]float64, frameLength)
	for i := range out {
		start := i*hop - frameLength/2
		for j := range frame {
			idx := start + j
			if idx < 0 || idx >= len(samples) {
				frame[j] = 0
				continue
			}
			frame[j] = samples[idx]
		}
		out[i] = timestats.RMS(frame)
	}
	return out
}
