package audio

import (
	"fmt"
	"math"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
)

// Resample converts samples from one rate to another with a polyphase FIR.
// The filter delay is removed so the output stays aligned with the input,
// and the output has round(len * to / from) samples.
func Resample(in []float64, fromRate, toRate int) ([]float64, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid resample rates: %d -> %d", fromRate, toRate)
	}
	if fromRate == toRate || len(in) == 0 {
		return append([]float64(nil), in...), nil
	}

	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	up, down := r.Ratio()
	delay := (len(r.Prototype()) - 1) / (2 * down)
	tail := int(math.Ceil(float64(delay*down)/float64(up))) + 1

	padded := make([]float64, len(in)+tail)
	copy(padded, in)
	out := r.Process(padded)

	want := int(math.Round(float64(len(in)) * float64(toRate) / float64(fromRate)))
	if delay < len(out) {
		out = out[delay:]
	} else {
		out = nil
	}
	if len(out) >= want {
		return out[:want], nil
	}
	res := make([]float64, want)
	copy(res, out)
	return res, nil
}
