// Package pitch holds the pitch-correction decision layer: voicing, key
// selection, scale snapping and the smoothed correction curve handed to the
// resynthesizer. Everything in here is a pure function over in-memory
// contours; nothing is cached between calls.
package pitch

import "math"

// DefaultEnergyRatio is the fraction of the loudest frame's RMS below which a
// frame is treated as silence.
const DefaultEnergyRatio = 0.02

// Frame is one analysis frame of a pitch contour.
// Hz is meaningful only when Voiced is true.
type Frame struct {
	Hz     float64
	Voiced bool
}

// Contour is an ordered per-frame pitch track sharing its time axis with the
// energy contour it was gated against.
type Contour []Frame

// FromHz builds a contour from a raw tracker output where NaN, infinities and
// non-positive values mean "no pitch observed".
func FromHz(hz []float64) Contour {
	c := make(Contour, len(hz))
	for i, f := range hz {
		if isPitch(f) {
			c[i] = Frame{Hz: f, Voiced: true}
		}
	}
	return c
}

// HzOrNaN flattens the contour back into a plain slice, using NaN for
// unvoiced frames. Only the transport and plotting layers should need this.
func (c Contour) HzOrNaN() []float64 {
	out := make([]float64, len(c))
	for i, f := range c {
		if f.Voiced {
			out[i] = f.Hz
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// VoicedCount returns the number of voiced frames.
func (c Contour) VoicedCount() int {
	n := 0
	for _, f := range c {
		if f.Voiced {
			n++
		}
	}
	return n
}

// VoicedHz returns the frequencies of the voiced frames in order.
func (c Contour) VoicedHz() []float64 {
	out := make([]float64, 0, c.VoicedCount())
	for _, f := range c {
		if f.Voiced {
			out = append(out, f.Hz)
		}
	}
	return out
}

// Mask returns a contour carrying hz values on the frames where c is voiced.
// Frames past the end of hz are left unvoiced.
func (c Contour) Mask(hz []float64) Contour {
	out := make(Contour, len(c))
	for i, f := range c {
		if f.Voiced && i < len(hz) && isPitch(hz[i]) {
			out[i] = Frame{Hz: hz[i], Voiced: true}
		}
	}
	return out
}

// Gate marks every frame whose energy falls below ratio times the maximum
// energy as unvoiced, whatever the tracker reported for it. A fully silent
// energy contour unvoices everything. Frames without a matching energy value
// are unvoiced as well.
func Gate(energy []float64, f0 Contour, ratio float64) Contour {
	out := make(Contour, len(f0))

	peak := 0.0
	for _, e := range energy {
		if e > peak {
			peak = e
		}
	}
	if peak <= 0 {
		return out
	}

	threshold := ratio * peak
	for i, f := range f0 {
		if i >= len(energy) {
			break
		}
		e := energy[i]
		if math.IsNaN(e) || e < threshold {
			continue
		}
		out[i] = f
	}
	return out
}

// Fill returns a dense frequency track: unvoiced frames are linearly
// interpolated between their nearest voiced neighbours and held flat past the
// first and last voiced frame. An entirely unvoiced contour becomes zeros.
func Fill(c Contour) []float64 {
	out := make([]float64, len(c))

	prev := -1
	for i, f := range c {
		if !f.Voiced {
			continue
		}
		out[i] = f.Hz

		switch {
		case prev == -1:
			// leading gap: hold the first voiced value
			for j := 0; j < i; j++ {
				out[j] = f.Hz
			}
		case i-prev > 1:
			lo, hi := c[prev].Hz, f.Hz
			span := float64(i - prev)
			for j := prev + 1; j < i; j++ {
				t := float64(j-prev) / span
				out[j] = lo + (hi-lo)*t
			}
		}
		prev = i
	}

	if prev == -1 {
		return out
	}
	for j := prev + 1; j < len(c); j++ {
		out[j] = c[prev].Hz
	}
	return out
}

func isPitch(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
