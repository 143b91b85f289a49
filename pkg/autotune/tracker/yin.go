// Package tracker estimates per-frame fundamental frequency and energy.
// Frames are centred on multiples of the hop, so a signal of n samples
// always yields 1 + n/hop frames.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/himanishpuri/Autochuner/pkg/autotune/pitch"
)

const (
	DefaultFrameLength = 2048
	DefaultHopLength   = 1024
	DefaultThreshold   = 0.15

	// C2 and C8
	DefaultFMin = 65.40639132514966
	DefaultFMax = 4186.009044809578

	// frames with less energy than this are not analysed
	silenceEnergy = 1e-10
)

var (
	ErrInvalidFrame      = errors.New("frame length must be a positive even number")
	ErrInvalidHop        = errors.New("hop length must be positive")
	ErrInvalidRange      = errors.New("invalid frequency range")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
)

// YIN is a YIN pitch tracker. The difference function is evaluated with an
// FFT cross-correlation over the first half of each frame.
type YIN struct {
	FrameLength int
	HopLength   int
	FMin        float64
	FMax        float64

	// Threshold is the absolute threshold on the cumulative mean normalised
	// difference. Lower values reject more frames.
	Threshold float64

	// MinConfidence unvoices frames whose confidence (1 - d') is below it.
	// Zero leaves Threshold as the only criterion.
	MinConfidence float64
}

// NewYIN returns a tracker with the default frame, hop, range and threshold.
func NewYIN() *YIN {
	return &YIN{
		FrameLength: DefaultFrameLength,
		HopLength:   DefaultHopLength,
		FMin:        DefaultFMin,
		FMax:        DefaultFMax,
		Threshold:   DefaultThreshold,
	}
}

// Estimate is the raw result for one frame.
type Estimate struct {
	Hz         float64
	Confidence float64
	Voiced     bool
}

// Track returns the pitch contour of samples.
func (y *YIN) Track(ctx context.Context, samples []float64, sampleRate int) (pitch.Contour, error) {
	est, err := y.Estimates(ctx, samples, sampleRate)
	if err != nil {
		return nil, err
	}
	c := make(pitch.Contour, len(est))
	for i, e := range est {
		if e.Voiced {
			c[i] = pitch.Frame{Hz: e.Hz, Voiced: true}
		}
	}
	return c, nil
}

// Estimates returns per-frame frequency and confidence.
func (y *YIN) Estimates(ctx context.Context, samples []float64, sampleRate int) ([]Estimate, error) {
	if err := y.validate(sampleRate); err != nil {
		return nil, err
	}

	n := y.FrameLength
	w := n / 2
	sr := float64(sampleRate)

	tauMin := int(math.Floor(sr / y.FMax))
	if tauMin < 2 {
		tauMin = 2
	}
	tauMax := int(math.Ceil(sr / y.FMin))
	if tauMax > w-1 {
		tauMax = w - 1
	}
	if tauMin >= tauMax {
		return nil, fmt.Errorf("%w: %.1f-%.1f Hz does not fit a %d sample frame at %d Hz",
			ErrInvalidRange, y.FMin, y.FMax, n, sampleRate)
	}

	count := FrameCount(len(samples), y.HopLength)
	out := make([]Estimate, count)
	frame := make([]float64, n)

	for i := 0; i < count; i++ {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		centredFrame(frame, samples, i*y.HopLength)
		tau, conf, ok := y.analyse(frame, tauMin, tauMax)
		if !ok || conf < y.MinConfidence {
			out[i] = Estimate{Confidence: conf}
			continue
		}

		hz := sr / tau
		if hz < y.FMin || hz > y.FMax {
			out[i] = Estimate{Confidence: conf}
			continue
		}
		out[i] = Estimate{Hz: hz, Confidence: conf, Voiced: true}
	}
	return out, nil
}

func (y *YIN) validate(sampleRate int) error {
	if sampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	if y.FrameLength <= 0 || y.FrameLength%2 != 0 {
		return ErrInvalidFrame
	}
	if y.HopLength <= 0 {
		return ErrInvalidHop
	}
	if y.FMin <= 0 || y.FMax <= y.FMin {
		return fmt.Errorf("%w: %.1f-%.1f Hz", ErrInvalidRange, y.FMin, y.FMax)
	}
	return nil
}

// analyse returns the interpolated period in samples and the confidence of
// the frame. ok is false when no dip of the normalised difference crosses
// the threshold.
func (y *YIN) analyse(frame []float64, tauMin, tauMax int) (tau, confidence float64, ok bool) {
	w := len(frame) / 2

	prefix := make([]float64, len(frame)+1)
	for j, v := range frame {
		prefix[j+1] = prefix[j] + v*v
	}
	if prefix[len(frame)] < silenceEnergy {
		return 0, 0, false
	}

	corr := crossCorrelate(frame, w)

	// difference function
	size := tauMax + 2
	if size > w {
		size = w
	}
	diff := make([]float64, size)
	e0 := prefix[w]
	for t := 1; t < size; t++ {
		et := prefix[t+w] - prefix[t]
		d := e0 + et - 2*corr[t]
		if d < 0 {
			d = 0
		}
		diff[t] = d
	}

	// cumulative mean normalised difference
	cmnd := make([]float64, len(diff))
	cmnd[0] = 1
	running := 0.0
	for t := 1; t < len(diff); t++ {
		running += diff[t]
		if running == 0 {
			cmnd[t] = 1
			continue
		}
		cmnd[t] = diff[t] * float64(t) / running
	}

	best := -1
	for t := tauMin; t <= tauMax; t++ {
		if cmnd[t] < y.Threshold {
			for t+1 <= tauMax && cmnd[t+1] < cmnd[t] {
				t++
			}
			best = t
			break
		}
	}
	if best < 0 {
		return 0, 0, false
	}

	confidence = 1 - cmnd[best]
	return parabolic(cmnd, best), confidence, true
}

// crossCorrelate returns r[t] = sum over j < w of frame[j] * frame[j+t].
func crossCorrelate(frame []float64, w int) []float64 {
	size := 1
	for size < 2*len(frame) {
		size <<= 1
	}

	a := make([]float64, size)
	copy(a, frame)
	b := make([]float64, size)
	copy(b, frame[:w])

	fa := fft.FFTReal(a)
	fb := fft.FFTReal(b)
	for k := range fa {
		fa[k] *= cmplx.Conj(fb[k])
	}
	inv := fft.IFFT(fa)

	r := make([]float64, w)
	for t := range r {
		r[t] = real(inv[t])
	}
	return r
}

func parabolic(d []float64, t int) float64 {
	if t <= 0 || t+1 >= len(d) {
		return float64(t)
	}
	s0, s1, s2 := d[t-1], d[t], d[t+1]
	den := s0 - 2*s1 + s2
	if den == 0 {
		return float64(t)
	}
	shift := (s0 - s2) / (2 * den)
	if math.Abs(shift) > 1 {
		return float64(t)
	}
	return float64(t) + shift
}

// FrameCount returns the number of centred frames for n samples.
func FrameCount(n, hop int) int {
	if hop <= 0 {
		return 0
	}
	return 1 + n/hop
}

// centredFrame copies the len(dst) samples centred on centre into dst,
// reflecting at the signal edges and zero-filling anything the reflection
// cannot reach.
func centredFrame(dst, samples []float64, centre int) {
	start := centre - len(dst)/2
	n := len(samples)
	for j := range dst {
		idx := start + j
		if idx < 0 {
			idx = -idx
		}
		if idx >= n {
			idx = 2*(n-1) - idx
		}
		if idx < 0 || idx >= n {
			dst[j] = 0
			continue
		}
		dst[j] = samples[idx]
	}
}
