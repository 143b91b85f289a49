// Package vocoder resynthesizes audio so that its pitch follows a per-frame
// target contour.
package vocoder

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/effects/pitch"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

const (
	DefaultFrameLength = 2048
	DefaultHopLength   = 1024

	DefaultSequenceMs = 40.0
	DefaultOverlapMs  = 8.0
	DefaultSearchMs   = 15.0

	MinRatio = 0.25
	MaxRatio = 4.0

	windowFloor = 1e-8
)

var (
	ErrNonFinite      = errors.New("pitch contour contains non-finite values")
	ErrLengthMismatch = errors.New("original and target contours differ in length")
)

// OLA shifts each analysis frame by the ratio of target to original pitch
// and overlap-adds the Hann-windowed results. Frames are centred on
// multiples of HopLength, the same layout the pitch tracker uses.
type OLA struct {
	FrameLength int
	HopLength   int

	// WSOLA parameters of the per-frame pitch shifter, in milliseconds.
	SequenceMs float64
	OverlapMs  float64
	SearchMs   float64
}

// NewOLA returns a vocoder with the default frame layout and a short WSOLA
// sequence suited to a single voice.
func NewOLA() *OLA {
	return &OLA{
		FrameLength: DefaultFrameLength,
		HopLength:   DefaultHopLength,
		SequenceMs:  DefaultSequenceMs,
		OverlapMs:   DefaultOverlapMs,
		SearchMs:    DefaultSearchMs,
	}
}

// Vocode returns samples with frame i pitch-shifted by target[i]/original[i].
// Frames where either value is not positive are left unshifted. The output
// has the length of the input.
func (o *OLA) Vocode(ctx context.Context, samples []float64, sampleRate int, original, target []float64) ([]float64, error) {
	if len(original) != len(target) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(original), len(target))
	}
	for i := range target {
		if !finite(original[i]) || !finite(target[i]) {
			return nil, fmt.Errorf("%w: frame %d", ErrNonFinite, i)
		}
	}
	if o.FrameLength <= 0 || o.HopLength <= 0 {
		return nil, fmt.Errorf("invalid frame layout: frame=%d hop=%d", o.FrameLength, o.HopLength)
	}
	if len(samples) == 0 {
		return []float64{}, nil
	}

	shifter, err := o.newShifter(sampleRate)
	if err != nil {
		return nil, err
	}

	win, err := window.Hann(o.FrameLength, window.WithPeriodic())
	if err != nil {
		return nil, fmt.Errorf("failed to build window: %w", err)
	}

	n := len(samples)
	out := make([]float64, n)
	norm := make([]float64, n)
	frame := make([]float64, o.FrameLength)
	half := o.FrameLength / 2
	count := 1 + n/o.HopLength

	for i := 0; i < count; i++ {
		if i%32 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		start := i*o.HopLength - half
		for j := range frame {
			idx := start + j
			if idx < 0 || idx >= n {
				frame[j] = 0
				continue
			}
			frame[j] = samples[idx]
		}

		ratio := 1.0
		if i < len(target) {
			ratio = Ratio(original[i], target[i])
		}

		shifted := frame
		if ratio != 1 {
			if err := shifter.SetPitchRatio(ratio); err != nil {
				return nil, fmt.Errorf("frame %d: %w", i, err)
			}
			shifted = shifter.Process(frame)
		}

		for j, v := range shifted {
			idx := start + j
			if idx < 0 || idx >= n {
				continue
			}
			out[idx] += v * win[j]
			norm[idx] += win[j]
		}
	}

	for i := range out {
		if norm[i] > windowFloor {
			out[i] /= norm[i]
		}
	}
	return out, nil
}

func (o *OLA) newShifter(sampleRate int) (*pitch.PitchShifter, error) {
	p, err := pitch.NewPitchShifter(float64(sampleRate))
	if err != nil {
		return nil, err
	}
	if o.SequenceMs > 0 {
		if err := p.SetSequence(o.SequenceMs); err != nil {
			return nil, fmt.Errorf("sequence: %w", err)
		}
	}
	if o.OverlapMs > 0 {
		if err := p.SetOverlap(o.OverlapMs); err != nil {
			return nil, fmt.Errorf("overlap: %w", err)
		}
	}
	if o.SearchMs > 0 {
		if err := p.SetSearch(o.SearchMs); err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
	}
	return p, nil
}

// Ratio returns the pitch ratio moving from to to, clamped to the range the
// shifter supports. Non-positive frequencies give 1.
func Ratio(from, to float64) float64 {
	if from <= 0 || to <= 0 {
		return 1
	}
	return core.Clamp(to/from, MinRatio, MaxRatio)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
