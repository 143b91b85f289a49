package autotune

import (
	"context"

	"github.com/himanishpuri/Autochuner/pkg/autotune/pitch"
)

type Service interface {
	// Tune corrects the pitch of in-memory samples.
	Tune(ctx context.Context, req Request) (*Result, error)
	// TuneFile decodes the audio file at path and tunes it.
	TuneFile(ctx context.Context, path string, req Request) (*Result, error)
	// DetectKey reports the key of the voiced frames of samples together
	// with the scale error of every candidate major key.
	DetectKey(ctx context.Context, samples []float64, sampleRate int) (*KeyReport, error)
}

// PitchTracker estimates one pitch frame per hop, centred on multiples of
// the hop, so n samples give 1 + n/hop frames.
type PitchTracker interface {
	Track(ctx context.Context, samples []float64, sampleRate int) (pitch.Contour, error)
}

// Resynthesizer reshapes samples so that frame i moves from original[i] to
// target[i] Hz. The output has the length of the input.
type Resynthesizer interface {
	Vocode(ctx context.Context, samples []float64, sampleRate int, original, target []float64) ([]float64, error)
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
