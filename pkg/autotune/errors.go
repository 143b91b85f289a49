package autotune

import (
	"errors"

	"github.com/himanishpuri/Autochuner/pkg/autotune/audio"
	"github.com/himanishpuri/Autochuner/pkg/autotune/pitch"
)

var (
	ErrEmptyAudio        = errors.New("audio contains no samples")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrInvalidStrength   = errors.New("correction strength must be a finite non-negative number")
	ErrUnsupportedFormat = audio.ErrUnsupportedFormat
	ErrInvalidKey        = pitch.ErrInvalidKey
)

// IsInputError reports whether err was caused by the caller's input rather
// than by a processing failure.
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyAudio) ||
		errors.Is(err, ErrInvalidSampleRate) ||
		errors.Is(err, ErrInvalidStrength) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrInvalidKey)
}
