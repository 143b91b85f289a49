package autotune

import (
	"os"

	"github.com/himanishpuri/Autochuner/pkg/autotune/audio"
	"github.com/himanishpuri/Autochuner/pkg/autotune/pitch"
	"github.com/himanishpuri/Autochuner/pkg/autotune/tracker"
)

type Config struct {
	FrameLength int
	HopLength   int
	FMin        float64
	FMax        float64

	// EnergyRatio is the fraction of the loudest frame's RMS below which a
	// frame is treated as silence.
	EnergyRatio float64

	// Smooth configures the filter applied to the correction delta.
	Smooth pitch.SmoothConfig

	// Display configures the extra smoothing of the returned contours.
	// A zero window turns it off.
	Display pitch.SmoothConfig

	TargetSampleRate int
	TempDir          string

	Logger        Logger
	Tracker       PitchTracker
	Resynthesizer Resynthesizer
}

type Option func(*Config)

func WithFrameLength(n int) Option {
	return func(c *Config) {
		c.FrameLength = n
	}
}

func WithHopLength(n int) Option {
	return func(c *Config) {
		c.HopLength = n
	}
}

// WithFrequencyRange limits the pitch tracker's search range.
func WithFrequencyRange(fmin, fmax float64) Option {
	return func(c *Config) {
		c.FMin = fmin
		c.FMax = fmax
	}
}

func WithEnergyRatio(ratio float64) Option {
	return func(c *Config) {
		c.EnergyRatio = ratio
	}
}

// WithSmoothWindow sets the window of the delta smoother. The polynomial
// order stays at pitch.DefaultSmoothOrder.
func WithSmoothWindow(window int) Option {
	return func(c *Config) {
		c.Smooth.Window = window
	}
}

// WithDisplaySmoothing sets the window and order used for the display
// contours. A window of zero disables display smoothing.
func WithDisplaySmoothing(window, order int) Option {
	return func(c *Config) {
		c.Display = pitch.SmoothConfig{Window: window, Order: order}
	}
}

// WithTargetSampleRate sets the rate TuneFile resamples its input to.
func WithTargetSampleRate(rate int) Option {
	return func(c *Config) {
		c.TargetSampleRate = rate
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithTracker replaces the default YIN pitch tracker.
func WithTracker(t PitchTracker) Option {
	return func(c *Config) {
		c.Tracker = t
	}
}

// WithResynthesizer replaces the default overlap-add vocoder.
func WithResynthesizer(r Resynthesizer) Option {
	return func(c *Config) {
		c.Resynthesizer = r
	}
}

func defaultConfig() *Config {
	return &Config{
		FrameLength:      tracker.DefaultFrameLength,
		HopLength:        tracker.DefaultHopLength,
		FMin:             tracker.DefaultFMin,
		FMax:             tracker.DefaultFMax,
		EnergyRatio:      pitch.DefaultEnergyRatio,
		Smooth:           pitch.DefaultSmoothConfig(),
		Display:          pitch.SmoothConfig{Window: 7, Order: pitch.DefaultSmoothOrder},
		TargetSampleRate: audio.DefaultSampleRate,
		TempDir:          os.TempDir(),
	}
}
