package autotune

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/himanishpuri/Autochuner/pkg/autotune/audio"
	"github.com/himanishpuri/Autochuner/pkg/autotune/pitch"
	"github.com/himanishpuri/Autochuner/pkg/autotune/plot"
	"github.com/himanishpuri/Autochuner/pkg/autotune/tracker"
	"github.com/himanishpuri/Autochuner/pkg/autotune/vocoder"
	"github.com/himanishpuri/Autochuner/pkg/logger"
	"github.com/himanishpuri/Autochuner/pkg/utils"
)

// tuneService is the default implementation of the Service interface.
type tuneService struct {
	tracker PitchTracker
	synth   Resynthesizer
	log     Logger
	config  *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	// Set default logger if none provided
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	tr := cfg.Tracker
	if tr == nil {
		y := tracker.NewYIN()
		y.FrameLength = cfg.FrameLength
		y.HopLength = cfg.HopLength
		y.FMin, y.FMax = cfg.FMin, cfg.FMax
		tr = y
	}

	synth := cfg.Resynthesizer
	if synth == nil {
		v := vocoder.NewOLA()
		v.FrameLength = cfg.FrameLength
		v.HopLength = cfg.HopLength
		synth = v
	}

	return &tuneService{
		tracker: tr,
		synth:   synth,
		log:     cfg.Logger,
		config:  cfg,
	}, nil
}

func validateConfig(cfg *Config) error {
	switch {
	case cfg.FrameLength <= 0 || cfg.FrameLength%2 != 0:
		return fmt.Errorf("frame length must be a positive even number: %d", cfg.FrameLength)
	case cfg.HopLength <= 0 || cfg.HopLength > cfg.FrameLength:
		return fmt.Errorf("hop length must be in (0, %d]: %d", cfg.FrameLength, cfg.HopLength)
	case cfg.FMin <= 0 || cfg.FMax <= cfg.FMin:
		return fmt.Errorf("invalid frequency range: %.2f-%.2f Hz", cfg.FMin, cfg.FMax)
	case cfg.EnergyRatio < 0 || cfg.EnergyRatio >= 1 || math.IsNaN(cfg.EnergyRatio):
		return fmt.Errorf("energy ratio must be in [0, 1): %f", cfg.EnergyRatio)
	case cfg.Smooth.Window <= 0:
		return fmt.Errorf("smoothing window must be positive: %d", cfg.Smooth.Window)
	case cfg.TargetSampleRate <= 0:
		return fmt.Errorf("target sample rate must be positive: %d", cfg.TargetSampleRate)
	}
	return nil
}

// Tune runs the full correction pipeline on req.Samples.
func (s *tuneService) Tune(ctx context.Context, req Request) (*Result, error) {
	scale, auto, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	sr := req.SampleRate
	s.log.Infof("Tuning %d samples at %d Hz (%.2fs), strength %.2f",
		len(req.Samples), sr, float64(len(req.Samples))/float64(sr), req.Strength)

	// 1. Track pitch and energy
	gated, err := s.analyse(ctx, req.Samples, sr)
	if err != nil {
		return nil, err
	}
	s.log.Debugf("%d/%d frames voiced after gating", gated.VoicedCount(), len(gated))

	// 2. Pick the scale
	result := &Result{SampleRate: sr, Original: gated}
	if auto {
		key := pitch.DetectKey(gated)
		scale = pitch.ScaleOf(key)
		result.DetectedKey = &key
		s.log.Infof("Detected key: %s", key)
	}
	result.Key = scale.String()

	// 3. Correct the contour
	corr := pitch.Correct(gated, scale, req.Strength, s.config.Smooth)
	result.Corrected = corr.Corrected

	// 4. Resynthesize
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := s.synth.Vocode(ctx, req.Samples, sr, corr.Filled, corr.Corrected)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("resynthesis failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result.Audio = out

	// 5. Time axis and display contours
	result.Times = make([]float64, len(gated))
	for i := range result.Times {
		result.Times[i] = float64(i*s.config.HopLength) / float64(sr)
	}
	result.DisplayOriginal = gated
	result.DisplayCorrected = gated.Mask(corr.Corrected)
	if d := s.config.Display; d.Window > 0 {
		result.DisplayOriginal = pitch.SmoothDisplay(result.DisplayOriginal, d.Window, d.Order)
		result.DisplayCorrected = pitch.SmoothDisplay(result.DisplayCorrected, d.Window, d.Order)
	}

	// 6. Optional diagnostic plot
	if req.Plot {
		path, err := s.renderPlot(req.Samples, sr, result)
		if err != nil {
			// the plot is diagnostic only
			s.log.Warnf("Failed to render plot: %v", err)
		} else {
			result.PlotPath = path
		}
	}

	s.log.Infof("Tuned to %s: %d frames", result.Key, len(gated))
	return result, nil
}

// TuneFile decodes path, resampling to the configured target rate, and
// tunes it.
func (s *tuneService) TuneFile(ctx context.Context, path string, req Request) (*Result, error) {
	s.log.Infof("Loading audio: %s", path)

	samples, sr, err := audio.Load(ctx, path, audio.LoadConfig{
		TargetRate: s.config.TargetSampleRate,
		TempDir:    s.config.TempDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
	}

	req.Samples = samples
	req.SampleRate = sr
	return s.Tune(ctx, req)
}

// DetectKey tracks samples and reports the best key for its voiced frames.
func (s *tuneService) DetectKey(ctx context.Context, samples []float64, sampleRate int) (*KeyReport, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	gated, err := s.analyse(ctx, samples, sampleRate)
	if err != nil {
		return nil, err
	}

	hz := gated.VoicedHz()
	classes := make([]float64, len(hz))
	for i, f := range hz {
		classes[i] = pitch.PitchClass(pitch.HzToMIDI(f))
	}

	report := &KeyReport{
		Key:          pitch.DetectKeyFromClasses(classes),
		VoicedFrames: len(classes),
	}
	for tonic := range report.Errors {
		report.Errors[tonic] = pitch.ScaleError(classes, pitch.Key{Tonic: tonic}.Scale())
	}
	s.log.Infof("Detected key %s from %d voiced frames", report.Key, report.VoicedFrames)
	return report, nil
}

// validate checks req and resolves the requested scale. auto is true when
// the key must be detected.
func (s *tuneService) validate(req Request) (scale pitch.Scale, auto bool, err error) {
	if len(req.Samples) == 0 {
		return pitch.Scale{}, false, ErrEmptyAudio
	}
	if req.SampleRate <= 0 {
		return pitch.Scale{}, false, fmt.Errorf("%w: %d", ErrInvalidSampleRate, req.SampleRate)
	}
	if req.Strength < 0 || math.IsNaN(req.Strength) || math.IsInf(req.Strength, 0) {
		return pitch.Scale{}, false, fmt.Errorf("%w: %v", ErrInvalidStrength, req.Strength)
	}

	if req.AutoKey || isAutoScale(req.Scale) {
		return pitch.Scale{}, true, nil
	}
	scale, err = pitch.ParseScale(req.Scale)
	if err != nil {
		return pitch.Scale{}, false, err
	}
	return scale, false, nil
}

// isAutoScale reports whether name asks for key detection: empty or "auto".
func isAutoScale(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" || strings.EqualFold(name, AutoScale)
}

// analyse runs the pitch tracker and the energy gate.
func (s *tuneService) analyse(ctx context.Context, samples []float64, sr int) (pitch.Contour, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f0, err := s.tracker.Track(ctx, samples, sr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("pitch tracking failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	energy := tracker.RMS(samples, s.config.FrameLength, s.config.HopLength)
	if len(energy) != len(f0) {
		s.log.Warnf("Pitch contour has %d frames, energy has %d", len(f0), len(energy))
	}
	return pitch.Gate(energy, f0, s.config.EnergyRatio), nil
}

func (s *tuneService) renderPlot(samples []float64, sr int, r *Result) (string, error) {
	f, err := utils.CreateTemp(s.config.TempDir, "pitch-correction-*.png")
	if err != nil {
		return "", err
	}
	path := f.Name()
	f.Close()

	err = plot.Render(path, plot.Input{
		Samples:    samples,
		SampleRate: sr,
		Original:   r.Original,
		Corrected:  r.Original.Mask(r.Corrected),
	})
	if err != nil {
		utils.RemoveFile(path)
		return "", err
	}
	return path, nil
}
