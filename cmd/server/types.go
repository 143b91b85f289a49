package main

import (
	"math"

	"github.com/himanishpuri/Autochuner/pkg/autotune"
	"github.com/himanishpuri/Autochuner/pkg/autotune/pitch"
)

const (
	// MaxUploadSize is the largest accepted multipart body (50 MB)
	MaxUploadSize = 50 << 20

	// DefaultCorrection is the strength used when the form omits "correction"
	DefaultCorrection = 0.5

	// unsupportedFormatMessage is shown when the upload cannot be decoded
	unsupportedFormatMessage = "Please upload a supported format (WAV, MP3, etc.)"
)

// TuneRequest holds the parsed form fields of POST /tune
type TuneRequest struct {
	Key        string
	AutoKey    bool
	Correction float64
	Plot       bool
}

// ToServiceRequest converts the form fields into a library request
func (r TuneRequest) ToServiceRequest() autotune.Request {
	return autotune.Request{
		Scale:    r.Key,
		AutoKey:  r.AutoKey,
		Strength: r.Correction,
		Plot:     r.Plot,
	}
}

// TuneResponse is the response for POST /tune. Pitch curves are MIDI note
// numbers with null on unvoiced frames.
type TuneResponse struct {
	AudioBase64   string     `json:"audio_base64"`
	SampleRate    int        `json:"sample_rate"`
	Time          []float64  `json:"time"`
	PitchOriginal []*float64 `json:"pitch_original"`
	PitchTuned    []*float64 `json:"pitch_tuned"`
	DetectedKey   string     `json:"detected_key,omitempty"`
	Key           string     `json:"key"`
	RequestID     string     `json:"request_id"`
	PlotBase64    string     `json:"plot_base64,omitempty"`
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Time    string `json:"time"`
	Workers int    `json:"workers"`
	Busy    int    `json:"busy"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// contourToMIDI converts a contour to nullable MIDI numbers
func contourToMIDI(c pitch.Contour) []*float64 {
	out := make([]*float64, len(c))
	for i, f := range c {
		if !f.Voiced || f.Hz <= 0 {
			continue
		}
		m := pitch.HzToMIDI(f.Hz)
		if math.IsNaN(m) || math.IsInf(m, 0) {
			continue
		}
		out[i] = &m
	}
	return out
}
