package autotune

import "github.com/himanishpuri/Autochuner/pkg/autotune/pitch"

// AutoScale is the scale name that requests key detection.
const AutoScale = "auto"

// Request describes one correction run.
type Request struct {
	Samples    []float64 // Mono samples in [-1, 1]; ignored by TuneFile
	SampleRate int       // Sample rate of Samples; ignored by TuneFile

	// Scale is a key such as "A:min" or "chromatic". An empty Scale,
	// "auto" or AutoKey runs key detection instead.
	Scale   string
	AutoKey bool

	Strength float64 // Fraction of the smoothed delta applied; may exceed 1
	Plot     bool    // Write a diagnostic PNG into the temp dir
}

// Result is the output of one correction run. All per-frame slices share the
// time axis in Times.
type Result struct {
	Audio      []float64
	SampleRate int
	Times      []float64 // Seconds, frame i at i*hop/sampleRate

	Original  pitch.Contour // Gated tracker output
	Corrected []float64     // Dense corrected pitch handed to the resynthesizer

	DisplayOriginal  pitch.Contour
	DisplayCorrected pitch.Contour // Corrected pitch on the frames voiced in Original

	Key         string     // Scale actually used
	DetectedKey *pitch.Key // Set only when key detection ran

	PlotPath string // Empty unless Plot was requested
}

// KeyReport is the outcome of key detection on its own.
type KeyReport struct {
	Key          pitch.Key
	VoicedFrames int
	Errors       [12]float64 // Total scale error of each major key, indexed by tonic
}
