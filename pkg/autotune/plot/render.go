// Package plot draws a diagnostic image of a correction run: the
// spectrogram of the input with the original and corrected pitch contours
// drawn over it.
package plot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/eligwz/spectrogram"

	"github.com/himanishpuri/Autochuner/pkg/autotune/pitch"
)

const (
	DefaultWidth  = 1500
	DefaultHeight = 600

	lineWidth = 3

	// MinDisplayHz is the lowest top edge of the frequency axis when it is
	// fitted to the pitch contours.
	MinDisplayHz = 500.0

	// maxBins bounds the FFT size of the spectrogram at 2*maxBins.
	maxBins = 4096
)

var ErrNothingToPlot = errors.New("no samples to plot")

// Input is the data for one plot. Original and Corrected share the frame
// axis of the pitch tracker and are drawn only where voiced.
type Input struct {
	Samples    []float64
	SampleRate int
	Original   pitch.Contour
	Corrected  pitch.Contour

	Width  int
	Height int

	// MaxHz is the frequency at the top edge. Zero fits the axis to twice
	// the highest voiced pitch, at least MinDisplayHz and at most Nyquist.
	MaxHz float64
}

// Render draws the plot and saves it as a PNG at path. Frequencies map
// linearly onto the image height from 0 Hz at the bottom to the display
// range's top edge; the spectrogram shares that axis.
func Render(path string, in Input) error {
	if len(in.Samples) == 0 {
		return ErrNothingToPlot
	}
	if in.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", in.SampleRate)
	}

	width, height := in.Width, in.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	nyquist := float64(in.SampleRate) / 2
	maxHz := displayRange(in, nyquist)

	img := spectrogram.NewImage128(image.Rect(0, 0, width, height))
	drawSpectrogram(img, in.Samples, in.SampleRate, maxHz)

	drawContour(img, in.Original, maxHz, spectrogram.ParseColor("39c0ff"))
	drawContour(img, in.Corrected, maxHz, spectrogram.ParseColor("ff5a36"))

	if err := spectrogram.SavePng(img, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}

// displayRange returns the frequency at the top of the plot.
func displayRange(in Input, nyquist float64) float64 {
	if in.MaxHz > 0 {
		return math.Min(in.MaxHz, nyquist)
	}

	peak := 0.0
	for _, c := range []pitch.Contour{in.Original, in.Corrected} {
		for _, f := range c {
			if f.Voiced && f.Hz > peak {
				peak = f.Hz
			}
		}
	}
	if peak == 0 {
		return nyquist
	}
	return math.Min(math.Max(2*peak, MinDisplayHz), nyquist)
}

// spectrogramBins picks the bin count for a spectrogram whose lowest
// maxHz show on height rows: enough bins to fill the rows where possible,
// as a power of two and capped at maxBins.
func spectrogramBins(height int, nyquist, maxHz float64) int {
	want := int(math.Ceil(float64(height) * nyquist / maxHz))
	bins := 1
	for bins < want && bins < maxBins {
		bins <<= 1
	}
	return bins
}

// drawSpectrogram fills img with the spectrogram of samples between 0 Hz
// and maxHz. Drawfft writes bin y to row bins-y, so the strip image only
// spans the rows of the lowest bins; it is then stretched onto img.
func drawSpectrogram(img draw.Image, samples []float64, sampleRate int, maxHz float64) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	nyquist := float64(sampleRate) / 2

	bins := spectrogramBins(height, nyquist, maxHz)
	rows := int(math.Ceil(float64(bins) * maxHz / nyquist))
	if rows > bins {
		rows = bins
	}

	strip := spectrogram.NewImage128(image.Rect(0, bins-rows, width, bins+1))
	black := spectrogram.ParseColor("000000")
	draw.Draw(strip, strip.Bounds(), image.NewUniform(black), strip.Bounds().Min, draw.Src)

	spectrogram.Drawfft(
		strip,
		samples,
		uint32(sampleRate),
		uint32(bins),
		false, // Hamming window
		false, // FFT
		true,  // magnitude
		false, // linear scale
	)

	for oy := 0; oy < height; oy++ {
		y := binForRow(oy, height, rows)
		for x := 0; x < width; x++ {
			img.Set(b.Min.X+x, b.Min.Y+oy, strip.At(x, bins-y))
		}
	}
}

// binForRow maps output row oy (0 at the top) onto a bin in [0, rows].
func binForRow(oy, height, rows int) int {
	if height <= 1 {
		return 0
	}
	return int(math.Round(float64(height-1-oy) / float64(height-1) * float64(rows)))
}

func drawContour(img draw.Image, c pitch.Contour, maxHz float64, col color.Color) {
	if len(c) == 0 {
		return
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	prevX, prevY, havePrev := 0, 0, false
	for i, f := range c {
		if !f.Voiced || f.Hz > maxHz {
			havePrev = false
			continue
		}
		x := frameX(i, len(c), w)
		y := freqY(f.Hz, maxHz, h)
		if havePrev {
			line(img, prevX, prevY, x, y, col)
		} else {
			dot(img, x, y, col)
		}
		prevX, prevY, havePrev = x, y, true
	}
}

func frameX(i, frames, width int) int {
	if frames <= 1 {
		return 0
	}
	return int(math.Round(float64(i) * float64(width-1) / float64(frames-1)))
}

func freqY(hz, maxHz float64, height int) int {
	y := float64(height-1) - hz/maxHz*float64(height-1)
	return int(math.Round(y))
}

func line(img draw.Image, x0, y0, x1, y1 int, col color.Color) {
	steps := max(abs(x1-x0), abs(y1-y0))
	if steps == 0 {
		dot(img, x0, y0, col)
		return
	}
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		x := int(math.Round(float64(x0) + t*float64(x1-x0)))
		y := int(math.Round(float64(y0) + t*float64(y1-y0)))
		dot(img, x, y, col)
	}
}

func dot(img draw.Image, x, y int, col color.Color) {
	b := img.Bounds()
	for dx := -lineWidth / 2; dx <= lineWidth/2; dx++ {
		for dy := -lineWidth / 2; dy <= lineWidth/2; dy++ {
			p := image.Point{X: x + dx, Y: y + dy}
			if p.In(b) {
				img.Set(p.X, p.Y, col)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
