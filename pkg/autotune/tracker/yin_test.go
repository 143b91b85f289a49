package tracker

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"
)

const testRate = 22050

func sine(t *testing.T, freq, amp float64, n int) []float64 {
	t.Helper()
	gen := signal.NewGenerator(core.WithSampleRate(testRate))
	s, err := gen.Sine(freq, amp, n)
	if err != nil {
		t.Fatalf("Failed to generate sine: %v", err)
	}
	return s
}

func median(v []float64) float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	return s[len(s)/2]
}

func TestYINPureTones(t *testing.T) {
	tests := []struct {
		name string
		freq float64
	}{
		{"A2", 110},
		{"A3", 220},
		{"A4", 440},
		{"E5", 659.25},
	}

	y := NewYIN()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := sine(t, tt.freq, 0.5, 2*testRate)

			c, err := y.Track(context.Background(), samples, testRate)
			if err != nil {
				t.Fatalf("Track failed: %v", err)
			}
			if want := 1 + len(samples)/DefaultHopLength; len(c) != want {
				t.Fatalf("Expected %d frames, got %d", want, len(c))
			}

			// skip the frames that see the signal edges
			var hz []float64
			for i := 2; i < len(c)-2; i++ {
				if !c[i].Voiced {
					t.Errorf("Frame %d unvoiced inside a steady tone", i)
					continue
				}
				hz = append(hz, c[i].Hz)
			}
			if len(hz) == 0 {
				t.Fatal("No voiced frames")
			}
			if got := median(hz); math.Abs(got-tt.freq) > 1 {
				t.Errorf("Expected %.2f Hz, got %.2f Hz", tt.freq, got)
			}
		})
	}
}

func TestYINConfidence(t *testing.T) {
	samples := sine(t, 220, 0.8, testRate)

	est, err := NewYIN().Estimates(context.Background(), samples, testRate)
	if err != nil {
		t.Fatalf("Estimates failed: %v", err)
	}
	for i := 2; i < len(est)-2; i++ {
		if est[i].Confidence < 1-DefaultThreshold {
			t.Errorf("Frame %d: expected confidence above %.2f, got %.3f", i, 1-DefaultThreshold, est[i].Confidence)
		}
	}
}

func TestYINSilence(t *testing.T) {
	c, err := NewYIN().Track(context.Background(), make([]float64, testRate), testRate)
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if n := c.VoicedCount(); n != 0 {
		t.Errorf("Expected silence to be unvoiced, got %d voiced frames", n)
	}
}

func TestYINShortInput(t *testing.T) {
	c, err := NewYIN().Track(context.Background(), sine(t, 220, 0.5, 100), testRate)
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if len(c) != 1 {
		t.Errorf("Expected 1 frame, got %d", len(c))
	}

	c, err = NewYIN().Track(context.Background(), nil, testRate)
	if err != nil {
		t.Fatalf("Track on empty input failed: %v", err)
	}
	if len(c) != 1 || c[0].Voiced {
		t.Errorf("Expected a single unvoiced frame, got %+v", c)
	}
}

func TestYINInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*YIN)
		rate   int
		want   error
	}{
		{"zero rate", func(*YIN) {}, 0, ErrInvalidSampleRate},
		{"odd frame", func(y *YIN) { y.FrameLength = 2047 }, testRate, ErrInvalidFrame},
		{"zero hop", func(y *YIN) { y.HopLength = 0 }, testRate, ErrInvalidHop},
		{"inverted range", func(y *YIN) { y.FMin, y.FMax = 500, 100 }, testRate, ErrInvalidRange},
		{"range outside frame", func(y *YIN) { y.FrameLength = 8 }, testRate, ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := NewYIN()
			tt.mutate(y)
			_, err := y.Track(context.Background(), make([]float64, 4096), tt.rate)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestYINCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewYIN().Track(ctx, sine(t, 220, 0.5, testRate), testRate)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRMS(t *testing.T) {
	samples := sine(t, 220, 1, 2*testRate)
	samples = append(samples, make([]float64, testRate)...)

	e := RMS(samples, DefaultFrameLength, DefaultHopLength)
	if want := FrameCount(len(samples), DefaultHopLength); len(e) != want {
		t.Fatalf("Expected %d frames, got %d", want, len(e))
	}

	// a full-scale sine has an RMS of 1/sqrt(2)
	if math.Abs(e[10]-math.Sqrt2/2) > 0.01 {
		t.Errorf("Expected RMS near 0.707 inside the tone, got %.4f", e[10])
	}
	if last := e[len(e)-1]; last != 0 {
		t.Errorf("Expected zero RMS in trailing silence, got %f", last)
	}
	// the first frame is half padding
	if e[0] >= e[10] {
		t.Errorf("Expected the edge frame to be quieter, got %.4f >= %.4f", e[0], e[10])
	}
}

func TestFrameCount(t *testing.T) {
	tests := []struct{ n, hop, want int }{
		{0, 1024, 1},
		{1023, 1024, 1},
		{1024, 1024, 2},
		{44100, 1024, 44},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := FrameCount(tt.n, tt.hop); got != tt.want {
			t.Errorf("FrameCount(%d, %d) = %d, expected %d", tt.n, tt.hop, got, tt.want)
		}
	}
}
