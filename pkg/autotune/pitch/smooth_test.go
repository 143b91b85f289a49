package pitch

import (
	"math"
	"testing"
)

func TestSmoothShortInputUnchanged(t *testing.T) {
	in := []float64{1, 5, -2, 7, 3}
	got := Smooth(in, 11, 3)

	if len(got) != len(in) {
		t.Fatalf("Expected length %d, got %d", len(in), len(got))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("Index %d: expected %f, got %f", i, in[i], got[i])
		}
	}

	got[0] = 100
	if in[0] == 100 {
		t.Error("Smooth must return a copy, not the input slice")
	}
}

func TestSmoothPreservesCubic(t *testing.T) {
	poly := func(x float64) float64 { return 0.002*x*x*x - 0.1*x*x + 0.5*x + 3 }

	in := make([]float64, 40)
	for i := range in {
		in[i] = poly(float64(i))
	}

	for _, window := range []int{7, 11, 15} {
		got := Smooth(in, window, 3)
		for i := range in {
			if math.Abs(got[i]-in[i]) > 1e-8 {
				t.Errorf("window %d, index %d: expected %f, got %f", window, i, in[i], got[i])
			}
		}
	}
}

func TestSmoothReducesNoise(t *testing.T) {
	in := make([]float64, 60)
	for i := range in {
		if i%2 == 0 {
			in[i] = 1
		} else {
			in[i] = -1
		}
	}

	got := Smooth(in, 11, 3)
	for i := 10; i < 50; i++ {
		if math.Abs(got[i]) >= 1 {
			t.Errorf("Index %d: expected alternating signal to be damped, got %f", i, got[i])
		}
	}
}

func TestSmoothParameters(t *testing.T) {
	in := make([]float64, 20)
	for i := range in {
		in[i] = float64(i * i)
	}

	// order >= window is a pass-through
	got := Smooth(in, 3, 3)
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("Expected pass-through for order >= window, index %d changed", i)
		}
	}

	// an even window is widened to the next odd length, which still fits a
	// quadratic exactly
	got = Smooth(in, 6, 2)
	for i := range in {
		if math.Abs(got[i]-in[i]) > 1e-8 {
			t.Errorf("Index %d: expected %f, got %f", i, in[i], got[i])
		}
	}

	// a length equal to the widened window is smoothed, one shorter is not
	short := in[:6]
	got = Smooth(short, 6, 1)
	for i := range short {
		if got[i] != short[i] {
			t.Fatalf("Expected pass-through when input is shorter than the widened window")
		}
	}
}

func TestSmoothDisplay(t *testing.T) {
	c := make(Contour, 0, 40)
	// 15 voiced frames with a spike, a gap, then a short run
	for i := 0; i < 15; i++ {
		hz := 220.0
		if i == 7 {
			hz = 300
		}
		c = append(c, Frame{Hz: hz, Voiced: true})
	}
	c = append(c, Frame{}, Frame{})
	c = append(c, Frame{Hz: 440, Voiced: true}, Frame{Hz: 500, Voiced: true}, Frame{Hz: 440, Voiced: true})

	got := SmoothDisplay(c, 11, 3)

	if len(got) != len(c) {
		t.Fatalf("Expected %d frames, got %d", len(c), len(got))
	}
	if got[7].Hz >= 300 {
		t.Errorf("Expected the spike to be smoothed, got %f", got[7].Hz)
	}
	if got[15].Voiced || got[16].Voiced {
		t.Error("Unvoiced frames must stay unvoiced")
	}
	if got[18].Hz != 500 {
		t.Errorf("Expected the short run to be left as is, got %f", got[18].Hz)
	}
	if c[7].Hz != 300 {
		t.Error("SmoothDisplay must not modify its input")
	}
}

func TestSmoothDisplayNeverFails(t *testing.T) {
	for _, c := range []Contour{nil, {}, {{}}, {{Hz: 100, Voiced: true}}} {
		got := SmoothDisplay(c, 11, 3)
		if len(got) != len(c) {
			t.Errorf("Expected %d frames, got %d", len(c), len(got))
		}
	}
}
