package pitch

import (
	"math"
	"testing"
)

func TestFromHz(t *testing.T) {
	c := FromHz([]float64{220, math.NaN(), 0, -5, math.Inf(1), 440})

	want := []bool{true, false, false, false, false, true}
	if len(c) != len(want) {
		t.Fatalf("Expected %d frames, got %d", len(want), len(c))
	}
	for i, v := range want {
		if c[i].Voiced != v {
			t.Errorf("Frame %d: expected voiced=%v, got %v", i, v, c[i].Voiced)
		}
	}

	back := c.HzOrNaN()
	if back[0] != 220 || back[5] != 440 {
		t.Errorf("Voiced values changed: %v", back)
	}
	if !math.IsNaN(back[1]) || !math.IsNaN(back[2]) {
		t.Errorf("Expected NaN for unvoiced frames, got %v", back)
	}
}

func TestGate(t *testing.T) {
	f0 := FromHz([]float64{200, 210, 220, 230})

	tests := []struct {
		name   string
		energy []float64
		ratio  float64
		voiced []bool
	}{
		{"all loud", []float64{1, 1, 1, 1}, 0.02, []bool{true, true, true, true}},
		{"one quiet frame", []float64{1, 0.01, 0.5, 1}, 0.02, []bool{true, false, true, true}},
		{"exactly at threshold stays voiced", []float64{1, 0.02, 1, 1}, 0.02, []bool{true, true, true, true}},
		{"all silent", []float64{0, 0, 0, 0}, 0.02, []bool{false, false, false, false}},
		{"short energy", []float64{1, 1}, 0.02, []bool{true, true, false, false}},
		{"empty energy", nil, 0.02, []bool{false, false, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Gate(tt.energy, f0, tt.ratio)
			if len(got) != len(f0) {
				t.Fatalf("Expected %d frames, got %d", len(f0), len(got))
			}
			for i, v := range tt.voiced {
				if got[i].Voiced != v {
					t.Errorf("Frame %d: expected voiced=%v, got %v", i, v, got[i].Voiced)
				}
				if v && got[i].Hz != f0[i].Hz {
					t.Errorf("Frame %d: expected %.1f Hz, got %.1f", i, f0[i].Hz, got[i].Hz)
				}
			}
		})
	}
}

func TestGateKeepsTrackerUnvoiced(t *testing.T) {
	f0 := Contour{{Hz: 220, Voiced: true}, {}, {Hz: 230, Voiced: true}}
	got := Gate([]float64{1, 1, 1}, f0, 0.02)
	if got[1].Voiced {
		t.Error("Gate must not voice a frame the tracker left unvoiced")
	}
}

func TestFill(t *testing.T) {
	tests := []struct {
		name string
		in   Contour
		want []float64
	}{
		{"empty", Contour{}, []float64{}},
		{"all unvoiced", Contour{{}, {}, {}}, []float64{0, 0, 0}},
		{"interior gap", FromHz([]float64{100, math.NaN(), math.NaN(), 400}), []float64{100, 200, 300, 400}},
		{"leading gap", FromHz([]float64{math.NaN(), math.NaN(), 300, 310}), []float64{300, 300, 300, 310}},
		{"trailing gap", FromHz([]float64{300, 310, math.NaN()}), []float64{300, 310, 310}},
		{"single voiced", FromHz([]float64{math.NaN(), 250, math.NaN()}), []float64{250, 250, 250}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fill(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected length %d, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if math.IsNaN(got[i]) {
					t.Fatalf("Index %d is NaN", i)
				}
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("Index %d: expected %.3f, got %.3f", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestFillKeepsVoicedValues(t *testing.T) {
	in := FromHz([]float64{math.NaN(), 123.4, math.NaN(), 98.7, 101.1, math.NaN(), math.NaN(), 400.25})
	got := Fill(in)
	for i, f := range in {
		if f.Voiced && got[i] != f.Hz {
			t.Errorf("Index %d: voiced value changed from %f to %f", i, f.Hz, got[i])
		}
	}
}

func TestMask(t *testing.T) {
	ref := FromHz([]float64{220, math.NaN(), 230})
	got := ref.Mask([]float64{221, 225, 0})

	if !got[0].Voiced || got[0].Hz != 221 {
		t.Errorf("Expected frame 0 voiced at 221, got %+v", got[0])
	}
	if got[1].Voiced {
		t.Error("Expected frame 1 unvoiced")
	}
	if got[2].Voiced {
		t.Error("Expected frame 2 unvoiced for a zero value")
	}
}
