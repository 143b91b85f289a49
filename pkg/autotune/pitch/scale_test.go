package pitch

import (
	"errors"
	"math"
	"testing"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"C:maj", "C:maj"},
		{"A:min", "A:min"},
		{"a:MIN", "A:min"},
		{"Bb:maj", "A#:maj"},
		{"B♭ minor", "A#:min"},
		{"F♯:min", "F#:min"},
		{"Db", "C#:maj"},
		{"e major", "E:maj"},
		{"Cb:maj", "B:maj"},
		{" G:maj ", "G:maj"},
	}

	for _, tt := range tests {
		k, err := ParseKey(tt.in)
		if err != nil {
			t.Errorf("ParseKey(%q) returned error: %v", tt.in, err)
			continue
		}
		if k.String() != tt.want {
			t.Errorf("ParseKey(%q) = %s, expected %s", tt.in, k, tt.want)
		}
	}
}

func TestParseKeyInvalid(t *testing.T) {
	for _, in := range []string{"", "H:maj", "C:dorian", "C#x", "chromatic"} {
		if _, err := ParseKey(in); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("ParseKey(%q): expected ErrInvalidKey, got %v", in, err)
		}
	}
}

func TestKeyStringRoundTrip(t *testing.T) {
	for tonic := 0; tonic < 12; tonic++ {
		for _, mode := range []Mode{Major, Minor} {
			k := Key{Tonic: tonic, Mode: mode}
			got, err := ParseKey(k.String())
			if err != nil {
				t.Fatalf("ParseKey(%q): %v", k.String(), err)
			}
			if got != k {
				t.Errorf("Round trip of %s gave %s", k, got)
			}
		}
	}
}

func TestParseScale(t *testing.T) {
	s, err := ParseScale("chromatic")
	if err != nil {
		t.Fatalf("ParseScale(chromatic): %v", err)
	}
	if !s.IsChromatic() || len(s.Degrees) != 13 {
		t.Errorf("Expected 13 chromatic degrees, got %v", s.Degrees)
	}

	s, err = ParseScale("")
	if err != nil || !s.IsChromatic() {
		t.Errorf("Expected empty string to select chromatic, got %v (%v)", s, err)
	}

	s, err = ParseScale("D:maj")
	if err != nil {
		t.Fatalf("ParseScale(D:maj): %v", err)
	}
	want := []float64{1, 2, 4, 6, 7, 9, 11, 13}
	if len(s.Degrees) != len(want) {
		t.Fatalf("Expected degrees %v, got %v", want, s.Degrees)
	}
	for i := range want {
		if s.Degrees[i] != want[i] {
			t.Errorf("Expected degrees %v, got %v", want, s.Degrees)
			break
		}
	}
	if k, ok := s.Key(); !ok || k.String() != "D:maj" {
		t.Errorf("Expected scale to remember D:maj, got %v %v", k, ok)
	}
}

func TestMinorScale(t *testing.T) {
	got := Key{Tonic: 9, Mode: Minor}.Scale().Degrees
	want := []float64{0, 2, 4, 5, 7, 9, 11, 12}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("A minor degrees: expected %v, got %v", want, got)
		}
	}
}

func TestHzMIDI(t *testing.T) {
	if m := HzToMIDI(440); m != 69 {
		t.Errorf("Expected 440 Hz = MIDI 69, got %f", m)
	}
	if m := HzToMIDI(220); math.Abs(m-57) > 1e-12 {
		t.Errorf("Expected 220 Hz = MIDI 57, got %f", m)
	}
	if f := MIDIToHz(60); math.Abs(f-261.6255653) > 1e-6 {
		t.Errorf("Expected MIDI 60 = 261.626 Hz, got %f", f)
	}
}

func TestPitchClassAndDistance(t *testing.T) {
	if pc := PitchClass(-1); pc != 11 {
		t.Errorf("Expected pitch class 11, got %f", pc)
	}
	if pc := PitchClass(69.25); math.Abs(pc-9.25) > 1e-12 {
		t.Errorf("Expected pitch class 9.25, got %f", pc)
	}

	tests := []struct{ a, b, want float64 }{
		{0, 11, 1},
		{11.8, 0, 0.2},
		{0, 6, 6},
		{2, 5, 3},
		{0, 12, 0},
	}
	for _, tt := range tests {
		if d := CircularDistance(tt.a, tt.b); math.Abs(d-tt.want) > 1e-9 {
			t.Errorf("CircularDistance(%.1f, %.1f) = %f, expected %f", tt.a, tt.b, d, tt.want)
		}
	}
}
