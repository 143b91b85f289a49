package pitch

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrInvalidKey is returned when a key string cannot be parsed.
var ErrInvalidKey = errors.New("invalid key")

// NoteNames uses sharps for every accidental.
var NoteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var (
	majorOffsets = []int{0, 2, 4, 5, 7, 9, 11}
	minorOffsets = []int{0, 2, 3, 5, 7, 8, 10}
)

// Mode is the diatonic mode of a key.
type Mode int

const (
	Major Mode = iota
	Minor
)

func (m Mode) String() string {
	if m == Minor {
		return "min"
	}
	return "maj"
}

// Key is a tonic pitch class (0 = C) and a mode.
type Key struct {
	Tonic int
	Mode  Mode
}

// String renders the key as "<Note>:maj" or "<Note>:min".
func (k Key) String() string {
	return NoteNames[mod12(k.Tonic)] + ":" + k.Mode.String()
}

// Scale returns the diatonic scale of the key.
func (k Key) Scale() Scale {
	offsets := majorOffsets
	if k.Mode == Minor {
		offsets = minorOffsets
	}
	classes := make([]int, len(offsets))
	for i, o := range offsets {
		classes[i] = mod12(k.Tonic + o)
	}
	return newScale(classes)
}

// Dominant returns the pitch class a perfect fifth above the tonic.
func (k Key) Dominant() int {
	return mod12(k.Tonic + 7)
}

// RelativeMinor returns the minor key sharing this key's pitch classes.
func (k Key) RelativeMinor() Key {
	return Key{Tonic: mod12(k.Tonic - 3), Mode: Minor}
}

// Scale is a set of allowed pitch classes. Degrees holds the classes in
// ascending order followed by the lowest class plus 12, so that nearest-degree
// search near the top of the octave can snap upwards.
type Scale struct {
	Degrees []float64
	key     *Key
}

// Chromatic returns the scale allowing every pitch class.
func Chromatic() Scale {
	classes := make([]int, 12)
	for i := range classes {
		classes[i] = i
	}
	return newScale(classes)
}

func newScale(classes []int) Scale {
	sorted := append([]int(nil), classes...)
	sort.Ints(sorted)

	degrees := make([]float64, 0, len(sorted)+1)
	for _, c := range sorted {
		degrees = append(degrees, float64(c))
	}
	degrees = append(degrees, float64(sorted[0]+12))
	return Scale{Degrees: degrees}
}

// IsChromatic reports whether every pitch class is allowed.
func (s Scale) IsChromatic() bool {
	return s.key == nil && len(s.Degrees) == 13
}

// Key returns the key the scale was built from, if any.
func (s Scale) Key() (Key, bool) {
	if s.key == nil {
		return Key{}, false
	}
	return *s.key, true
}

func (s Scale) String() string {
	if s.key != nil {
		return s.key.String()
	}
	return "chromatic"
}

// ScaleOf returns the scale of k, remembering the key for reporting.
func ScaleOf(k Key) Scale {
	s := k.Scale()
	kk := k
	s.key = &kk
	return s
}

// ParseKey parses strings such as "A:min", "Bb:maj", "f#", "C major" or
// "E♭ minor". A missing mode means major.
func ParseKey(s string) (Key, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Key{}, fmt.Errorf("%w: empty", ErrInvalidKey)
	}

	norm := strings.NewReplacer("♯", "#", "♭", "b").Replace(raw)
	norm = strings.ToLower(norm)

	var note, mode string
	if i := strings.IndexAny(norm, ": "); i >= 0 {
		note, mode = strings.TrimSpace(norm[:i]), strings.TrimSpace(norm[i+1:])
	} else {
		note = norm
	}

	tonic, ok := parseNote(note)
	if !ok {
		return Key{}, fmt.Errorf("%w: unknown note %q", ErrInvalidKey, raw)
	}

	switch mode {
	case "", "maj", "major":
		return Key{Tonic: tonic, Mode: Major}, nil
	case "min", "minor":
		return Key{Tonic: tonic, Mode: Minor}, nil
	default:
		return Key{}, fmt.Errorf("%w: unknown mode in %q", ErrInvalidKey, raw)
	}
}

// ParseScale accepts anything ParseKey does, plus "chromatic" (or an empty
// string) for the scale allowing every pitch class.
func ParseScale(s string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "chromatic":
		return Chromatic(), nil
	}
	k, err := ParseKey(s)
	if err != nil {
		return Scale{}, err
	}
	return ScaleOf(k), nil
}

func parseNote(n string) (int, bool) {
	if n == "" {
		return 0, false
	}
	base := map[byte]int{'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11}
	pc, ok := base[n[0]]
	if !ok {
		return 0, false
	}
	for _, r := range n[1:] {
		switch r {
		case '#':
			pc++
		case 'b':
			pc--
		default:
			return 0, false
		}
	}
	return mod12(pc), true
}

// HzToMIDI converts a frequency to a fractional MIDI note number.
func HzToMIDI(hz float64) float64 {
	return 69 + 12*math.Log2(hz/440)
}

// MIDIToHz converts a fractional MIDI note number to a frequency.
func MIDIToHz(m float64) float64 {
	return 440 * math.Pow(2, (m-69)/12)
}

// PitchClass reduces a fractional MIDI note number to [0, 12).
func PitchClass(m float64) float64 {
	pc := math.Mod(m, 12)
	if pc < 0 {
		pc += 12
	}
	if pc >= 12 {
		pc = 0
	}
	return pc
}

// CircularDistance is the distance between two pitch classes around the
// octave, in semitones. The result lies in [0, 6].
func CircularDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 12)
	return math.Min(d, 12-d)
}

func mod12(n int) int {
	n %= 12
	if n < 0 {
		n += 12
	}
	return n
}
