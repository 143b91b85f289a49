package pitch

import "math"

// Quantize snaps every frequency onto the nearest degree of s while keeping
// its octave. Non-positive and non-finite entries are returned unchanged, so
// a filled contour of silence (all zeros) passes straight through.
//
// When a pitch lies exactly halfway between two degrees the lower degree
// wins.
func Quantize(hz []float64, s Scale) []float64 {
	out := make([]float64, len(hz))
	for i, f := range hz {
		if !isPitch(f) {
			out[i] = f
			continue
		}
		m := HzToMIDI(f)
		pc := PitchClass(m)
		deg := s.nearest(pc)
		out[i] = MIDIToHz(m - (pc - deg))
	}
	return out
}

// nearest returns the first degree with the smallest absolute distance to pc.
func (s Scale) nearest(pc float64) float64 {
	if len(s.Degrees) == 0 {
		return pc
	}
	best := s.Degrees[0]
	bestDist := math.Abs(pc - best)
	for _, d := range s.Degrees[1:] {
		if dist := math.Abs(pc - d); dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}

// distance is the circular distance from pc to the nearest allowed class.
func (s Scale) distance(pc float64) float64 {
	best := math.Inf(1)
	for _, d := range s.Degrees {
		if dist := CircularDistance(pc, d); dist < best {
			best = dist
		}
	}
	return best
}
