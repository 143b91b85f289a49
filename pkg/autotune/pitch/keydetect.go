package pitch

// hitRadius is the circular distance, in semitones, within which a sample
// counts towards a tonic or dominant.
const hitRadius = 0.5

// DetectKey picks the key that best explains the voiced frames of c.
// See DetectKeyFromClasses.
func DetectKey(c Contour) Key {
	hz := c.VoicedHz()
	classes := make([]float64, 0, len(hz))
	for _, f := range hz {
		if !isPitch(f) {
			continue
		}
		classes = append(classes, PitchClass(HzToMIDI(f)))
	}
	return DetectKeyFromClasses(classes)
}

// DetectKeyFromClasses chooses the major key whose scale gives the smallest
// total circular quantization error over the given pitch classes, lowest
// tonic first on ties. A major key and its relative minor share one set of
// pitch classes, so the two are separated by weighting samples near each
// tonic (1.0) and dominant (0.5). The minor key wins only with a strictly
// higher score.
//
// An empty sample set yields C major.
func DetectKeyFromClasses(classes []float64) Key {
	best := Key{Tonic: 0, Mode: Major}
	if len(classes) == 0 {
		return best
	}

	bestErr := ScaleError(classes, best.Scale())
	for tonic := 1; tonic < 12; tonic++ {
		k := Key{Tonic: tonic, Mode: Major}
		if e := ScaleError(classes, k.Scale()); e < bestErr {
			best, bestErr = k, e
		}
	}

	minor := best.RelativeMinor()
	if centreScore(classes, minor) > centreScore(classes, best) {
		return minor
	}
	return best
}

// ScaleError sums, over all pitch classes, the circular distance to the
// nearest degree of s.
func ScaleError(classes []float64, s Scale) float64 {
	total := 0.0
	for _, pc := range classes {
		total += s.distance(pc)
	}
	return total
}

func centreScore(classes []float64, k Key) float64 {
	tonic, dominant := float64(k.Tonic), float64(k.Dominant())
	score := 0.0
	for _, pc := range classes {
		if CircularDistance(pc, tonic) < hitRadius {
			score += 1
		}
		if CircularDistance(pc, dominant) < hitRadius {
			score += 0.5
		}
	}
	return score
}
