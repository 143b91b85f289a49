package pitch

// Correction carries every intermediate curve of one correction pass. All
// slices have the length of the input contour and are in Hz.
type Correction struct {
	Filled    []float64
	Target    []float64
	Delta     []float64
	Smoothed  []float64
	Corrected []float64
}

// Correct computes the corrected pitch curve for a gated contour:
// the contour is filled, snapped onto s, and the smoothed difference is
// added back scaled by alpha. alpha is applied as given; values above one
// overshoot the scale degree.
func Correct(f0 Contour, s Scale, alpha float64, cfg SmoothConfig) Correction {
	filled := Fill(f0)
	target := Quantize(filled, s)

	delta := make([]float64, len(filled))
	for i := range filled {
		delta[i] = target[i] - filled[i]
	}
	smoothed := Smooth(delta, cfg.Window, cfg.Order)

	corrected := make([]float64, len(filled))
	for i := range filled {
		corrected[i] = filled[i] + alpha*smoothed[i]
	}

	return Correction{
		Filled:    filled,
		Target:    target,
		Delta:     delta,
		Smoothed:  smoothed,
		Corrected: corrected,
	}
}
