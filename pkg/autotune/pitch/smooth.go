package pitch

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	DefaultSmoothWindow = 11
	DefaultSmoothOrder  = 3
)

// SmoothConfig holds the Savitzky-Golay parameters of a smoothing pass.
type SmoothConfig struct {
	Window int
	Order  int
}

// DefaultSmoothConfig returns a window of 11 frames with a cubic fit.
func DefaultSmoothConfig() SmoothConfig {
	return SmoothConfig{Window: DefaultSmoothWindow, Order: DefaultSmoothOrder}
}

// Smooth applies a Savitzky-Golay filter to x. Each interior sample is
// replaced by the value at its centre of a least-squares polynomial of the
// given order fitted over window samples. The first and last window/2
// samples are evaluated on the polynomials fitted to the first and last full
// windows.
//
// Even windows are widened by one. When x is shorter than the window, or the
// order does not fit the window, a copy of x is returned.
func Smooth(x []float64, window, order int) []float64 {
	out := append([]float64(nil), x...)

	if window%2 == 0 {
		window++
	}
	if order < 0 || window < 1 || order >= window || len(x) < window {
		return out
	}

	proj, ok := savgolProjection(window, order)
	if !ok {
		return out
	}

	half := window / 2
	centre := proj.RawRowView(0)
	for i := half; i < len(x)-half; i++ {
		sum := 0.0
		for k, w := range centre {
			sum += w * x[i-half+k]
		}
		out[i] = sum
	}

	n := len(x)
	fitEdge(out[:half], x[:window], proj, 0, half)
	fitEdge(out[n-half:], x[n-window:], proj, half+1, half)
	return out
}

// savgolProjection returns the (order+1)×window matrix mapping a window of
// samples to the coefficients of its least-squares polynomial, with sample
// positions centred on zero.
func savgolProjection(window, order int) (*mat.Dense, bool) {
	half := window / 2
	vander := mat.NewDense(window, order+1, nil)
	for k := 0; k < window; k++ {
		x := float64(k - half)
		p := 1.0
		for j := 0; j <= order; j++ {
			vander.Set(k, j, p)
			p *= x
		}
	}

	ident := mat.NewDense(window, window, nil)
	for k := 0; k < window; k++ {
		ident.Set(k, k, 1)
	}

	var proj mat.Dense
	if err := proj.Solve(vander, ident); err != nil {
		return nil, false
	}
	return &proj, true
}

// fitEdge fits a polynomial to seg and writes its values at positions
// from, from+1, ... (counted from the start of seg) into dst.
func fitEdge(dst, seg []float64, proj *mat.Dense, from, count int) {
	var coef mat.VecDense
	coef.MulVec(proj, mat.NewVecDense(len(seg), append([]float64(nil), seg...)))

	half := len(seg) / 2
	for i := 0; i < count; i++ {
		x := float64(from + i - half)
		v, p := 0.0, 1.0
		for j := 0; j < coef.Len(); j++ {
			v += coef.AtVec(j) * p
			p *= x
		}
		dst[i] = v
	}
}

// SmoothDisplay smooths each voiced run of c on its own, leaving unvoiced
// frames untouched. Runs shorter than the window are kept as they are, and a
// smoothed value that is no longer a usable frequency falls back to the
// original one. Intended for plotting only.
func SmoothDisplay(c Contour, window, order int) Contour {
	out := append(Contour(nil), c...)

	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		run := make([]float64, end-start)
		for i := range run {
			run[i] = c[start+i].Hz
		}
		sm := Smooth(run, window, order)
		for i, v := range sm {
			if v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v) {
				out[start+i].Hz = v
			}
		}
		start = -1
	}

	for i, f := range c {
		if f.Voiced {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(c))
	return out
}
