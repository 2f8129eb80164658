package norm

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/oslo-method/nldnorm/internal/model"
)

// logInterp interpolates a positive-valued curve linearly in log space,
// the standard interpolation for level densities (exponential between
// grid points). Queries outside the grid fail with ErrOutOfRange.
type logInterp struct {
	ex     []float64
	logVal []float64
}

func newLogInterp(c model.Curve) logInterp {
	lv := make([]float64, c.Len())
	for i, v := range c.Value {
		lv[i] = math.Log(v)
	}
	return logInterp{ex: c.Ex, logVal: lv}
}

func (f logInterp) at(e float64) (float64, error) {
	n := len(f.ex)
	if n == 0 || e < f.ex[0] || e > f.ex[n-1] {
		return 0, eris.Wrapf(ErrOutOfRange, "E=%g, curve spans [%g, %g]", e, f.ex[0], f.ex[n-1])
	}
	// Find the bracketing segment.
	j := 1
	for j < n-1 && f.ex[j] < e {
		j++
	}
	x0, x1 := f.ex[j-1], f.ex[j]
	y0, y1 := f.logVal[j-1], f.logVal[j]
	t := (e - x0) / (x1 - x0)
	return math.Exp(y0 + t*(y1-y0)), nil
}
