// Package objective implements the chi-square cost that joins the two
// fit regions: transformed data against smoothed discrete levels at low
// excitation energy, and against the extrapolation model at high energy.
// The same four parameters (A, alpha, T, D0) are pinned by both regions
// at once, which is what makes the otherwise underdetermined (A, alpha)
// normalization solvable.
package objective

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/oslo-method/nldnorm/internal/extrapolate"
	"github.com/oslo-method/nldnorm/internal/model"
	"github.com/oslo-method/nldnorm/internal/spincut"
	"github.com/oslo-method/nldnorm/internal/transform"
)

// ParamNames orders the fit parameters in optimizer vectors.
var ParamNames = []string{"A", "alpha", "T", "D0"}

// Params is one point in the four-dimensional fit space.
type Params struct {
	A     float64
	Alpha float64
	T     float64
	D0    float64
}

// FromVector unpacks an optimizer vector ordered as ParamNames.
func FromVector(x []float64) Params {
	return Params{A: x[0], Alpha: x[1], T: x[2], D0: x[3]}
}

// Vector packs p in ParamNames order.
func (p Params) Vector() []float64 {
	return []float64{p.A, p.Alpha, p.T, p.D0}
}

// Derived carries the intermediate quantities computed from (T, D0)
// during evaluation, for callers that need them after the fit.
type Derived struct {
	NldSn  model.Anchor
	Eshift float64
}

// Chi2 is the fused two-region cost function.
type Chi2 struct {
	Model    extrapolate.Model
	DataLow  model.Curve // unnormalized, compared to Levels
	DataHigh model.Curve // unnormalized, compared to the model
	Levels   []float64   // smoothed discrete density per DataLow bin
	Anchor   model.ResonanceAnchor
	Spin     spincut.DistributionFunc
}

// New validates the region shapes and model name.
func New(m extrapolate.Model, dataLow, dataHigh model.Curve, levels []float64,
	anchor model.ResonanceAnchor, spin spincut.DistributionFunc) (*Chi2, error) {
	if _, err := extrapolate.ParseModel(string(m)); err != nil {
		return nil, err
	}
	if len(levels) != dataLow.Len() {
		return nil, eris.Errorf("objective: %d smoothed levels for %d low-region bins", len(levels), dataLow.Len())
	}
	if dataLow.Len() == 0 || dataHigh.Len() == 0 {
		return nil, eris.New("objective: empty comparison region")
	}
	return &Chi2{Model: m, DataLow: dataLow, DataHigh: dataHigh,
		Levels: levels, Anchor: anchor, Spin: spin}, nil
}

// Eval computes the total cost at p together with the derived anchor and
// Eshift. Domain failures (non-positive logarithm argument, zero spin
// weight) surface as errors.
func (c *Chi2) Eval(p Params) (float64, Derived, error) {
	tp := model.TransformParams{A: p.A, Alpha: p.Alpha}

	low := transform.Apply(c.DataLow, tp)
	var chi2Low float64
	for i, v := range low.Value {
		r := v - c.Levels[i]
		r *= r
		if low.HasUnc() {
			r /= low.Unc[i] * low.Unc[i]
		}
		chi2Low += r
	}

	anchor := c.Anchor
	anchor.D0 = p.D0
	nldSn, err := spincut.NldSnFromD0(anchor, c.Spin)
	if err != nil {
		return 0, Derived{}, err
	}
	eshift, err := extrapolate.EshiftFromT(p.T, nldSn)
	if err != nil {
		return 0, Derived{}, err
	}
	ct := model.CTParams{T: p.T, Eshift: eshift}

	high := transform.Apply(c.DataHigh, tp)
	mvals, err := extrapolate.Evaluate(c.Model, high.Ex, ct)
	if err != nil {
		return 0, Derived{}, err
	}
	var chi2High float64
	for i, v := range high.Value {
		r := v - mvals[i]
		r *= r
		if high.HasUnc() {
			r /= high.Unc[i] * high.Unc[i]
		}
		chi2High += r
	}

	return chi2Low + chi2High, Derived{NldSn: nldSn, Eshift: eshift}, nil
}

// Func adapts Eval to the scalar-objective contract of the solvers.
// Domain failures and non-finite costs map to +Inf so search loops skip
// the point instead of aborting.
func (c *Chi2) Func() func(x []float64) float64 {
	return func(x []float64) float64 {
		cost, _, err := c.Eval(FromVector(x))
		if err != nil || math.IsNaN(cost) {
			return math.Inf(1)
		}
		return cost
	}
}
