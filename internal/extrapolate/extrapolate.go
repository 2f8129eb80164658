// Package extrapolate provides the closed set of level-density
// extrapolation models and the derivation of their parameters from a
// level-density anchor at the separation energy.
package extrapolate

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/oslo-method/nldnorm/internal/model"
)

// Model names a supported extrapolation model.
type Model string

// ModelCT is the constant-temperature model,
// rho(Ex) = exp((Ex - Eshift) / T) / T.
const ModelCT Model = "CT"

var (
	// ErrUnknownModel indicates an unsupported extrapolation model name.
	ErrUnknownModel = eris.New("extrapolate: NLD model not supported, check spelling")

	// ErrEshiftDomain indicates nld(Sn)*T <= 0, so the Eshift logarithm
	// is undefined.
	ErrEshiftDomain = eris.New("extrapolate: non-positive nld(Sn)*T in Eshift derivation")
)

// ParseModel validates a model name.
func ParseModel(name string) (Model, error) {
	switch Model(name) {
	case ModelCT:
		return ModelCT, nil
	default:
		return "", eris.Wrapf(ErrUnknownModel, "%q", name)
	}
}

// CT evaluates the constant-temperature level density at one energy.
// The ratio grows without bound for Ex >> Eshift; callers bound the grid.
func CT(ex float64, p model.CTParams) float64 {
	return math.Exp((ex-p.Eshift)/p.T) / p.T
}

// Evaluate computes the named model on an energy grid.
func Evaluate(m Model, ex []float64, p model.CTParams) ([]float64, error) {
	switch m {
	case ModelCT:
		out := make([]float64, len(ex))
		for i, e := range ex {
			out[i] = CT(e, p)
		}
		return out, nil
	default:
		return nil, eris.Wrapf(ErrUnknownModel, "%q", m)
	}
}

// EshiftFromT inverts the CT formula at the separation energy:
// Eshift = Sn - T*ln(nld(Sn)*T), so that CT(Sn) reproduces the anchor.
func EshiftFromT(T float64, a model.Anchor) (float64, error) {
	arg := a.NldSn * T
	if arg <= 0 {
		return 0, eris.Wrapf(ErrEshiftDomain, "nld(Sn)=%g T=%g", a.NldSn, T)
	}
	return a.Sn - T*math.Log(arg), nil
}

// extGridPoints is the number of points in the extrapolated curve.
const extGridPoints = 50

// Extrapolate evaluates the named model on a linspace over [lo, hi] and
// returns it as a curve.
func Extrapolate(m Model, lo, hi float64, p model.CTParams) (model.Curve, error) {
	ex := make([]float64, extGridPoints)
	step := (hi - lo) / float64(extGridPoints-1)
	for i := range ex {
		ex[i] = lo + float64(i)*step
	}
	vals, err := Evaluate(m, ex, p)
	if err != nil {
		return model.Curve{}, err
	}
	return model.Curve{Ex: ex, Value: vals}, nil
}
