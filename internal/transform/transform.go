// Package transform implements the normalization map
// nld'(Ex) = nld(Ex) * A * exp(alpha * Ex) (Schiller2000 eq. 3).
package transform

import (
	"math"

	"github.com/oslo-method/nldnorm/internal/model"
)

// Apply transforms every bin of c by p. When an uncertainty column is
// present it is scaled by the same factor, preserving relative
// uncertainty (the map is linear in the value for fixed Ex). Non-finite
// intermediates propagate as non-finite values, never as errors, so
// optimizer loops stay robust against wild parameter proposals.
func Apply(c model.Curve, p model.TransformParams) model.Curve {
	out := model.Curve{
		Ex:    c.Ex,
		Value: make([]float64, c.Len()),
	}
	if c.HasUnc() {
		out.Unc = make([]float64, c.Len())
	}
	for i, ex := range c.Ex {
		f := p.A * math.Exp(p.Alpha*ex)
		out.Value[i] = c.Value[i] * f
		if out.Unc != nil {
			out.Unc[i] = c.Unc[i] * f
		}
	}
	return out
}

// Invert returns the parameters that undo p: Apply(Apply(c, p), Invert(p))
// reproduces c up to floating-point error.
func Invert(p model.TransformParams) model.TransformParams {
	return model.TransformParams{A: 1 / p.A, Alpha: -p.Alpha}
}
