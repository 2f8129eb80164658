// Package spincut provides spin-cutoff models, the spin distribution
// built on them, and the conversion of an average s-wave resonance
// spacing D0 into a level-density anchor at the separation energy.
package spincut

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/oslo-method/nldnorm/internal/model"
)

// SigmaModel names a spin-cutoff parameterization.
type SigmaModel string

const (
	// SigmaEB05 is the rigid-body cutoff of von Egidy & Bucurescu (2005):
	// sigma^2 = 0.0146 * A^(5/3) * (1 + sqrt(1 + 4a(Ex-E1))) / (2a).
	SigmaEB05 SigmaModel = "EB05"
	// SigmaEB09 is the energy-independent cutoff of von Egidy &
	// Bucurescu (2009): sigma = 0.98 * A^0.29.
	SigmaEB09 SigmaModel = "EB09_CT"
	// SigmaConst uses a caller-supplied constant sigma.
	SigmaConst SigmaModel = "const"
)

var (
	// ErrUnknownSigma indicates an unsupported spin-cutoff model name.
	ErrUnknownSigma = eris.New("spincut: spin-cutoff model not supported, check spelling")

	// ErrSigmaDomain indicates parameters for which the cutoff formula
	// is undefined or non-positive.
	ErrSigmaDomain = eris.New("spincut: spin-cutoff undefined for given parameters")

	// ErrZeroWeight indicates a vanishing spin-weight sum, which would
	// divide D0 by zero.
	ErrZeroWeight = eris.New("spincut: spin distribution weight is zero at Sn")
)

// Params carries the inputs of the spin-cutoff models. Only the fields a
// given model reads need to be set.
type Params struct {
	Mass  float64 `json:"mass" mapstructure:"mass" yaml:"mass"`    // mass number A
	NLDa  float64 `json:"nld_a" mapstructure:"nld_a" yaml:"nld_a"` // level density parameter a [1/MeV]
	E1    float64 `json:"e1" mapstructure:"e1" yaml:"e1"`          // back-shift E1 [MeV]
	Sigma float64 `json:"sigma" mapstructure:"sigma" yaml:"sigma"` // constant sigma (SigmaConst only)
}

// ParseSigmaModel validates a spin-cutoff model name.
func ParseSigmaModel(name string) (SigmaModel, error) {
	switch SigmaModel(name) {
	case SigmaEB05, SigmaEB09, SigmaConst:
		return SigmaModel(name), nil
	default:
		return "", eris.Wrapf(ErrUnknownSigma, "%q", name)
	}
}

// Sigma2 evaluates the squared spin-cutoff at excitation energy ex.
func Sigma2(m SigmaModel, p Params, ex float64) (float64, error) {
	switch m {
	case SigmaEB05:
		if p.NLDa <= 0 {
			return 0, eris.Wrapf(ErrSigmaDomain, "EB05 needs a > 0, got %g", p.NLDa)
		}
		arg := 1 + 4*p.NLDa*(ex-p.E1)
		if arg < 0 {
			return 0, eris.Wrapf(ErrSigmaDomain, "EB05 sqrt argument %g < 0 at Ex=%g", arg, ex)
		}
		return 0.0146 * math.Pow(p.Mass, 5.0/3.0) * (1 + math.Sqrt(arg)) / (2 * p.NLDa), nil
	case SigmaEB09:
		s := 0.98 * math.Pow(p.Mass, 0.29)
		return s * s, nil
	case SigmaConst:
		if p.Sigma <= 0 {
			return 0, eris.Wrapf(ErrSigmaDomain, "const model needs sigma > 0, got %g", p.Sigma)
		}
		return p.Sigma * p.Sigma, nil
	default:
		return 0, eris.Wrapf(ErrUnknownSigma, "%q", m)
	}
}

// DistributionFunc is the spin-distribution service contract: the
// probability weight of spin j at excitation energy ex.
type DistributionFunc func(ex, j float64) float64

// Distribution builds the Gaussian spin distribution
// g(Ex, J) = (2J+1) / (2 sigma^2) * exp(-(J+1/2)^2 / (2 sigma^2))
// on top of the named cutoff model. Construction validates the model
// name; per-energy domain failures surface as NaN from the returned
// function, matching the transformation's non-finite propagation.
func Distribution(m SigmaModel, p Params) (DistributionFunc, error) {
	if _, err := ParseSigmaModel(string(m)); err != nil {
		return nil, err
	}
	return func(ex, j float64) float64 {
		s2, err := Sigma2(m, p, ex)
		if err != nil {
			return math.NaN()
		}
		return (2*j + 1) / (2 * s2) * math.Exp(-(j+0.5)*(j+0.5)/(2*s2))
	}, nil
}

// NldSnFromD0 converts the resonance anchor into a level density at Sn.
// s-wave capture on a target of spin Jt populates spins Jt-1/2 and
// Jt+1/2; at Jt = 0 only the upper channel exists. The 1e-6 factor
// converts D0 from eV to MeV.
func NldSnFromD0(a model.ResonanceAnchor, g DistributionFunc) (model.Anchor, error) {
	var summe float64
	if a.Jtarget == 0 {
		summe = g(a.Sn, a.Jtarget+0.5)
	} else {
		summe = 0.5 * (g(a.Sn, a.Jtarget-0.5) + g(a.Sn, a.Jtarget+0.5))
	}
	if summe == 0 {
		return model.Anchor{}, eris.Wrapf(ErrZeroWeight, "Jtarget=%g Sn=%g", a.Jtarget, a.Sn)
	}
	return model.Anchor{Sn: a.Sn, NldSn: 1 / (summe * a.D0 * 1e-6)}, nil
}
