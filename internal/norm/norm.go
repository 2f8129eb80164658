// Package norm orchestrates NLD normalization: the closed-form two-point
// strategy and the automatic find_norm strategy that fits the
// transformation jointly against discrete levels and a physics
// extrapolation, then propagates parameter uncertainty into the curve.
package norm

import (
	"math/rand/v2"

	"github.com/rotisserie/eris"

	"github.com/oslo-method/nldnorm/internal/extrapolate"
	"github.com/oslo-method/nldnorm/internal/model"
	"github.com/oslo-method/nldnorm/internal/solver"
	"github.com/oslo-method/nldnorm/internal/spincut"
)

var (
	// ErrUnknownStrategy indicates an unsupported normalization strategy name.
	ErrUnknownStrategy = eris.New("norm: normalization strategy not supported, check spelling")

	// ErrOutOfRange indicates a two-point anchor outside the curve's
	// energy range.
	ErrOutOfRange = eris.New("norm: anchor point outside the curve's energy range")

	// ErrUnsupported marks the two-point strategy's discrete-level
	// comparison, which the method never finished defining. It fails
	// loudly instead of silently truncating the level table.
	ErrUnsupported = eris.New("norm: discrete-level comparison is not supported for the two-point strategy")

	// ErrAlreadyRun indicates a second Run on the same normalizer; a
	// normalizer is terminal after one run.
	ErrAlreadyRun = eris.New("norm: normalizer already ran")
)

// ParseStrategy validates a strategy name.
func ParseStrategy(name string) (model.Strategy, error) {
	switch model.Strategy(name) {
	case model.StrategyTwoPoint, model.StrategyFindNorm:
		return model.Strategy(name), nil
	default:
		return "", eris.Wrapf(ErrUnknownStrategy, "%q", name)
	}
}

// Point is a literal (Ex, nld) anchor for the two-point strategy.
type Point struct {
	E   float64 `json:"e"`
	Nld float64 `json:"nld"`
}

// Window bounds the two fit regions of the find_norm strategy. The low
// region is compared against discrete levels, the high region against
// the extrapolation model; both are selected by nearest-index lookup.
type Window struct {
	E1Low  float64 `json:"e1_low" mapstructure:"e1_low" yaml:"e1_low"`
	E2Low  float64 `json:"e2_low" mapstructure:"e2_low" yaml:"e2_low"`
	E1High float64 `json:"e1_high" mapstructure:"e1_high" yaml:"e1_high"`
	E2High float64 `json:"e2_high" mapstructure:"e2_high" yaml:"e2_high"`
}

// TwoPointConfig carries the full required-parameter set of the
// two-point strategy.
type TwoPointConfig struct {
	P1, P2 Point
	// CT parameterizes the extrapolated curve; the two-point solve does
	// not fit it.
	CT model.CTParams
	// ExtLo/ExtHi bound the extrapolation grid.
	ExtLo, ExtHi float64
	// CompareLevels requests the discrete-level comparison, which is
	// unsupported for this strategy and rejected at construction.
	CompareLevels bool
}

// FindNormConfig carries the required-parameter set of the automatic
// strategy.
type FindNormConfig struct {
	Window     Window
	Bounds     []solver.Bound // box bounds for A, alpha, T, D0, in that order
	Resolution float64        // experimental resolution for level smoothing, 0 means 0.1 MeV
	D0Sigma    float64        // informative D0 prior width [eV], 0 means 10% of D0
	// ExtLo/ExtHi bound the extrapolation grid; both zero means
	// [E1High, Sn].
	ExtLo, ExtHi float64
}

// Deps are the injected numerical capabilities of the automatic
// strategy.
type Deps struct {
	Minimizer solver.Minimizer
	Sampler   solver.PosteriorSampler
	Rand      *rand.Rand
}

// Normalizer runs exactly one normalization. Construct with NewTwoPoint
// or NewFindNorm; the strategy set is closed.
type Normalizer struct {
	strategy model.Strategy
	curve    model.Curve
	mdl      extrapolate.Model

	twoPoint *TwoPointConfig

	findNorm *FindNormConfig
	levels   []float64
	anchor   model.ResonanceAnchor
	spin     spincut.DistributionFunc
	deps     Deps

	done bool
}

// NewTwoPoint builds a two-point normalizer. The curve is validated
// (unit sanity first) before anything else happens.
func NewTwoPoint(curve model.Curve, m extrapolate.Model, cfg TwoPointConfig) (*Normalizer, error) {
	if err := curve.Validate(); err != nil {
		return nil, err
	}
	if _, err := extrapolate.ParseModel(string(m)); err != nil {
		return nil, err
	}
	if cfg.CompareLevels {
		return nil, eris.Wrap(ErrUnsupported, "norm: construct two-point")
	}
	if cfg.CT.T <= 0 {
		return nil, eris.Errorf("norm: two-point extrapolation needs T > 0, got %g", cfg.CT.T)
	}
	if cfg.P1.E == cfg.P2.E {
		return nil, eris.Errorf("norm: two-point anchors must differ in energy, both at %g", cfg.P1.E)
	}
	return &Normalizer{
		strategy: model.StrategyTwoPoint,
		curve:    curve,
		mdl:      m,
		twoPoint: &cfg,
	}, nil
}

// NewFindNorm builds an automatic normalizer. levels are discrete level
// energies; spin is the spin-distribution service; deps supply the
// optimizer, sampler and random source.
func NewFindNorm(curve model.Curve, levels []float64, anchor model.ResonanceAnchor,
	spin spincut.DistributionFunc, m extrapolate.Model, cfg FindNormConfig, deps Deps) (*Normalizer, error) {
	if err := curve.Validate(); err != nil {
		return nil, err
	}
	if _, err := extrapolate.ParseModel(string(m)); err != nil {
		return nil, err
	}
	if len(cfg.Bounds) != 4 {
		return nil, eris.Errorf("norm: find_norm needs 4 parameter bounds (A, alpha, T, D0), got %d", len(cfg.Bounds))
	}
	if cfg.Window.E1Low >= cfg.Window.E2Low || cfg.Window.E1High >= cfg.Window.E2High {
		return nil, eris.Errorf("norm: fit windows must be ordered, got low [%g, %g] high [%g, %g]",
			cfg.Window.E1Low, cfg.Window.E2Low, cfg.Window.E1High, cfg.Window.E2High)
	}
	if len(levels) == 0 {
		return nil, eris.New("norm: find_norm needs a discrete level table")
	}
	if anchor.D0 <= 0 {
		return nil, eris.Errorf("norm: find_norm needs D0 > 0, got %g", anchor.D0)
	}
	if spin == nil {
		return nil, eris.New("norm: find_norm needs a spin distribution")
	}
	if deps.Minimizer == nil || deps.Sampler == nil || deps.Rand == nil {
		return nil, eris.New("norm: find_norm needs minimizer, sampler and random source")
	}
	return &Normalizer{
		strategy: model.StrategyFindNorm,
		curve:    curve,
		mdl:      m,
		findNorm: &cfg,
		levels:   levels,
		anchor:   anchor,
		spin:     spin,
		deps:     deps,
	}, nil
}
