package norm

import (
	"context"

	"go.uber.org/zap"

	"github.com/oslo-method/nldnorm/internal/discretes"
	"github.com/oslo-method/nldnorm/internal/extrapolate"
	"github.com/oslo-method/nldnorm/internal/model"
	"github.com/oslo-method/nldnorm/internal/objective"
	"github.com/oslo-method/nldnorm/internal/solver"
)

// runFindNorm is the automatic strategy: window the curve, smooth the
// discrete levels onto the low window, globally minimize the two-region
// chi-square for a starting point, sample the posterior with the
// experimental D0 as informative prior, and take medians as the point
// estimates.
func (n *Normalizer) runFindNorm(ctx context.Context) (*model.Result, error) {
	cfg := n.findNorm

	dataLow := n.curve.Window(cfg.Window.E1Low, cfg.Window.E2Low)
	dataHigh := n.curve.Window(cfg.Window.E1High, cfg.Window.E2High)

	smoothed := discretes.Smoothed(n.levels, dataLow.Ex, cfg.Resolution)

	chi2, err := objective.New(n.mdl, dataLow, dataHigh, smoothed, n.anchor, n.spin)
	if err != nil {
		return nil, err
	}

	x, cost, err := n.deps.Minimizer.Minimize(ctx, chi2.Func(), cfg.Bounds)
	if err != nil {
		return nil, err
	}
	zap.L().Info("norm: global minimization finished",
		zap.Float64("chi2", cost),
		zap.Float64("A", x[0]),
		zap.Float64("alpha", x[1]),
		zap.Float64("T", x[2]),
		zap.Float64("D0", x[3]),
	)

	// The optimizer's free D0 estimate is discarded: the experimental
	// value is the correct prior, so the chain starts there.
	start := append([]float64(nil), x...)
	start[3] = n.anchor.D0
	d0Sigma := cfg.D0Sigma
	if d0Sigma == 0 {
		d0Sigma = 0.1 * n.anchor.D0
	}
	priors := make([]solver.Prior, len(objective.ParamNames))
	for i, name := range objective.ParamNames {
		priors[i] = solver.Prior{Name: name, Lo: cfg.Bounds[i].Lo, Hi: cfg.Bounds[i].Hi}
	}
	priors[3].Mean = n.anchor.D0
	priors[3].Sigma = d0Sigma

	summary, samples, err := n.deps.Sampler.Sample(ctx, chi2.Func(), priors, start)
	if err != nil {
		return nil, err
	}

	med := objective.Params{
		A:     summary["A"].Median,
		Alpha: summary["alpha"].Median,
		T:     summary["T"].Median,
		D0:    summary["D0"].Median,
	}
	medChi2, derived, err := chi2.Eval(med)
	if err != nil {
		return nil, err
	}
	tp := model.TransformParams{A: med.A, Alpha: med.Alpha}
	ct := model.CTParams{T: med.T, Eshift: derived.Eshift}

	lo, hi := cfg.ExtLo, cfg.ExtHi
	if lo == 0 && hi == 0 {
		lo, hi = cfg.Window.E1High, n.anchor.Sn
	}
	ext, err := extrapolate.Extrapolate(n.mdl, lo, hi, ct)
	if err != nil {
		return nil, err
	}

	normalized := propagate(n.curve, tp, samples, n.deps.Rand)

	return &model.Result{
		Strategy:     model.StrategyFindNorm,
		Transform:    tp,
		CT:           ct,
		NldSn:        derived.NldSn,
		Chi2:         medChi2,
		Summary:      summary,
		Samples:      samples,
		Normalized:   normalized,
		Extrapolated: ext,
		Discretes:    model.Curve{Ex: dataLow.Ex, Value: smoothed},
	}, nil
}
