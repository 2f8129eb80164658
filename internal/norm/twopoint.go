package norm

import (
	"math"

	"go.uber.org/zap"

	"github.com/oslo-method/nldnorm/internal/extrapolate"
	"github.com/oslo-method/nldnorm/internal/model"
	"github.com/oslo-method/nldnorm/internal/transform"
)

// runTwoPoint solves A and alpha in closed form so the normalized curve,
// log-interpolated, passes through both anchors:
//
//	alpha = ln((nldE2 * f(E1)) / (nldE1 * f(E2))) / (E2 - E1)
//	A     = nldE2 / f(E2) * exp(-alpha * E2)
func (n *Normalizer) runTwoPoint() (*model.Result, error) {
	cfg := n.twoPoint

	f := newLogInterp(n.curve)
	f1, err := f.at(cfg.P1.E)
	if err != nil {
		return nil, err
	}
	f2, err := f.at(cfg.P2.E)
	if err != nil {
		return nil, err
	}

	alpha := math.Log((cfg.P2.Nld*f1)/(cfg.P1.Nld*f2)) / (cfg.P2.E - cfg.P1.E)
	a := cfg.P2.Nld / f2 * math.Exp(-alpha*cfg.P2.E)
	tp := model.TransformParams{A: a, Alpha: alpha}

	zap.L().Info("norm: two-point normalization parameters",
		zap.Float64("A", a),
		zap.Float64("alpha", alpha),
	)

	lo, hi := cfg.ExtLo, cfg.ExtHi
	if lo == 0 && hi == 0 {
		lo, hi = n.curve.Ex[0], n.curve.Ex[n.curve.Len()-1]
	}
	ext, err := extrapolate.Extrapolate(n.mdl, lo, hi, cfg.CT)
	if err != nil {
		return nil, err
	}

	return &model.Result{
		Strategy:     model.StrategyTwoPoint,
		Transform:    tp,
		CT:           cfg.CT,
		Normalized:   transform.Apply(n.curve, tp),
		Extrapolated: ext,
	}, nil
}
