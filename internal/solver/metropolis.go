package solver

import (
	"context"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/oslo-method/nldnorm/internal/model"
)

// Metropolis is a random-walk Metropolis sampler over the posterior
// exp(-chi2/2) * prior. Priors are flat over their box; a prior with
// Sigma > 0 adds an informative Gaussian term (used for D0, where the
// experimental value is trusted over the optimizer's free estimate).
type Metropolis struct {
	Samples int     // kept samples, 0 means 2000
	BurnIn  int     // discarded leading steps, 0 means 1000
	Thin    int     // keep every Thin-th step, 0 means 2
	Step    float64 // proposal scale as a fraction of the prior width, 0 means 0.02
	Rand    *rand.Rand
}

// NewMetropolis returns a sampler with defaults and the given random
// source. rng must not be nil.
func NewMetropolis(rng *rand.Rand) *Metropolis {
	return &Metropolis{Rand: rng}
}

// ErrStartRejected indicates the chain could not leave its start point
// because the posterior is zero (infinite cost) there.
var ErrStartRejected = eris.New("solver: posterior is zero at the start point")

// Sample runs the chain and returns per-parameter summaries and the
// equal-weighted sample set.
func (m *Metropolis) Sample(ctx context.Context, f func([]float64) float64, priors []Prior, start []float64) (model.PosteriorSummary, model.PosteriorSamples, error) {
	dim := len(priors)
	if dim == 0 || len(start) != dim {
		return nil, nil, eris.Errorf("solver: %d priors for %d start values", dim, len(start))
	}

	keep := m.Samples
	if keep == 0 {
		keep = 2000
	}
	burn := m.BurnIn
	if burn == 0 {
		burn = 1000
	}
	thin := m.Thin
	if thin == 0 {
		thin = 2
	}
	stepFrac := m.Step
	if stepFrac == 0 {
		stepFrac = 0.02
	}

	steps := make([]float64, dim)
	for i, p := range priors {
		w := p.Hi - p.Lo
		if p.Sigma > 0 && p.Sigma < w {
			w = p.Sigma * 5
		}
		steps[i] = stepFrac * w
	}

	cur := append([]float64(nil), start...)
	curLP := m.logPosterior(f, priors, cur)
	if math.IsInf(curLP, -1) {
		return nil, nil, ErrStartRejected
	}

	chains := make([][]float64, dim)
	for i := range chains {
		chains[i] = make([]float64, 0, keep)
	}

	accepted, total := 0, 0
	prop := make([]float64, dim)
	for kept := 0; kept < keep; {
		if err := ctx.Err(); err != nil {
			return nil, nil, eris.Wrap(err, "solver: sampling interrupted")
		}
		for i := range prop {
			prop[i] = cur[i] + m.Rand.NormFloat64()*steps[i]
		}
		lp := m.logPosterior(f, priors, prop)
		total++
		if lp-curLP >= math.Log(m.Rand.Float64()) {
			copy(cur, prop)
			curLP = lp
			accepted++
		}
		if total <= burn {
			continue
		}
		if (total-burn)%thin != 0 {
			continue
		}
		for i := range chains {
			chains[i] = append(chains[i], cur[i])
		}
		kept++
	}

	zap.L().Debug("solver: metropolis chain finished",
		zap.Int("kept", keep),
		zap.Float64("acceptance", float64(accepted)/float64(total)),
	)

	summary := make(model.PosteriorSummary, dim)
	samples := make(model.PosteriorSamples, dim)
	for i, p := range priors {
		samples[p.Name] = chains[i]
		summary[p.Name] = model.ParamStat{
			Median: median(chains[i]),
			Std:    std(chains[i]),
		}
	}
	return summary, samples, nil
}

func (m *Metropolis) logPosterior(f func([]float64) float64, priors []Prior, x []float64) float64 {
	for i, p := range priors {
		if x[i] < p.Lo || x[i] > p.Hi {
			return math.Inf(-1)
		}
	}
	cost := f(x)
	if math.IsInf(cost, 1) || math.IsNaN(cost) {
		return math.Inf(-1)
	}
	lp := -cost / 2
	for i, p := range priors {
		if p.Sigma > 0 {
			z := (x[i] - p.Mean) / p.Sigma
			lp -= 0.5 * z * z
		}
	}
	return lp
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func std(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}
