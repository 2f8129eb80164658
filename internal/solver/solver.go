// Package solver defines the numerical backend contracts of the
// normalization engine (box-constrained global minimization and
// posterior sampling) together with self-contained default
// implementations. The engine depends only on the interfaces, so a
// heavier backend can be injected without touching the core.
package solver

import (
	"context"

	"github.com/oslo-method/nldnorm/internal/model"
)

// Bound is a closed interval constraint on one parameter.
type Bound struct {
	Lo float64 `json:"lo" mapstructure:"lo" yaml:"lo"`
	Hi float64 `json:"hi" mapstructure:"hi" yaml:"hi"`
}

// Minimizer minimizes a scalar objective over box bounds without
// derivatives. The call blocks until the search finishes.
type Minimizer interface {
	Minimize(ctx context.Context, f func([]float64) float64, bounds []Bound) (x []float64, cost float64, err error)
}

// Prior describes one parameter's prior: flat over [Lo, Hi], with an
// additional informative Gaussian term when Sigma > 0.
type Prior struct {
	Name  string
	Lo    float64
	Hi    float64
	Mean  float64
	Sigma float64
}

// PosteriorSampler draws equal-weighted samples from the posterior of a
// chi-square objective (likelihood exp(-chi2/2)) under the given priors,
// starting near start, and reduces them to per-parameter summaries.
type PosteriorSampler interface {
	Sample(ctx context.Context, f func([]float64) float64, priors []Prior, start []float64) (model.PosteriorSummary, model.PosteriorSamples, error)
}
