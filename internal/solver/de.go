package solver

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DifferentialEvolution is a rand/1/bin differential evolution search
// with dithered mutation factor. Population evaluation fans out over an
// errgroup; the objective must therefore be safe for concurrent calls
// (the chi-square cost is read-only over its data).
type DifferentialEvolution struct {
	PopSize   int     // 0 means 15 * dim
	MaxIter   int     // 0 means 300 generations
	CR        float64 // crossover probability, 0 means 0.9
	Tol       float64 // relative convergence tolerance, 0 means 0.01
	Workers   int     // 0 means GOMAXPROCS
	Rand      *rand.Rand
	randGuard sync.Mutex
}

// ErrNoFinitePoint indicates the search never found a finite cost.
var ErrNoFinitePoint = eris.New("solver: objective not finite anywhere in the search box")

// NewDE returns a DifferentialEvolution with defaults and the given
// random source. rng must not be nil.
func NewDE(rng *rand.Rand) *DifferentialEvolution {
	return &DifferentialEvolution{Rand: rng}
}

// Minimize runs the evolution until MaxIter generations or convergence
// (population cost spread below Tol relative to the mean cost).
func (de *DifferentialEvolution) Minimize(ctx context.Context, f func([]float64) float64, bounds []Bound) ([]float64, float64, error) {
	dim := len(bounds)
	if dim == 0 {
		return nil, 0, eris.New("solver: empty bounds")
	}
	for i, b := range bounds {
		if b.Hi < b.Lo {
			return nil, 0, eris.Errorf("solver: bound %d inverted: [%g, %g]", i, b.Lo, b.Hi)
		}
	}

	popSize := de.PopSize
	if popSize == 0 {
		popSize = 15 * dim
	}
	maxIter := de.MaxIter
	if maxIter == 0 {
		maxIter = 300
	}
	cr := de.CR
	if cr == 0 {
		cr = 0.9
	}
	tol := de.Tol
	if tol == 0 {
		tol = 0.01
	}
	workers := de.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Init population uniformly over the box.
	pop := make([][]float64, popSize)
	for i := range pop {
		pop[i] = make([]float64, dim)
		for d, b := range bounds {
			pop[i][d] = b.Lo + de.float64()*(b.Hi-b.Lo)
		}
	}
	costs, err := de.evaluate(ctx, f, pop, workers)
	if err != nil {
		return nil, 0, err
	}

	for gen := 0; gen < maxIter; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, eris.Wrap(err, "solver: differential evolution interrupted")
		}

		// Dithered mutation factor per generation.
		factor := 0.5 + de.float64()*0.5

		trials := make([][]float64, popSize)
		for i := range pop {
			a, b, c := de.pickThree(popSize, i)
			trial := make([]float64, dim)
			forced := de.intN(dim)
			for d := range trial {
				if d == forced || de.float64() < cr {
					trial[d] = pop[a][d] + factor*(pop[b][d]-pop[c][d])
				} else {
					trial[d] = pop[i][d]
				}
				// Reflect back into the box.
				if trial[d] < bounds[d].Lo {
					trial[d] = bounds[d].Lo
				} else if trial[d] > bounds[d].Hi {
					trial[d] = bounds[d].Hi
				}
			}
			trials[i] = trial
		}
		trialCosts, err := de.evaluate(ctx, f, trials, workers)
		if err != nil {
			return nil, 0, err
		}
		for i := range pop {
			if trialCosts[i] <= costs[i] {
				pop[i] = trials[i]
				costs[i] = trialCosts[i]
			}
		}

		if converged(costs, tol) {
			best := argmin(costs)
			zap.L().Debug("solver: differential evolution converged",
				zap.Int("generation", gen),
				zap.Float64("cost", costs[best]),
			)
			return pop[best], costs[best], nil
		}
	}

	best := argmin(costs)
	if math.IsInf(costs[best], 1) {
		return nil, 0, ErrNoFinitePoint
	}
	return pop[best], costs[best], nil
}

func (de *DifferentialEvolution) evaluate(ctx context.Context, f func([]float64) float64, pop [][]float64, workers int) ([]float64, error) {
	costs := make([]float64, len(pop))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range pop {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			costs[i] = f(pop[i])
			if math.IsNaN(costs[i]) {
				costs[i] = math.Inf(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "solver: population evaluation")
	}
	return costs, nil
}

// pickThree draws three distinct indices, all different from skip.
func (de *DifferentialEvolution) pickThree(n, skip int) (int, int, int) {
	idx := make([]int, 0, 3)
	for len(idx) < 3 {
		k := de.intN(n)
		if k == skip {
			continue
		}
		dup := false
		for _, j := range idx {
			if j == k {
				dup = true
				break
			}
		}
		if !dup {
			idx = append(idx, k)
		}
	}
	return idx[0], idx[1], idx[2]
}

// float64 and intN serialize access to the shared random source; the
// evolution loop itself is single-threaded, only evaluation fans out.
func (de *DifferentialEvolution) float64() float64 {
	de.randGuard.Lock()
	defer de.randGuard.Unlock()
	return de.Rand.Float64()
}

func (de *DifferentialEvolution) intN(n int) int {
	de.randGuard.Lock()
	defer de.randGuard.Unlock()
	return de.Rand.IntN(n)
}

func argmin(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x < xs[best] {
			best = i
		}
	}
	return best
}

func converged(costs []float64, tol float64) bool {
	lo, hi := math.Inf(1), math.Inf(-1)
	var sum float64
	for _, c := range costs {
		if math.IsInf(c, 1) {
			return false
		}
		sum += c
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}
	mean := sum / float64(len(costs))
	return hi-lo <= tol*math.Abs(mean)+1e-12
}
