package norm

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/oslo-method/nldnorm/internal/model"
	"github.com/oslo-method/nldnorm/internal/transform"
)

// maxPropagationSamples caps how many posterior samples the propagator
// sweeps; beyond this the band estimate stops improving.
const maxPropagationSamples = 100

// propagate produces the output curve. Without an uncertainty column the
// point-estimate transform is exact and deterministic. With one, the
// propagator combines measurement noise and normalization-parameter
// uncertainty by re-normalizing noisy curve realizations under randomly
// swept posterior samples, then reducing each bin to median and std.
// A plain linear propagation would not do: the map is exponential in
// energy, so the band is asymmetric.
func propagate(c model.Curve, tp model.TransformParams, samples model.PosteriorSamples, rng *rand.Rand) model.Curve {
	if !c.HasUnc() {
		return transform.Apply(c, tp)
	}

	total := samples.N()
	nLoop := min(maxPropagationSamples, total)
	order := rng.Perm(total)

	aChain := samples["A"]
	alphaChain := samples["alpha"]

	bins := c.Len()
	realizations := make([][]float64, nLoop)
	noisy := model.Curve{Ex: c.Ex, Value: make([]float64, bins)}
	for i := 0; i < nLoop; i++ {
		k := order[i]
		for j := range noisy.Value {
			noisy.Value[j] = c.Value[j] + rng.NormFloat64()*c.Unc[j]
		}
		out := transform.Apply(noisy, model.TransformParams{A: aChain[k], Alpha: alphaChain[k]})
		realizations[i] = out.Value
	}

	med := make([]float64, bins)
	std := make([]float64, bins)
	col := make([]float64, nLoop)
	for j := 0; j < bins; j++ {
		for i := range realizations {
			col[i] = realizations[i][j]
		}
		med[j] = medianOf(col)
		std[j] = stdOf(col)
	}
	return model.Curve{Ex: c.Ex, Value: med, Unc: std}
}

func medianOf(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func stdOf(xs []float64) float64 {
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
