package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oslo-method/nldnorm/internal/model"
)

func TestApply_Formula(t *testing.T) {
	c := model.Curve{
		Ex:    []float64{0.0, 1.0, 2.0},
		Value: []float64{10, 20, 30},
	}
	out := Apply(c, model.TransformParams{A: 2, Alpha: 0.5})

	assert.Equal(t, c.Ex, out.Ex)
	assert.InDelta(t, 10*2*math.Exp(0.0), out.Value[0], 1e-12)
	assert.InDelta(t, 20*2*math.Exp(0.5), out.Value[1], 1e-12)
	assert.InDelta(t, 30*2*math.Exp(1.0), out.Value[2], 1e-12)
	assert.Nil(t, out.Unc)
}

func TestApply_PreservesRelativeUncertainty(t *testing.T) {
	c := model.Curve{
		Ex:    []float64{0.5, 1.5},
		Value: []float64{10, 100},
		Unc:   []float64{1, 25},
	}
	out := Apply(c, model.TransformParams{A: 3.7, Alpha: -1.2})
	for i := range c.Ex {
		assert.InDelta(t, c.Unc[i]/c.Value[i], out.Unc[i]/out.Value[i], 1e-12)
	}
}

func TestApply_RoundTrip(t *testing.T) {
	c := model.Curve{
		Ex:    []float64{0.1, 1.0, 2.0, 4.5},
		Value: []float64{10, 50, 300, 8000},
		Unc:   []float64{1, 5, 30, 800},
	}
	p := model.TransformParams{A: 4.2, Alpha: 1.3}

	back := Apply(Apply(c, p), Invert(p))
	require.Equal(t, c.Len(), back.Len())
	for i := range c.Ex {
		assert.InDelta(t, c.Value[i], back.Value[i], 1e-9*c.Value[i])
		assert.InDelta(t, c.Unc[i], back.Unc[i], 1e-9*c.Unc[i])
	}
}

func TestApply_NonFinitePropagates(t *testing.T) {
	c := model.Curve{
		Ex:    []float64{1000},
		Value: []float64{1},
	}
	out := Apply(c, model.TransformParams{A: 1, Alpha: 1e6})
	assert.True(t, math.IsInf(out.Value[0], 1))
}
