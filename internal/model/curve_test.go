package model

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_OK(t *testing.T) {
	c := Curve{
		Ex:    []float64{0.1, 1.0, 2.0},
		Value: []float64{10, 50, 300},
	}
	assert.NoError(t, c.Validate())

	c.Unc = []float64{1, 5, 30}
	assert.NoError(t, c.Validate())
}

func TestValidate_UnitSanity(t *testing.T) {
	// keV input must abort before any other check runs, even on an
	// otherwise broken table.
	c := Curve{
		Ex:    []float64{100, 50, 2000},
		Value: []float64{10, -5},
	}
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnitSanity))
}

func TestValidate_NotIncreasing(t *testing.T) {
	c := Curve{
		Ex:    []float64{0.1, 1.0, 1.0},
		Value: []float64{10, 50, 300},
	}
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotIncreasing))
}

func TestValidate_NonPositive(t *testing.T) {
	c := Curve{
		Ex:    []float64{0.1, 1.0},
		Value: []float64{10, 0},
	}
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNonPositive))
}

func TestValidate_Shape(t *testing.T) {
	c := Curve{
		Ex:    []float64{0.1, 1.0},
		Value: []float64{10},
	}
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrShape))

	c = Curve{
		Ex:    []float64{0.1, 1.0},
		Value: []float64{10, 50},
		Unc:   []float64{1},
	}
	err = c.Validate()
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrShape))
}

func TestNearestIndex(t *testing.T) {
	c := Curve{Ex: []float64{0.0, 1.0, 2.0, 3.0}}
	assert.Equal(t, 0, c.NearestIndex(-5))
	assert.Equal(t, 1, c.NearestIndex(1.2))
	assert.Equal(t, 2, c.NearestIndex(1.8))
	assert.Equal(t, 3, c.NearestIndex(99))
}

func TestWindow(t *testing.T) {
	c := Curve{
		Ex:    []float64{0.0, 1.0, 2.0, 3.0},
		Value: []float64{1, 2, 3, 4},
		Unc:   []float64{0.1, 0.2, 0.3, 0.4},
	}
	w := c.Window(1.0, 3.0)
	assert.Equal(t, []float64{1.0, 2.0}, w.Ex)
	assert.Equal(t, []float64{2, 3}, w.Value)
	assert.Equal(t, []float64{0.2, 0.3}, w.Unc)
}

func TestClone_Independent(t *testing.T) {
	c := Curve{
		Ex:    []float64{0.1, 1.0},
		Value: []float64{10, 50},
	}
	d := c.Clone()
	d.Value[0] = 99
	assert.Equal(t, 10.0, c.Value[0])
	assert.Nil(t, d.Unc)
}

func TestPosteriorSamples_N(t *testing.T) {
	assert.Equal(t, 0, PosteriorSamples{}.N())
	s := PosteriorSamples{"A": {1, 2, 3}, "alpha": {4, 5, 6}}
	assert.Equal(t, 3, s.N())
}
