package objective

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oslo-method/nldnorm/internal/extrapolate"
	"github.com/oslo-method/nldnorm/internal/model"
)

// flatSpin is a spin distribution stub with a constant channel weight,
// making the derived anchor easy to predict: nldSn = 1/(0.25*D0*1e-6).
func flatSpin(ex, j float64) float64 { return 0.25 }

func testAnchor() model.ResonanceAnchor {
	return model.ResonanceAnchor{D0: 2.0, Sn: 8.0, Jtarget: 0}
}

// exactFixture builds regions where the identity transform (A=1,
// alpha=0) matches both comparison targets exactly.
func exactFixture(t *testing.T, p Params) (*Chi2, model.CTParams) {
	t.Helper()

	nldSn := 1 / (0.25 * p.D0 * 1e-6)
	eshift, err := extrapolate.EshiftFromT(p.T, model.Anchor{Sn: 8.0, NldSn: nldSn})
	require.NoError(t, err)
	ct := model.CTParams{T: p.T, Eshift: eshift}

	levels := []float64{12.0, 30.0}
	dataLow := model.Curve{
		Ex:    []float64{0.2, 0.5},
		Value: []float64{12.0, 30.0},
		Unc:   []float64{1.0, 1.0},
	}
	highEx := []float64{5.0, 6.0}
	dataHigh := model.Curve{Ex: highEx, Unc: []float64{1.0, 1.0}}
	for _, e := range highEx {
		dataHigh.Value = append(dataHigh.Value, extrapolate.CT(e, ct))
	}

	c, err := New(extrapolate.ModelCT, dataLow, dataHigh, levels, testAnchor(), flatSpin)
	require.NoError(t, err)
	return c, ct
}

func TestEval_ExactMatchIsZero(t *testing.T) {
	p := Params{A: 1, Alpha: 0, T: 0.6, D0: 2.0}
	c, ct := exactFixture(t, p)

	cost, derived, err := c.Eval(p)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, cost, 1e-9)
	assert.InDelta(t, ct.Eshift, derived.Eshift, 1e-12)
	assert.InDelta(t, 1/(0.25*2.0*1e-6), derived.NldSn.NldSn, 1e-3)
}

func TestEval_NonNegative(t *testing.T) {
	p := Params{A: 1, Alpha: 0, T: 0.6, D0: 2.0}
	c, _ := exactFixture(t, p)

	for _, q := range []Params{
		{A: 2, Alpha: 0.1, T: 0.5, D0: 3},
		{A: 0.5, Alpha: -0.2, T: 0.8, D0: 1},
	} {
		cost, _, err := c.Eval(q)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, cost, 0.0)
		assert.Greater(t, cost, 1e-6, "off-optimum parameters must cost")
	}
}

func TestEval_VarianceWeighting(t *testing.T) {
	p := Params{A: 1, Alpha: 0, T: 0.6, D0: 2.0}
	c, _ := exactFixture(t, p)

	// Shift A away from the exact match so residuals are nonzero, then
	// double every uncertainty: chi-square must drop by 4.
	off := Params{A: 1.1, Alpha: 0, T: 0.6, D0: 2.0}
	base, _, err := c.Eval(off)
	require.NoError(t, err)

	wide := *c
	wide.DataLow = c.DataLow.Clone()
	wide.DataHigh = c.DataHigh.Clone()
	for i := range wide.DataLow.Unc {
		wide.DataLow.Unc[i] *= 2
	}
	for i := range wide.DataHigh.Unc {
		wide.DataHigh.Unc[i] *= 2
	}
	relaxed, _, err := wide.Eval(off)
	require.NoError(t, err)
	assert.InDelta(t, base/4, relaxed, 1e-9*base)
}

func TestEval_DomainError(t *testing.T) {
	p := Params{A: 1, Alpha: 0, T: 0.6, D0: 2.0}
	c, _ := exactFixture(t, p)

	_, _, err := c.Eval(Params{A: 1, Alpha: 0, T: -0.5, D0: 2.0})
	require.Error(t, err)
}

func TestFunc_InfOnFailure(t *testing.T) {
	p := Params{A: 1, Alpha: 0, T: 0.6, D0: 2.0}
	c, _ := exactFixture(t, p)
	f := c.Func()

	assert.True(t, math.IsInf(f(Params{A: 1, T: -1, D0: 2}.Vector()), 1))
	assert.InDelta(t, 0.0, f(p.Vector()), 1e-9)
}

func TestNew_Validation(t *testing.T) {
	low := model.Curve{Ex: []float64{0.2}, Value: []float64{1}}
	high := model.Curve{Ex: []float64{5}, Value: []float64{1}}

	_, err := New("bogus", low, high, []float64{1}, testAnchor(), flatSpin)
	require.Error(t, err)

	_, err = New(extrapolate.ModelCT, low, high, []float64{1, 2}, testAnchor(), flatSpin)
	require.Error(t, err)

	_, err = New(extrapolate.ModelCT, model.Curve{}, high, nil, testAnchor(), flatSpin)
	require.Error(t, err)
}

func TestVectorRoundTrip(t *testing.T) {
	p := Params{A: 1.5, Alpha: -0.3, T: 0.7, D0: 42}
	assert.Equal(t, p, FromVector(p.Vector()))
	assert.Len(t, ParamNames, len(p.Vector()))
}
