// Package model defines the core data types of the normalization engine:
// level-density curves, transformation and extrapolation parameters,
// resonance anchors, posterior summaries, and persisted run records.
package model

import (
	"math"

	"github.com/rotisserie/eris"
)

// EnergySanityMax is the largest excitation energy (MeV) accepted on input.
// Anything above it almost certainly means the table is in keV.
const EnergySanityMax = 1000.0

// Sentinel errors for curve validation.
var (
	// ErrUnitSanity indicates input energies above EnergySanityMax,
	// suggesting a keV/MeV mix-up. Fatal before any fitting.
	ErrUnitSanity = eris.New("model: energy exceeds sanity threshold, input must be in MeV not keV")

	// ErrNotIncreasing indicates a non-monotonic energy grid.
	ErrNotIncreasing = eris.New("model: curve energies must be strictly increasing")

	// ErrNonPositive indicates a zero or negative level density value.
	ErrNonPositive = eris.New("model: curve values must be positive")

	// ErrShape indicates mismatched column lengths.
	ErrShape = eris.New("model: curve columns must have equal length")
)

// Curve is an ordered level-density table over a strictly increasing
// excitation-energy grid. Unc is nil when the input had no uncertainty
// column; when present it holds one absolute 1-sigma uncertainty per bin.
type Curve struct {
	Ex    []float64 `json:"ex"`
	Value []float64 `json:"value"`
	Unc   []float64 `json:"unc,omitempty"`
}

// Len returns the number of bins.
func (c Curve) Len() int { return len(c.Ex) }

// HasUnc reports whether the curve carries an uncertainty column.
func (c Curve) HasUnc() bool { return c.Unc != nil }

// Validate checks the input contract: equal column lengths, strictly
// increasing energies, positive values, and energies within the MeV
// sanity bound. The unit check runs first so a keV table aborts before
// anything else sees it.
func (c Curve) Validate() error {
	for _, e := range c.Ex {
		if e > EnergySanityMax {
			return eris.Wrapf(ErrUnitSanity, "Ex=%g", e)
		}
	}
	if len(c.Value) != len(c.Ex) {
		return eris.Wrapf(ErrShape, "len(Ex)=%d len(Value)=%d", len(c.Ex), len(c.Value))
	}
	if c.Unc != nil && len(c.Unc) != len(c.Ex) {
		return eris.Wrapf(ErrShape, "len(Ex)=%d len(Unc)=%d", len(c.Ex), len(c.Unc))
	}
	for i := 1; i < len(c.Ex); i++ {
		if c.Ex[i] <= c.Ex[i-1] {
			return eris.Wrapf(ErrNotIncreasing, "Ex[%d]=%g <= Ex[%d]=%g", i, c.Ex[i], i-1, c.Ex[i-1])
		}
	}
	for i, v := range c.Value {
		if v <= 0 {
			return eris.Wrapf(ErrNonPositive, "Value[%d]=%g", i, v)
		}
	}
	return nil
}

// NearestIndex returns the index of the bin whose energy is closest to e.
func (c Curve) NearestIndex(e float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, ex := range c.Ex {
		if d := math.Abs(ex - e); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// Window returns the sub-curve between energies e1 and e2, bounds selected
// by nearest-index lookup. The range is half-open: the bin nearest e2 is
// excluded. The returned curve shares backing arrays with c.
func (c Curve) Window(e1, e2 float64) Curve {
	i := c.NearestIndex(e1)
	j := c.NearestIndex(e2)
	out := Curve{Ex: c.Ex[i:j], Value: c.Value[i:j]}
	if c.Unc != nil {
		out.Unc = c.Unc[i:j]
	}
	return out
}

// Clone returns a deep copy of the curve.
func (c Curve) Clone() Curve {
	out := Curve{
		Ex:    append([]float64(nil), c.Ex...),
		Value: append([]float64(nil), c.Value...),
	}
	if c.Unc != nil {
		out.Unc = append([]float64(nil), c.Unc...)
	}
	return out
}
