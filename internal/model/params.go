package model

// TransformParams defines the normalization map nld' = nld * A * exp(alpha*Ex).
type TransformParams struct {
	A     float64 `json:"a"`     // positive scale
	Alpha float64 `json:"alpha"` // exponential rate [1/MeV]
}

// CTParams parameterizes the constant-temperature extrapolation model.
type CTParams struct {
	T      float64 `json:"t"`      // temperature [MeV], > 0
	Eshift float64 `json:"eshift"` // energy offset [MeV]
}

// ResonanceAnchor carries the experimental inputs that pin the absolute
// level density at the neutron separation energy.
type ResonanceAnchor struct {
	D0      float64 `json:"d0"`       // average s-wave resonance spacing [eV]
	Sn      float64 `json:"sn"`       // neutron separation energy [MeV]
	Jtarget float64 `json:"j_target"` // target spin
}

// Anchor is a derived level-density anchor point (Sn, rho(Sn)).
type Anchor struct {
	Sn    float64 `json:"sn"`     // [MeV]
	NldSn float64 `json:"nld_sn"` // [1/MeV]
}

// ParamStat summarizes one posterior parameter.
type ParamStat struct {
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}

// PosteriorSummary maps parameter name (A, alpha, T, D0) to its summary.
type PosteriorSummary map[string]ParamStat

// PosteriorSamples maps parameter name to its equal-weighted sample chain.
// All chains have the same length.
type PosteriorSamples map[string][]float64

// N returns the common chain length, 0 for an empty set.
func (s PosteriorSamples) N() int {
	for _, v := range s {
		return len(v)
	}
	return 0
}
