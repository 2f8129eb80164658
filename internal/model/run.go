package model

import "time"

// Strategy selects the normalization procedure.
type Strategy string

const (
	// StrategyTwoPoint solves A and alpha in closed form from two anchors.
	StrategyTwoPoint Strategy = "2points"
	// StrategyFindNorm fits all four parameters against discrete levels
	// and the extrapolation model, then samples the posterior.
	StrategyFindNorm Strategy = "find_norm"
)

// RunStatus is the terminal state of a persisted normalization run.
type RunStatus string

const (
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Result is the full outcome of one normalization run, returned by the
// driver and retained for downstream consumers (e.g. gamma-strength
// normalization reuses Transform, CT and Samples).
type Result struct {
	Strategy  Strategy         `json:"strategy"`
	Transform TransformParams  `json:"transform"`
	CT        CTParams         `json:"ct"`
	NldSn     Anchor           `json:"nld_sn"`
	Chi2      float64          `json:"chi2"`
	Summary   PosteriorSummary `json:"summary,omitempty"`
	Samples   PosteriorSamples `json:"-"`

	Normalized   Curve `json:"normalized"`
	Extrapolated Curve `json:"extrapolated"`
	// Discretes is the smoothed discrete-level density over the low
	// comparison window (find_norm only).
	Discretes Curve `json:"discretes"`
}

// Run is a persisted normalization run.
type Run struct {
	ID        string    `json:"id"`
	Status    RunStatus `json:"status"`
	Strategy  Strategy  `json:"strategy"`
	CurveFile string    `json:"curve_file,omitempty"`
	Result    *Result   `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
