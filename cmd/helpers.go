package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/oslo-method/nldnorm/internal/model"
	"github.com/oslo-method/nldnorm/internal/norm"
	"github.com/oslo-method/nldnorm/internal/solver"
	"github.com/oslo-method/nldnorm/internal/spincut"
	"github.com/oslo-method/nldnorm/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// newRand builds the run's random source. Seed 0 means time-seeded;
// any other value reproduces the run exactly.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// buildDeps wires the bundled solvers with config sizing.
func buildDeps(rng *rand.Rand) norm.Deps {
	de := solver.NewDE(rng)
	de.PopSize = cfg.Solver.PopSize
	de.MaxIter = cfg.Solver.MaxIter

	mh := solver.NewMetropolis(rng)
	mh.Samples = cfg.Solver.Samples
	mh.BurnIn = cfg.Solver.BurnIn

	return norm.Deps{Minimizer: de, Sampler: mh, Rand: rng}
}

func buildSpin() (spincut.DistributionFunc, error) {
	m, err := spincut.ParseSigmaModel(cfg.Spincut.Model)
	if err != nil {
		return nil, err
	}
	return spincut.Distribution(m, cfg.Spincut.Params)
}

// writeCurve writes a 2- or 3-column curve table.
func writeCurve(path string, c model.Curve) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	for i := range c.Ex {
		if c.HasUnc() {
			fmt.Fprintf(f, "%.6e\t%.6e\t%.6e\n", c.Ex[i], c.Value[i], c.Unc[i])
		} else {
			fmt.Fprintf(f, "%.6e\t%.6e\n", c.Ex[i], c.Value[i])
		}
	}
	return nil
}

// writeLevelDensity writes the discrete-level density over the low
// comparison window: energy, smoothed density, binned density.
func writeLevelDensity(path string, smoothed model.Curve, binned []float64) error {
	if len(binned) != len(smoothed.Ex) {
		return eris.Errorf("level density table: %d bins, %d binned values", len(smoothed.Ex), len(binned))
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	for i := range smoothed.Ex {
		fmt.Fprintf(f, "%.6e\t%.6e\t%.6e\n", smoothed.Ex[i], smoothed.Value[i], binned[i])
	}
	return nil
}

// printResult renders the parameter summary as a table or yaml.
func printResult(w io.Writer, res *model.Result, format string) error {
	if format == "yaml" {
		return yaml.NewEncoder(w).Encode(resultSummary(res))
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "strategy\t%s\n", res.Strategy)
	fmt.Fprintf(tw, "A\t%.4e\n", res.Transform.A)
	fmt.Fprintf(tw, "alpha\t%.4e\n", res.Transform.Alpha)
	fmt.Fprintf(tw, "T\t%.4e\n", res.CT.T)
	fmt.Fprintf(tw, "Eshift\t%.4e\n", res.CT.Eshift)
	if res.NldSn.NldSn != 0 {
		fmt.Fprintf(tw, "nld(Sn)\t%.4e\n", res.NldSn.NldSn)
		fmt.Fprintf(tw, "chi2\t%.4e\n", res.Chi2)
	}
	for _, name := range []string{"A", "alpha", "T", "D0"} {
		if s, ok := res.Summary[name]; ok {
			fmt.Fprintf(tw, "%s (posterior)\t%.4e +- %.4e\n", name, s.Median, s.Std)
		}
	}
	return tw.Flush()
}

type summaryDoc struct {
	Strategy  string                 `yaml:"strategy"`
	Transform model.TransformParams  `yaml:"transform"`
	CT        model.CTParams         `yaml:"ct"`
	NldSn     *model.Anchor          `yaml:"nld_sn,omitempty"`
	Chi2      float64                `yaml:"chi2,omitempty"`
	Posterior model.PosteriorSummary `yaml:"posterior,omitempty"`
}

func resultSummary(res *model.Result) summaryDoc {
	doc := summaryDoc{
		Strategy:  string(res.Strategy),
		Transform: res.Transform,
		CT:        res.CT,
		Chi2:      res.Chi2,
		Posterior: res.Summary,
	}
	if res.NldSn.NldSn != 0 {
		a := res.NldSn
		doc.NldSn = &a
	}
	return doc
}

// persistRun stores a completed or failed run if a store is configured.
func persistRun(ctx context.Context, st store.Store, strategy model.Strategy, curveFile string, res *model.Result, runErr error) (string, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		Status:    model.RunStatusComplete,
		Strategy:  strategy,
		CurveFile: curveFile,
		Result:    res,
		CreatedAt: time.Now().UTC(),
	}
	if runErr != nil {
		run.Status = model.RunStatusFailed
		run.Error = runErr.Error()
		run.Result = nil
	}
	if err := st.SaveRun(ctx, run); err != nil {
		return "", err
	}
	return run.ID, nil
}
