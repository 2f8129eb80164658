package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oslo-method/nldnorm/internal/discretes"
	"github.com/oslo-method/nldnorm/internal/extrapolate"
	"github.com/oslo-method/nldnorm/internal/loader"
	"github.com/oslo-method/nldnorm/internal/model"
	"github.com/oslo-method/nldnorm/internal/norm"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Automatically normalize an NLD curve (find_norm)",
	Long: `Fits the transformation nld' = nld * A * exp(alpha*Ex) jointly against
smoothed discrete levels in a low-energy window and a constant-temperature
extrapolation anchored at nld(Sn) in a high-energy window, then samples the
posterior and propagates parameter uncertainty into the normalized curve.

Examples:
  # Normalize with windows and anchor from config.yaml
  nldnorm normalize --curve nld.txt --levels discretes.txt

  # Override the resonance anchor and fix the seed
  nldnorm normalize --curve nld.txt --levels discretes.txt \
    --d0 2.2 --sn 8.38 --j-target 2.5 --seed 42

  # Write output tables and persist the run
  nldnorm normalize --curve nld.txt --levels discretes.txt \
    --out-norm nld_norm.txt --out-ext nld_ext.txt --save`,
	RunE: runNormalize,
}

func init() {
	f := normalizeCmd.Flags()
	f.String("curve", "", "path to the NLD curve table (required)")
	f.String("levels", "", "path to the discrete level table (required)")
	f.Float64("d0", 0, "average resonance spacing D0 [eV] (overrides config)")
	f.Float64("d0-sigma", 0, "informative D0 prior width [eV] (overrides config)")
	f.Float64("sn", 0, "neutron separation energy [MeV] (overrides config)")
	f.Float64("j-target", -1, "target spin (overrides config)")
	f.Float64("e1-low", 0, "low window start [MeV] (overrides config)")
	f.Float64("e2-low", 0, "low window end [MeV] (overrides config)")
	f.Float64("e1-high", 0, "high window start [MeV] (overrides config)")
	f.Float64("e2-high", 0, "high window end [MeV] (overrides config)")
	f.Uint64("seed", 0, "random seed, 0 = time-seeded (overrides config)")
	f.String("format", "table", "summary format: table or yaml")
	f.String("out-norm", "", "write the normalized curve to this file")
	f.String("out-ext", "", "write the extrapolated curve to this file")
	f.String("out-levels", "", "write the level density table (Ex, smoothed, binned) to this file")
	f.Bool("save", false, "persist the run to the store")

	_ = normalizeCmd.MarkFlagRequired("curve")
	_ = normalizeCmd.MarkFlagRequired("levels")

	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	curveFile, _ := cmd.Flags().GetString("curve")
	levelsFile, _ := cmd.Flags().GetString("levels")

	curve, err := loader.LoadCurve(curveFile)
	if err != nil {
		return err
	}
	levels, err := discretes.Load(levelsFile)
	if err != nil {
		return err
	}

	anchor := model.ResonanceAnchor{
		D0:      cfg.Anchor.D0,
		Sn:      cfg.Anchor.Sn,
		Jtarget: cfg.Anchor.Jtarget,
	}
	if v, _ := cmd.Flags().GetFloat64("d0"); v > 0 {
		anchor.D0 = v
	}
	if v, _ := cmd.Flags().GetFloat64("sn"); v > 0 {
		anchor.Sn = v
	}
	if v, _ := cmd.Flags().GetFloat64("j-target"); v >= 0 {
		anchor.Jtarget = v
	}

	ncfg := norm.FindNormConfig{
		Window:     cfg.Norm.Window,
		Bounds:     cfg.Solver.Bounds.Slice(),
		Resolution: cfg.Norm.Resolution,
		D0Sigma:    cfg.Anchor.D0Sigma,
		ExtLo:      cfg.Norm.ExtLo,
		ExtHi:      cfg.Norm.ExtHi,
	}
	if v, _ := cmd.Flags().GetFloat64("e1-low"); v != 0 {
		ncfg.Window.E1Low = v
	}
	if v, _ := cmd.Flags().GetFloat64("e2-low"); v != 0 {
		ncfg.Window.E2Low = v
	}
	if v, _ := cmd.Flags().GetFloat64("e1-high"); v != 0 {
		ncfg.Window.E1High = v
	}
	if v, _ := cmd.Flags().GetFloat64("e2-high"); v != 0 {
		ncfg.Window.E2High = v
	}
	if v, _ := cmd.Flags().GetFloat64("d0-sigma"); v > 0 {
		ncfg.D0Sigma = v
	}

	seed := cfg.Solver.Seed
	if v, _ := cmd.Flags().GetUint64("seed"); v != 0 {
		seed = v
	}
	rng := newRand(seed)

	spin, err := buildSpin()
	if err != nil {
		return err
	}

	n, err := norm.NewFindNorm(curve, levels, anchor, spin,
		extrapolate.Model(cfg.Norm.Model), ncfg, buildDeps(rng))
	if err != nil {
		return err
	}

	zap.L().Info("normalize: starting find_norm",
		zap.String("curve", curveFile),
		zap.Int("bins", curve.Len()),
		zap.Int("levels", len(levels)),
		zap.Float64("d0", anchor.D0),
		zap.Float64("sn", anchor.Sn),
	)

	res, runErr := n.Run(ctx)

	if save, _ := cmd.Flags().GetBool("save"); save {
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		id, err := persistRun(ctx, st, model.StrategyFindNorm, curveFile, res, runErr)
		if err != nil {
			return err
		}
		zap.L().Info("normalize: run persisted", zap.String("run_id", id))
	}
	if runErr != nil {
		return runErr
	}

	if out, _ := cmd.Flags().GetString("out-norm"); out != "" {
		if err := writeCurve(out, res.Normalized); err != nil {
			return eris.Wrap(err, "normalize: write normalized curve")
		}
	}
	if out, _ := cmd.Flags().GetString("out-ext"); out != "" {
		if err := writeCurve(out, res.Extrapolated); err != nil {
			return eris.Wrap(err, "normalize: write extrapolated curve")
		}
	}
	if out, _ := cmd.Flags().GetString("out-levels"); out != "" {
		binned := discretes.Binned(levels, res.Discretes.Ex)
		if err := writeLevelDensity(out, res.Discretes, binned); err != nil {
			return eris.Wrap(err, "normalize: write level density table")
		}
	}

	format, _ := cmd.Flags().GetString("format")
	return printResult(os.Stdout, res, format)
}
