package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/oslo-method/nldnorm/internal/extrapolate"
	"github.com/oslo-method/nldnorm/internal/loader"
	"github.com/oslo-method/nldnorm/internal/model"
	"github.com/oslo-method/nldnorm/internal/norm"
)

var twopointCmd = &cobra.Command{
	Use:   "twopoint",
	Short: "Normalize an NLD curve through two fixed anchor points",
	Long: `Solves A and alpha in closed form so the normalized curve passes through
two literal (Ex, nld) anchors inside the curve's energy range, then produces
a constant-temperature extrapolation from the given T and Eshift.

Example:
  nldnorm twopoint --curve nld.txt --p1 0.5,15.3 --p2 3.2,840 --t 0.55 --eshift -0.9`,
	RunE: runTwoPoint,
}

func init() {
	f := twopointCmd.Flags()
	f.String("curve", "", "path to the NLD curve table (required)")
	f.String("p1", "", "first anchor as Ex,nld (required)")
	f.String("p2", "", "second anchor as Ex,nld (required)")
	f.Float64("t", 0, "extrapolation temperature T [MeV] (required)")
	f.Float64("eshift", 0, "extrapolation energy shift [MeV]")
	f.Float64("ext-lo", 0, "extrapolation grid start [MeV] (default: curve range)")
	f.Float64("ext-hi", 0, "extrapolation grid end [MeV] (default: curve range)")
	f.String("format", "table", "summary format: table or yaml")
	f.String("out-norm", "", "write the normalized curve to this file")
	f.Bool("save", false, "persist the run to the store")

	_ = twopointCmd.MarkFlagRequired("curve")
	_ = twopointCmd.MarkFlagRequired("p1")
	_ = twopointCmd.MarkFlagRequired("p2")
	_ = twopointCmd.MarkFlagRequired("t")

	rootCmd.AddCommand(twopointCmd)
}

// parsePoint parses "Ex,nld".
func parsePoint(s string) (norm.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return norm.Point{}, eris.Errorf("twopoint: anchor %q must be Ex,nld", s)
	}
	e, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return norm.Point{}, eris.Wrapf(err, "twopoint: anchor energy in %q", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return norm.Point{}, eris.Wrapf(err, "twopoint: anchor density in %q", s)
	}
	return norm.Point{E: e, Nld: v}, nil
}

func runTwoPoint(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	curveFile, _ := cmd.Flags().GetString("curve")
	curve, err := loader.LoadCurve(curveFile)
	if err != nil {
		return err
	}

	p1Str, _ := cmd.Flags().GetString("p1")
	p2Str, _ := cmd.Flags().GetString("p2")
	p1, err := parsePoint(p1Str)
	if err != nil {
		return err
	}
	p2, err := parsePoint(p2Str)
	if err != nil {
		return err
	}

	t, _ := cmd.Flags().GetFloat64("t")
	eshift, _ := cmd.Flags().GetFloat64("eshift")
	extLo, _ := cmd.Flags().GetFloat64("ext-lo")
	extHi, _ := cmd.Flags().GetFloat64("ext-hi")

	n, err := norm.NewTwoPoint(curve, extrapolate.Model(cfg.Norm.Model), norm.TwoPointConfig{
		P1:    p1,
		P2:    p2,
		CT:    model.CTParams{T: t, Eshift: eshift},
		ExtLo: extLo,
		ExtHi: extHi,
	})
	if err != nil {
		return err
	}

	res, runErr := n.Run(ctx)

	if save, _ := cmd.Flags().GetBool("save"); save {
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if _, err := persistRun(ctx, st, model.StrategyTwoPoint, curveFile, res, runErr); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	if out, _ := cmd.Flags().GetString("out-norm"); out != "" {
		if err := writeCurve(out, res.Normalized); err != nil {
			return eris.Wrap(err, "twopoint: write normalized curve")
		}
	}

	format, _ := cmd.Flags().GetString("format")
	return printResult(os.Stdout, res, format)
}
