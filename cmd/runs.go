package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/oslo-method/nldnorm/internal/model"
	"github.com/oslo-method/nldnorm/internal/norm"
	"github.com/oslo-method/nldnorm/internal/store"
)

// parseRunFilter validates the list flags before they hit the store.
func parseRunFilter(status, strategy string, limit int) (store.RunFilter, error) {
	filter := store.RunFilter{Limit: limit}
	if status != "" {
		switch model.RunStatus(status) {
		case model.RunStatusComplete, model.RunStatusFailed:
			filter.Status = model.RunStatus(status)
		default:
			return store.RunFilter{}, eris.Errorf("runs: unknown status %q (want complete or failed)", status)
		}
	}
	if strategy != "" {
		s, err := norm.ParseStrategy(strategy)
		if err != nil {
			return store.RunFilter{}, err
		}
		filter.Strategy = s
	}
	return filter, nil
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect normalization run history",
	Long:  "Commands for listing and viewing persisted normalization runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List normalization runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		status, _ := cmd.Flags().GetString("status")
		strategy, _ := cmd.Flags().GetString("strategy")
		limit, _ := cmd.Flags().GetInt("limit")
		filter, err := parseRunFilter(status, strategy, limit)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "runs show %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

func formatRunsList(w io.Writer, runs []model.Run) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tSTRATEGY\tCURVE\tA\tALPHA\tCREATED")
	for _, r := range runs {
		a, alpha := "-", "-"
		if r.Result != nil {
			a = fmt.Sprintf("%.3e", r.Result.Transform.A)
			alpha = fmt.Sprintf("%.3e", r.Result.Transform.Alpha)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Status, r.Strategy, r.CurveFile, a, alpha,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	tw.Flush()
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by status (complete, failed)")
	runsListCmd.Flags().String("strategy", "", "filter by strategy (2points, find_norm)")
	runsListCmd.Flags().Int("limit", 0, "maximum number of runs to list")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
