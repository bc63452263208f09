package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"strategy-sim-go/internal/database"
	"strategy-sim-go/internal/simulation"
)

var runsCmd = &cobra.Command{
	Use:   "runs [RUN_ID]",
	Short: "List saved runs, or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRuns,
}

var (
	runsUser   string
	runsLimit  int
	runsFormat string
)

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().StringVar(&runsUser, "user", "", "Only runs saved by this user")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
	runsCmd.Flags().StringVar(&runsFormat, "format", "summary", "Output format for a single run: summary, json or yaml")
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDatabase()
	if err != nil {
		return err
	}
	store := database.NewStore(db)
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		run, err := store.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		res, err := database.ToResult(run)
		if err != nil {
			return err
		}
		return writeResults(out, runsFormat, []*simulation.Result{res}, true)
	}

	runs, err := store.ListRuns(ctx, runsUser, runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No saved runs.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSAVED\tSYMBOL\tSTRATEGY\tRISK\tRETURN\tMAX DD\tTRADES")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%.2f%%\t%d\n",
			r.RunID, r.CreatedAt.Format("2006-01-02 15:04"), r.Symbol, r.Strategy, r.RiskTolerance,
			signed(r.TotalReturnPct, "%.2f%%"), r.MaxDrawdownPct, r.TradeCount)
	}
	return tw.Flush()
}
