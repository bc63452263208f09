package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"strategy-sim-go/internal/database"
	"strategy-sim-go/internal/market"
	"strategy-sim-go/internal/marketdata"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch SYMBOL",
	Short: "Fetch daily bars into the local cache",
	Long: `Fetch daily bars for a symbol from the market data API and store them in the
database so later runs can reuse them. Optionally write them to a CSV file.

Examples:
  simulator fetch AAPL --start 2023-01-01 --end 2023-12-31
  simulator fetch MSFT --out data/msft.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

var (
	fetchStart string
	fetchEnd   string
	fetchOut   string
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchStart, "start", "", "First date (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchEnd, "end", "", "Last date (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "Also write the bars to this CSV file")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	symbol := args[0]
	start, end, err := parseWindow(fetchStart, fetchEnd)
	if err != nil {
		return err
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	client := marketdata.NewClient(cfg.MarketData, log)
	bars, err := client.FetchDailyBars(ctx, symbol, start, end)
	if err != nil {
		return err
	}
	if err := market.Validate(bars); err != nil {
		return fmt.Errorf("fetched bars for %s are invalid: %w", symbol, err)
	}
	if err := database.NewStore(db).SaveBars(ctx, symbol, bars); err != nil {
		return err
	}
	log.Info("Bars cached",
		zap.String("symbol", symbol),
		zap.Int("bars", len(bars)),
		zap.Time("first", bars[0].Date),
		zap.Time("last", bars[len(bars)-1].Date),
	)

	if fetchOut != "" {
		file, err := os.Create(fetchOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", fetchOut, err)
		}
		defer file.Close()
		if err := market.WriteCSV(file, bars); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bars from %s to %s\n", symbol, len(bars),
		bars[0].Date.Format("2006-01-02"), bars[len(bars)-1].Date.Format("2006-01-02"))
	return nil
}
