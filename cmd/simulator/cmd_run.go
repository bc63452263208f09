package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"strategy-sim-go/internal/database"
	"strategy-sim-go/internal/domain"
	"strategy-sim-go/internal/market"
	"strategy-sim-go/internal/marketdata"
	"strategy-sim-go/internal/simulation"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation",
	Long: `Run one or more strategies over a bar series and print the report.

Examples:
  simulator run --csv data/aapl.csv --strategy breakout --risk high
  simulator run --symbol AAPL --start 2023-01-01 --end 2023-12-31 --strategy all
  simulator run --csv data/aapl.csv --format yaml --save`,
	RunE: runSimulation,
}

var (
	runCSV       string
	runSymbol    string
	runStart     string
	runEnd       string
	runStrategy  string
	runRisk      string
	runCapital   float64
	runFee       float64
	runSeed      uint64
	runMCRuns    int
	runFormat    string
	runOutput    string
	runSave      bool
	runUser      string
	runParallel  int
	runShowTrade bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringVar(&runCSV, "csv", "", "CSV file with date,open,high,low,close,volume columns")
	f.StringVar(&runSymbol, "symbol", "", "Symbol to fetch when --csv is not given")
	f.StringVar(&runStart, "start", "", "First date of the window (YYYY-MM-DD)")
	f.StringVar(&runEnd, "end", "", "Last date of the window (YYYY-MM-DD)")
	f.StringVar(&runStrategy, "strategy", "", "Strategy name or alias (mac, mt, mr, breakout), a comma list, or all")
	f.StringVar(&runRisk, "risk", "", "Risk tolerance: High, Moderate or Low")
	f.Float64Var(&runCapital, "capital", 0, "Initial capital (default from config)")
	f.Float64Var(&runFee, "fee", -1, "Fee fraction per fill (default from config)")
	f.Uint64Var(&runSeed, "seed", 0, "Monte Carlo seed (default from config)")
	f.IntVar(&runMCRuns, "mc-runs", 0, "Monte Carlo resamples (default from config)")
	f.StringVar(&runFormat, "format", "summary", "Output format: summary, json or yaml")
	f.StringVar(&runOutput, "output", "", "Write the report to a file instead of stdout")
	f.BoolVar(&runSave, "save", false, "Persist the run to the database")
	f.StringVar(&runUser, "user", "", "User id recorded with saved runs")
	f.IntVar(&runParallel, "parallel", 0, "Concurrent runs when several strategies are selected (0 = unbounded)")
	f.BoolVar(&runShowTrade, "trades", false, "List trades in the summary output")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	strategies, err := selectedStrategies(runStrategy, cfg.Simulation.Strategy)
	if err != nil {
		return err
	}
	riskName := runRisk
	if riskName == "" {
		riskName = cfg.Simulation.RiskTolerance
	}
	risk, err := domain.ParseRiskTolerance(riskName)
	if err != nil {
		return err
	}

	symbol, bars, err := loadBars(ctx, strategies)
	if err != nil {
		return err
	}

	base := simulation.Request{
		Symbol:         symbol,
		Bars:           bars,
		InitialCapital: cfg.Simulation.InitialCapital,
		RiskTolerance:  risk,
		FeePercentage:  cfg.Simulation.FeePercentage,
		Seed:           cfg.Simulation.Seed,
		MonteCarloRuns: cfg.Simulation.MonteCarloRuns,
	}
	if cmd.Flags().Changed("capital") {
		base.InitialCapital = runCapital
	}
	if cmd.Flags().Changed("fee") {
		base.FeePercentage = runFee
	}
	if runSeed != 0 {
		base.Seed = runSeed
	}
	if runMCRuns != 0 {
		base.MonteCarloRuns = runMCRuns
	}

	reqs := make([]simulation.Request, len(strategies))
	for i, name := range strategies {
		reqs[i] = base
		reqs[i].Strategy = name
	}

	sim := simulation.NewSimulator(log, simulation.NewTelemetry(prometheus.NewRegistry()), cfg.Simulation.Workers)
	results, err := sim.RunBatch(ctx, reqs, runParallel)
	if err != nil {
		return err
	}

	if runSave {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		store := database.NewStore(db)
		for _, res := range results {
			if _, err := store.SaveRun(ctx, runUser, res); err != nil {
				return err
			}
			log.Info("Run saved", zap.String("run_id", res.RunID))
		}
	}

	out := cmd.OutOrStdout()
	if runOutput != "" {
		file, err := os.Create(runOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", runOutput, err)
		}
		defer file.Close()
		out = file
	}
	return writeResults(out, runFormat, results, runShowTrade)
}

func selectedStrategies(flag, fallback string) ([]domain.StrategyName, error) {
	if flag == "" {
		flag = fallback
	}
	if strings.EqualFold(flag, "all") {
		return domain.StrategyNames, nil
	}
	var names []domain.StrategyName
	seen := make(map[domain.StrategyName]bool)
	for _, part := range strings.Split(flag, ",") {
		name, err := domain.ParseStrategyName(part)
		if err != nil {
			return nil, err
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}

// loadBars reads --csv, or fetches --symbol padded by the longest lookback of the selected strategies.
func loadBars(ctx context.Context, strategies []domain.StrategyName) (string, []domain.Bar, error) {
	if runCSV != "" {
		bars, err := market.LoadCSVFile(runCSV)
		if err != nil {
			return "", nil, err
		}
		symbol := runSymbol
		if symbol == "" {
			symbol = strings.TrimSuffix(filepath.Base(runCSV), filepath.Ext(runCSV))
		}
		return strings.ToUpper(symbol), bars, nil
	}
	if runSymbol == "" {
		return "", nil, fmt.Errorf("either --csv or --symbol is required")
	}

	start, end, err := parseWindow(runStart, runEnd)
	if err != nil {
		return "", nil, err
	}
	if !start.IsZero() {
		padded := start
		for _, name := range strategies {
			if p := marketdata.PaddedStart(start, name); p.Before(padded) {
				padded = p
			}
		}
		start = padded
	}

	db, err := openDatabase()
	if err != nil {
		return "", nil, err
	}
	client := marketdata.NewClient(cfg.MarketData, log)
	source := marketdata.NewCachedSource(database.NewStore(db), client, log)

	bars, err := source.Bars(ctx, runSymbol, start, end)
	if err != nil {
		return "", nil, err
	}
	return strings.ToUpper(runSymbol), bars, nil
}

func parseWindow(startFlag, endFlag string) (start, end time.Time, err error) {
	if startFlag != "" {
		if start, err = time.Parse("2006-01-02", startFlag); err != nil {
			return start, end, fmt.Errorf("invalid --start: %w", err)
		}
	}
	if endFlag != "" {
		if end, err = time.Parse("2006-01-02", endFlag); err != nil {
			return start, end, fmt.Errorf("invalid --end: %w", err)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return start, end, fmt.Errorf("--end %s is before --start %s", endFlag, startFlag)
	}
	return start, end, nil
}
