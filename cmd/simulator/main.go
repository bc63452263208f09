package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"strategy-sim-go/internal/config"
	"strategy-sim-go/internal/database"
	"strategy-sim-go/internal/logger"
)

var (
	configDir string

	cfg config.Config
	log *zap.Logger
)

// rootCmd is the base command for the simulator CLI
var rootCmd = &cobra.Command{
	Use:   "simulator",
	Short: "Backtest trading strategies on daily bars",
	Long: `simulator replays a daily OHLCV series through one of four rule-based
strategies (MovingAverageCrossover, Momentum, MeanReversion, Breakout) and
reports returns, risk, trade statistics and a Monte Carlo resample.

Bars come from a CSV file or from the configured market data API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configDir)
		if err != nil {
			return fmt.Errorf("could not load config: %w", err)
		}
		log, err = logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
		if err != nil {
			return fmt.Errorf("could not initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "./configs", "Directory containing config.yml")
}

func openDatabase() (*gorm.DB, error) {
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	log.Debug("Database connection successful and schema migrated", zap.String("dsn", cfg.Database.DSN))
	return db, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
