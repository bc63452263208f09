package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-sim-go/internal/domain"
)

const sampleConfig = `
simulation:
  initial_capital: 25000
  risk_tolerance: High
  fee_percentage: 0.002
  strategy: Breakout
  monte_carlo_runs: 500
market_data:
  api_key: file-key
  timeout: 5s
price_cache:
  symbols: [AAPL, MSFT]
  interval: 1m
logger:
  level: debug
  format: json
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfig(t *testing.T) {
	t.Run("File values and defaults", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, sampleConfig))
		require.NoError(t, err)

		assert.Equal(t, 25000.0, cfg.Simulation.InitialCapital)
		assert.Equal(t, "High", cfg.Simulation.RiskTolerance)
		assert.Equal(t, "Breakout", cfg.Simulation.Strategy)
		assert.Equal(t, 500, cfg.Simulation.MonteCarloRuns)
		assert.Equal(t, uint64(42), cfg.Simulation.Seed)
		assert.Equal(t, "file-key", cfg.MarketData.ApiKey)
		assert.Equal(t, 5*time.Second, cfg.MarketData.Timeout)
		assert.Equal(t, 3, cfg.MarketData.MaxRetries)
		assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.PriceCache.Symbols)
		assert.Equal(t, time.Minute, cfg.PriceCache.Interval)
		assert.Equal(t, 10*time.Minute, cfg.PriceCache.TTL)
		assert.Equal(t, "json", cfg.Logger.Format)
		assert.Equal(t, 8080, cfg.Server.Port)
	})

	t.Run("Environment overrides file", func(t *testing.T) {
		t.Setenv("MARKET_DATA_API_KEY", "env-key")
		t.Setenv("SIMULATION_INITIAL_CAPITAL", "5000")

		cfg, err := LoadConfig(writeConfig(t, sampleConfig))
		require.NoError(t, err)
		assert.Equal(t, "env-key", cfg.MarketData.ApiKey)
		assert.Equal(t, 5000.0, cfg.Simulation.InitialCapital)
	})

	t.Run("Missing file uses defaults", func(t *testing.T) {
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "Moderate", cfg.Simulation.RiskTolerance)
		assert.Equal(t, 10000.0, cfg.Simulation.InitialCapital)
		assert.Equal(t, "simulator.db", cfg.Database.DSN)
	})

	t.Run("Invalid tolerance", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "simulation:\n  risk_tolerance: Extreme\n"))
		var cfgErr *domain.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "risk_tolerance", cfgErr.Field)
	})

	t.Run("Fee out of range", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "simulation:\n  fee_percentage: 2\n"))
		var cfgErr *domain.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "simulation.fee_percentage", cfgErr.Field)
	})
}
