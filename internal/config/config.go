package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"strategy-sim-go/internal/domain"
)

// Config holds all configuration for the application.
type Config struct {
	Simulation Simulation `mapstructure:"simulation"`
	MarketData MarketData `mapstructure:"market_data"`
	PriceCache PriceCache `mapstructure:"price_cache"`
	Logger     Logger     `mapstructure:"logger"`
	Server     Server     `mapstructure:"server"`
	Database   Database   `mapstructure:"database"`
}

// Simulation holds the defaults for a simulation run.
type Simulation struct {
	InitialCapital float64 `mapstructure:"initial_capital"`
	RiskTolerance  string  `mapstructure:"risk_tolerance"`
	FeePercentage  float64 `mapstructure:"fee_percentage"`
	Strategy       string  `mapstructure:"strategy"`
	Seed           uint64  `mapstructure:"seed"`
	MonteCarloRuns int     `mapstructure:"monte_carlo_runs"`
	Workers        int     `mapstructure:"workers"`
}

// MarketData holds the configuration for the market data API.
type MarketData struct {
	BaseURL        string        `mapstructure:"base_url"`
	ApiKey         string        `mapstructure:"api_key"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

// PriceCache holds the configuration for the live price refresher.
type PriceCache struct {
	RedisAddr string        `mapstructure:"redis_addr"`
	Symbols   []string      `mapstructure:"symbols"`
	Interval  time.Duration `mapstructure:"interval"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from path/config.yml, a .env file in the working
// directory and environment variables, in increasing order of precedence.
// A missing config file is not an error; defaults apply.
func LoadConfig(path string) (config Config, err error) {
	if err = godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("failed to read config from %s: %w", filepath.Clean(path), err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to decode config: %w", err)
	}
	return config, config.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("simulation.initial_capital", 10000)
	v.SetDefault("simulation.risk_tolerance", string(domain.RiskModerate))
	v.SetDefault("simulation.fee_percentage", 0.001)
	v.SetDefault("simulation.strategy", string(domain.MovingAverageCrossover))
	v.SetDefault("simulation.seed", 42)
	v.SetDefault("simulation.monte_carlo_runs", 1000)
	v.SetDefault("simulation.workers", 4)

	v.SetDefault("market_data.base_url", "https://www.alphavantage.co")
	v.SetDefault("market_data.api_key", "")
	v.SetDefault("market_data.rate_limit", 0.2) // requests per second
	v.SetDefault("market_data.rate_limit_burst", 1)
	v.SetDefault("market_data.timeout", "15s")
	v.SetDefault("market_data.max_retries", 3)

	v.SetDefault("price_cache.redis_addr", "localhost:6379")
	v.SetDefault("price_cache.symbols", []string{})
	v.SetDefault("price_cache.interval", "5m")
	v.SetDefault("price_cache.ttl", "10m")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.dsn", "simulator.db")
}

// Validate checks the simulation defaults with the same rules a run applies.
func (c Config) Validate() error {
	if _, err := domain.ParseRiskTolerance(c.Simulation.RiskTolerance); err != nil {
		return err
	}
	if _, err := domain.ParseStrategyName(c.Simulation.Strategy); err != nil {
		return err
	}
	if c.Simulation.InitialCapital <= 0 {
		return &domain.ConfigurationError{Field: "simulation.initial_capital", Reason: "must be positive"}
	}
	if c.Simulation.FeePercentage < 0 || c.Simulation.FeePercentage > 1 {
		return &domain.ConfigurationError{Field: "simulation.fee_percentage", Reason: "must be within [0, 1]"}
	}
	return nil
}
