// Package simulation wires validation, indicators, strategy replay and metrics into a single run.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"strategy-sim-go/internal/domain"
	"strategy-sim-go/internal/indicators"
	"strategy-sim-go/internal/market"
	"strategy-sim-go/internal/metrics"
	"strategy-sim-go/internal/strategy"
)

// Request describes one simulation run.
type Request struct {
	Symbol         string
	Bars           []domain.Bar
	InitialCapital float64
	RiskTolerance  domain.RiskTolerance
	FeePercentage  float64
	Strategy       domain.StrategyName
	// Seed for the Monte Carlo step. Zero selects metrics.DefaultSeed.
	Seed uint64
	// MonteCarloRuns defaults to metrics.DefaultRuns.
	MonteCarloRuns int
}

// Result is the output contract of a run.
type Result struct {
	RunID          string                     `json:"run_id" yaml:"run_id"`
	Symbol         string                     `json:"symbol" yaml:"symbol"`
	Strategy       domain.StrategyName        `json:"strategy" yaml:"strategy"`
	RiskTolerance  domain.RiskTolerance       `json:"risk_tolerance" yaml:"risk_tolerance"`
	InitialCapital float64                    `json:"initial_capital" yaml:"initial_capital"`
	FinalCapital   float64                    `json:"final_capital" yaml:"final_capital"`
	Bars           int                        `json:"bars" yaml:"bars"`
	Trades         []domain.Trade             `json:"trades" yaml:"trades"`
	Curve          []domain.CapitalCurvePoint `json:"capital_curve" yaml:"capital_curve"`
	Report         metrics.Report             `json:"metrics" yaml:"metrics"`
}

// Simulator runs simulations. It holds no per-run state and is safe for concurrent use.
type Simulator struct {
	logger    *zap.Logger
	telemetry *Telemetry
	workers   int
}

// NewSimulator creates a simulator. workers bounds Monte Carlo concurrency within a run.
func NewSimulator(logger *zap.Logger, telemetry *Telemetry, workers int) *Simulator {
	if telemetry == nil {
		telemetry = NewTelemetry(nil)
	}
	return &Simulator{
		logger:    logger.Named("simulation"),
		telemetry: telemetry,
		workers:   workers,
	}
}

// Run executes one simulation. Configuration is checked before the bars, and the bars
// before the strategy's minimum length.
func (s *Simulator) Run(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := s.logger.With(
		zap.String("symbol", req.Symbol),
		zap.String("strategy", string(req.Strategy)),
		zap.String("risk_tolerance", string(req.RiskTolerance)),
	)

	res, err := s.run(req)
	if err != nil {
		s.telemetry.Runs.WithLabelValues(string(req.Strategy), errorLabel(err)).Inc()
		l.Warn("Simulation rejected", zap.Error(err))
		return nil, err
	}

	s.telemetry.Runs.WithLabelValues(string(req.Strategy), "success").Inc()
	for _, t := range res.Trades {
		s.telemetry.Trades.WithLabelValues(string(req.Strategy), string(t.Action)).Inc()
	}
	l.Info("Simulation complete",
		zap.String("run_id", res.RunID),
		zap.Int("bars", res.Bars),
		zap.Int("trades", len(res.Trades)),
		zap.Float64("final_capital", res.FinalCapital),
		zap.Float64("total_return_pct", res.Report.Returns.TotalReturnPct),
	)
	return res, nil
}

func (s *Simulator) run(req Request) (*Result, error) {
	if math.IsNaN(req.InitialCapital) || math.IsInf(req.InitialCapital, 0) || req.InitialCapital <= 0 {
		return nil, &domain.ConfigurationError{Field: "initial_capital", Reason: "must be a positive number"}
	}
	strat, err := strategy.New(req.Strategy, req.RiskTolerance, req.FeePercentage)
	if err != nil {
		return nil, err
	}
	if err := market.Validate(req.Bars); err != nil {
		return nil, err
	}
	if len(req.Bars) < strat.MinBars() {
		return nil, &domain.InsufficientDataError{Strategy: strat.Name(), Required: strat.MinBars(), Got: len(req.Bars)}
	}

	var enriched []indicators.Bar
	s.timed("indicators", func() {
		enriched = indicators.Compute(req.Bars, strat.Indicators())
	})

	var replay strategy.Result
	s.timed("replay", func() {
		replay = strategy.Replay(strat, enriched, req.InitialCapital)
	})

	seed := req.Seed
	if seed == 0 {
		seed = metrics.DefaultSeed
	}
	var report metrics.Report
	s.timed("metrics", func() {
		report = metrics.Compute(req.InitialCapital, replay.FinalCapital, replay.Trades,
			metrics.WithSeed(seed), metrics.WithRuns(req.MonteCarloRuns), metrics.WithWorkers(s.workers))
	})

	return &Result{
		RunID:          uuid.NewString(),
		Symbol:         req.Symbol,
		Strategy:       strat.Name(),
		RiskTolerance:  req.RiskTolerance,
		InitialCapital: req.InitialCapital,
		FinalCapital:   replay.FinalCapital,
		Bars:           len(req.Bars),
		Trades:         replay.Trades,
		Curve:          replay.Curve,
		Report:         report,
	}, nil
}

// RunBatch runs independent requests concurrently. Results keep the request order.
// The first failure cancels the remaining runs and is returned.
func (s *Simulator) RunBatch(ctx context.Context, reqs []Request, parallelism int) ([]*Result, error) {
	results := make([]*Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, req := range reqs {
		g.Go(func() error {
			res, err := s.Run(gctx, req)
			if err != nil {
				return fmt.Errorf("run %d (%s %s): %w", i, req.Symbol, req.Strategy, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Simulator) timed(stage string, fn func()) {
	start := time.Now()
	fn()
	s.telemetry.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func errorLabel(err error) string {
	var (
		cfgErr   *domain.ConfigurationError
		inputErr *domain.InvalidInputError
		dataErr  *domain.InsufficientDataError
	)
	switch {
	case errors.As(err, &cfgErr):
		return "configuration_error"
	case errors.As(err, &inputErr):
		return "invalid_input"
	case errors.As(err, &dataErr):
		return "insufficient_data"
	}
	return "error"
}
