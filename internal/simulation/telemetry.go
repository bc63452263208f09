package simulation

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Telemetry holds the prometheus collectors for simulation runs.
type Telemetry struct {
	Runs          *prometheus.CounterVec
	Trades        *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
}

// NewTelemetry creates the collectors and registers them with reg. A nil reg leaves them unregistered.
func NewTelemetry(reg prometheus.Registerer) *Telemetry {
	t := &Telemetry{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simulator_runs_total",
				Help: "Total number of simulation runs by strategy and result",
			},
			[]string{"strategy", "result"},
		),
		Trades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simulator_trades_total",
				Help: "Total number of simulated trades by strategy and action",
			},
			[]string{"strategy", "action"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "simulator_stage_duration_seconds",
				Help:    "Duration of each simulation stage in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"stage"},
		),
	}
	if reg != nil {
		reg.MustRegister(t.Runs, t.Trades, t.StageDuration)
	}
	return t
}
