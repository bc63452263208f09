// Package strategy implements the rule-based strategies as pure per-bar step functions.
package strategy

import (
	"fmt"
	"math"

	"strategy-sim-go/internal/domain"
	"strategy-sim-go/internal/indicators"
	"strategy-sim-go/internal/ledger"
)

// Exit trigger labels shared by the variants.
const (
	TriggerTrailingStop     = "Trailing Stop"
	TriggerTakeProfit       = "Take Profit"
	TriggerStopLoss         = "Stop Loss"
	TriggerMomentumReversal = "Momentum Reversal"
	TriggerChannelBreak     = "Channel Break"
	TriggerUpperBand        = "Above Upper Band"
	TriggerOverbought       = "RSI Overbought"
)

// Strategy defines the interface for a trading strategy.
type Strategy interface {
	// Name returns the name of the strategy.
	Name() domain.StrategyName
	// MinBars is the shortest series the strategy accepts.
	MinBars() int
	// WarmupIndex is the first bar signals are evaluated on.
	WarmupIndex() int
	// Indicators returns the pipeline windows the strategy reads.
	Indicators() indicators.Params
	// Init returns the flat starting state.
	Init(initialCapital float64) State
	// Step evaluates one bar. It returns the next state and the trade, if any.
	Step(state State, bar indicators.Bar) (State, *domain.Trade)
}

// State is everything a strategy carries from one bar to the next.
type State struct {
	Book ledger.Book

	// TrailingStop is only used by strategies that ratchet a stop.
	TrailingStop float64

	Month          domain.YearMonth
	MonthlyTrades  int
	MonthlyLossPct float64
}

// rollMonth resets the calendar-month counters when bar falls in a new month.
func (s State) rollMonth(ym domain.YearMonth) State {
	if s.Month != ym {
		s.Month = ym
		s.MonthlyTrades = 0
		s.MonthlyLossPct = 0
	}
	return s
}

func (s State) buy(bar indicators.Bar, size float64, reasons domain.Reasons) (State, *domain.Trade) {
	book, trade, ok := s.Book.Buy(bar.Date, bar.Close, size, reasons)
	if !ok {
		return s, nil
	}
	s.Book = book
	return s, &trade
}

func (s State) sell(bar indicators.Bar, reasons domain.Reasons) (State, *domain.Trade) {
	book, trade, ok := s.Book.Sell(bar.Date, bar.Close, reasons)
	if !ok {
		return s, nil
	}
	s.Book = book
	s.TrailingStop = 0
	return s, &trade
}

func (s State) partialSell(bar indicators.Bar, reasons domain.Reasons) (State, *domain.Trade) {
	book, trade, ok := s.Book.PartialSell(bar.Date, bar.Close, reasons)
	if !ok {
		return s, nil
	}
	s.Book = book
	return s, &trade
}

// New builds the named strategy for a risk tolerance and fee rate.
func New(name domain.StrategyName, tolerance domain.RiskTolerance, feePct float64) (Strategy, error) {
	if math.IsNaN(feePct) || feePct < 0 || feePct > 1 {
		return nil, &domain.ConfigurationError{Field: "fee_percentage", Reason: fmt.Sprintf("%v is outside [0, 1]", feePct)}
	}
	b := base{fee: feePct}

	switch name {
	case domain.MovingAverageCrossover:
		p, ok := crossoverProfiles[tolerance]
		if !ok {
			return nil, unknownTolerance(tolerance)
		}
		return &movingAverageCrossover{base: b, profile: p}, nil
	case domain.Momentum:
		p, ok := momentumProfiles[tolerance]
		if !ok {
			return nil, unknownTolerance(tolerance)
		}
		return &momentum{base: b, profile: p}, nil
	case domain.MeanReversion:
		p, ok := meanReversionProfiles[tolerance]
		if !ok {
			return nil, unknownTolerance(tolerance)
		}
		return &meanReversion{base: b, profile: p}, nil
	case domain.Breakout:
		p, ok := breakoutProfiles[tolerance]
		if !ok {
			return nil, unknownTolerance(tolerance)
		}
		return &breakout{base: b, profile: p}, nil
	}
	return nil, &domain.ConfigurationError{Field: "strategy", Reason: fmt.Sprintf("unknown strategy selector %q", name)}
}

func unknownTolerance(t domain.RiskTolerance) error {
	return &domain.ConfigurationError{Field: "risk_tolerance", Reason: fmt.Sprintf("%q is not one of High, Moderate, Low", t)}
}

type base struct {
	fee float64
}

func (b base) Init(initialCapital float64) State {
	return State{Book: ledger.NewBook(initialCapital, b.fee)}
}

// dampening shrinks allocations in volatile markets.
func dampening(volatility float64) float64 {
	return math.Max(0.3, math.Min(1, 1-volatility*10))
}

// pct renders a fraction as a percentage label, e.g. 0.06 -> "6".
func pct(fraction float64) string {
	return fmt.Sprintf("%g", math.Round(fraction*10000)/100)
}
