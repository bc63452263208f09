package domain

import (
	"fmt"
	"strings"
	"time"
)

// Bar is a single OHLCV observation for one symbol.
type Bar struct {
	Date   time.Time `json:"date" yaml:"date"`
	Open   float64   `json:"open" yaml:"open"`
	High   float64   `json:"high" yaml:"high"`
	Low    float64   `json:"low" yaml:"low"`
	Close  float64   `json:"close" yaml:"close"`
	Volume float64   `json:"volume" yaml:"volume"`
}

// RiskTolerance selects the parameter set a strategy runs with.
type RiskTolerance string

const (
	RiskHigh     RiskTolerance = "High"
	RiskModerate RiskTolerance = "Moderate"
	RiskLow      RiskTolerance = "Low"
)

// ParseRiskTolerance accepts the canonical names case-insensitively.
func ParseRiskTolerance(s string) (RiskTolerance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return RiskHigh, nil
	case "moderate":
		return RiskModerate, nil
	case "low":
		return RiskLow, nil
	}
	return "", &ConfigurationError{Field: "risk_tolerance", Reason: fmt.Sprintf("%q is not one of High, Moderate, Low", s)}
}

// StrategyName identifies one of the strategy variants.
type StrategyName string

const (
	MovingAverageCrossover StrategyName = "MovingAverageCrossover"
	Momentum               StrategyName = "Momentum"
	MeanReversion          StrategyName = "MeanReversion"
	Breakout               StrategyName = "Breakout"
)

// StrategyNames lists every supported variant in a stable order.
var StrategyNames = []StrategyName{MovingAverageCrossover, Momentum, MeanReversion, Breakout}

// ParseStrategyName accepts full names and the short selectors MAC, MT, MR.
func ParseStrategyName(s string) (StrategyName, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movingaveragecrossover", "mac":
		return MovingAverageCrossover, nil
	case "momentum", "mt":
		return Momentum, nil
	case "meanreversion", "mr":
		return MeanReversion, nil
	case "breakout":
		return Breakout, nil
	}
	return "", &ConfigurationError{Field: "strategy", Reason: fmt.Sprintf("unknown strategy selector %q", s)}
}

// YearMonth keys calendar-month counters.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the calendar month t falls in.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// String renders the key as YYYY-MM.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}
