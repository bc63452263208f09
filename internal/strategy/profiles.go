package strategy

import "strategy-sim-go/internal/domain"

type crossoverProfile struct {
	Allocation       float64
	StopLoss         float64
	TrailingStop     float64
	MaxMonthlyTrades int
	MinHoldingDays   int
}

type momentumProfile struct {
	Allocation     float64
	InitialStop    float64
	TrailingStop   float64
	TakeProfit1    float64
	TakeProfit2    float64
	MaxMonthlyLoss float64
}

type meanReversionProfile struct {
	Allocation float64
	BandStd    float64
	RSILow     float64
	RSIHigh    float64
	StopLoss   float64
	TakeProfit float64
}

type breakoutProfile struct {
	Allocation    float64
	Lookback      int
	ATRMultiplier float64
	ProfitTarget  float64
}

var crossoverProfiles = map[domain.RiskTolerance]crossoverProfile{
	domain.RiskHigh:     {Allocation: 0.8, StopLoss: 0.06, TrailingStop: 0.04, MaxMonthlyTrades: 3, MinHoldingDays: 5},
	domain.RiskModerate: {Allocation: 0.5, StopLoss: 0.05, TrailingStop: 0.04, MaxMonthlyTrades: 3, MinHoldingDays: 7},
	domain.RiskLow:      {Allocation: 0.3, StopLoss: 0.04, TrailingStop: 0.03, MaxMonthlyTrades: 2, MinHoldingDays: 10},
}

var momentumProfiles = map[domain.RiskTolerance]momentumProfile{
	domain.RiskHigh:     {Allocation: 0.8, InitialStop: 0.05, TrailingStop: 0.03, TakeProfit1: 0.10, TakeProfit2: 0.15, MaxMonthlyLoss: 0.15},
	domain.RiskModerate: {Allocation: 0.5, InitialStop: 0.04, TrailingStop: 0.02, TakeProfit1: 0.08, TakeProfit2: 0.12, MaxMonthlyLoss: 0.10},
	domain.RiskLow:      {Allocation: 0.3, InitialStop: 0.03, TrailingStop: 0.015, TakeProfit1: 0.06, TakeProfit2: 0.09, MaxMonthlyLoss: 0.07},
}

var meanReversionProfiles = map[domain.RiskTolerance]meanReversionProfile{
	domain.RiskHigh:     {Allocation: 0.8, BandStd: 2.5, RSILow: 25, RSIHigh: 75, StopLoss: 0.05, TakeProfit: 0.08},
	domain.RiskModerate: {Allocation: 0.5, BandStd: 2.0, RSILow: 30, RSIHigh: 70, StopLoss: 0.04, TakeProfit: 0.06},
	domain.RiskLow:      {Allocation: 0.3, BandStd: 1.5, RSILow: 35, RSIHigh: 65, StopLoss: 0.03, TakeProfit: 0.04},
}

var breakoutProfiles = map[domain.RiskTolerance]breakoutProfile{
	domain.RiskHigh:     {Allocation: 0.8, Lookback: 20, ATRMultiplier: 3, ProfitTarget: 2.5},
	domain.RiskModerate: {Allocation: 0.5, Lookback: 30, ATRMultiplier: 2.5, ProfitTarget: 2.0},
	domain.RiskLow:      {Allocation: 0.3, Lookback: 40, ATRMultiplier: 2, ProfitTarget: 1.5},
}
