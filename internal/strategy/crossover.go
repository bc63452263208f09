package strategy

import (
	"fmt"
	"math"

	"strategy-sim-go/internal/domain"
	"strategy-sim-go/internal/indicators"
	"strategy-sim-go/internal/numeric"
)

const crossoverConfirmations = 4

type movingAverageCrossover struct {
	base
	profile crossoverProfile
}

func (s *movingAverageCrossover) Name() domain.StrategyName {
	return domain.MovingAverageCrossover
}

func (s *movingAverageCrossover) MinBars() int { return 60 }

func (s *movingAverageCrossover) WarmupIndex() int { return 10 }

func (s *movingAverageCrossover) Indicators() indicators.Params {
	return indicators.DefaultParams()
}

func (s *movingAverageCrossover) Step(state State, bar indicators.Bar) (State, *domain.Trade) {
	if state.Book.Open() {
		return s.exit(state, bar)
	}
	return s.entry(state, bar)
}

func (s *movingAverageCrossover) entry(state State, bar indicators.Bar) (State, *domain.Trade) {
	crossover := bar.ShortMA > bar.LongMA && bar.PrevShortMA <= bar.PrevLongMA
	if !crossover || state.MonthlyTrades >= s.profile.MaxMonthlyTrades {
		return state, nil
	}

	pullbackLevel := bar.SwingHigh - 2*bar.ATR
	pullback := bar.Close < pullbackLevel || bar.Close < 0.99*bar.SwingHigh

	confirmations := []struct {
		label string
		ok    bool
	}{
		{"Trend", bar.Close > bar.LongMA},
		{"Trend Strength", bar.RecentCloseMean > bar.PriorCloseMean},
		{"Volume Or Oversold", bar.VolumeRatio > 1 || bar.RSI < 40},
		{"Pullback Or Deep Oversold", pullback || bar.RSI < 35},
		{"RSI In Range", bar.RSI >= 30 && bar.RSI <= 65},
	}
	triggers := []string{"MA Crossover"}
	for _, c := range confirmations {
		if c.ok {
			triggers = append(triggers, c.label)
		}
	}
	met := len(triggers) - 1
	if met < crossoverConfirmations {
		return state, nil
	}

	allocated := state.Book.Capital * s.profile.Allocation
	next, trade := state.buy(bar, allocated/bar.Close, domain.Reasons{
		Rule:     "MA Crossover with Enhanced Filters",
		Triggers: triggers,
		Values: map[string]float64{
			"short_ma":       bar.ShortMA,
			"long_ma":        bar.LongMA,
			"volume_ratio":   numeric.Round(bar.VolumeRatio, 2),
			"rsi":            numeric.Round(bar.RSI, 2),
			"conditions_met": float64(met),
			"risk_allocated": numeric.Round(allocated, 2),
		},
	})
	if trade != nil {
		next.MonthlyTrades++
	}
	return next, trade
}

func (s *movingAverageCrossover) exit(state State, bar indicators.Bar) (State, *domain.Trade) {
	pos := state.Book.Position
	hardStop := pos.EntryPrice * (1 - s.profile.StopLoss)
	trailingStop := pos.HighestPrice * (1 - s.profile.TrailingStop)
	atrStop := bar.Close - 2*bar.ATR
	dynamicStop := math.Max(hardStop, math.Max(trailingStop, atrStop))

	var triggers []string
	if bar.Close <= dynamicStop {
		if bar.Close <= hardStop {
			triggers = append(triggers, fmt.Sprintf("Hard Stop (%s%%)", pct(s.profile.StopLoss)))
		}
		if bar.Close <= trailingStop {
			triggers = append(triggers, fmt.Sprintf("Trailing Stop (%s%%)", pct(s.profile.TrailingStop)))
		}
		if bar.Close <= atrStop {
			triggers = append(triggers, fmt.Sprintf("ATR Stop (2x ATR: %g)", numeric.Round(2*bar.ATR, 2)))
		}
	}
	if pos.DaysHeld >= s.profile.MinHoldingDays && bar.Close < bar.LongMA {
		triggers = append(triggers, fmt.Sprintf("Holding Period (%dd) & Below MA", pos.DaysHeld))
	}
	if len(triggers) == 0 {
		return state, nil
	}

	return state.sell(bar, domain.Reasons{
		Rule:     "Stop or Trend Exit",
		Triggers: triggers,
		Values: map[string]float64{
			"days_held":    float64(pos.DaysHeld),
			"max_price":    numeric.Round(pos.HighestPrice, 2),
			"atr":          numeric.Round(bar.ATR, 2),
			"dynamic_stop": numeric.Round(dynamicStop, 2),
		},
	})
}
