package strategy

import (
	"fmt"
	"math"

	"strategy-sim-go/internal/domain"
	"strategy-sim-go/internal/indicators"
	"strategy-sim-go/internal/numeric"
)

type momentum struct {
	base
	profile momentumProfile
}

func (s *momentum) Name() domain.StrategyName { return domain.Momentum }

func (s *momentum) MinBars() int { return 21 }

func (s *momentum) WarmupIndex() int { return 20 }

func (s *momentum) Indicators() indicators.Params {
	return indicators.DefaultParams()
}

func (s *momentum) Step(state State, bar indicators.Bar) (State, *domain.Trade) {
	if !state.Book.Open() {
		return s.entry(state, bar)
	}

	pos := state.Book.Position
	if pos.HighestPrice > pos.EntryPrice {
		state.TrailingStop = math.Max(state.TrailingStop, pos.HighestPrice*(1-s.profile.TrailingStop))
	}

	values := map[string]float64{
		"roc":           numeric.Round(bar.ROC, 2),
		"roc_ma":        numeric.Round(bar.ROCMA, 2),
		"mfi":           numeric.Round(bar.MFI, 2),
		"rsi":           numeric.Round(bar.RSI, 2),
		"trailing_stop": numeric.Round(state.TrailingStop, 2),
	}

	if !pos.IsPartial && bar.Close >= pos.EntryPrice*(1+s.profile.TakeProfit1) {
		return state.partialSell(bar, domain.Reasons{
			Rule:     "Partial Profit",
			Triggers: []string{fmt.Sprintf("First Target (%s%%)", pct(s.profile.TakeProfit1))},
			Values:   values,
		})
	}

	var triggers []string
	if bar.ROC < -2 && bar.MFI > 70 && bar.RSI > 70 {
		triggers = append(triggers, TriggerMomentumReversal)
	}
	if bar.Close <= state.TrailingStop {
		triggers = append(triggers, TriggerTrailingStop)
	}
	if bar.Close >= pos.EntryPrice*(1+s.profile.TakeProfit2) {
		triggers = append(triggers, TriggerTakeProfit)
	}
	if len(triggers) == 0 {
		return state, nil
	}

	next, trade := state.sell(bar, domain.Reasons{Rule: "Momentum Exit", Triggers: triggers, Values: values})
	if trade != nil {
		if loss := (bar.Close - pos.EntryPrice) / pos.EntryPrice * 100; loss < 0 {
			next.MonthlyLossPct += loss
		}
	}
	return next, trade
}

func (s *momentum) entry(state State, bar indicators.Bar) (State, *domain.Trade) {
	if !(bar.ROC > 2 && bar.ROCMA > 0 && (bar.MFI < 40 || bar.RSI < 35)) {
		return state, nil
	}
	if state.MonthlyLossPct <= -s.profile.MaxMonthlyLoss*100 {
		return state, nil
	}

	factor := dampening(bar.Volatility)
	allocated := state.Book.Capital * s.profile.Allocation * factor
	next, trade := state.buy(bar, allocated/bar.Close, domain.Reasons{
		Rule:     "Momentum Entry",
		Triggers: []string{"ROC Above 2", "ROC MA Positive", "MFI Or RSI Oversold"},
		Values: map[string]float64{
			"roc":               numeric.Round(bar.ROC, 2),
			"roc_ma":            numeric.Round(bar.ROCMA, 2),
			"mfi":               numeric.Round(bar.MFI, 2),
			"rsi":               numeric.Round(bar.RSI, 2),
			"volatility":        numeric.Round(bar.Volatility, 4),
			"volatility_factor": numeric.Round(factor, 2),
		},
	})
	if trade != nil {
		next.TrailingStop = bar.Close * (1 - s.profile.InitialStop)
	}
	return next, trade
}
