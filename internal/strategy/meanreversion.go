package strategy

import (
	"strategy-sim-go/internal/domain"
	"strategy-sim-go/internal/indicators"
	"strategy-sim-go/internal/numeric"
)

type meanReversion struct {
	base
	profile meanReversionProfile
}

func (s *meanReversion) Name() domain.StrategyName { return domain.MeanReversion }

func (s *meanReversion) MinBars() int { return 30 }

func (s *meanReversion) WarmupIndex() int { return 20 }

func (s *meanReversion) Indicators() indicators.Params {
	return indicators.DefaultParams()
}

func (s *meanReversion) bands(bar indicators.Bar) (lower, upper float64) {
	width := s.profile.BandStd * bar.BollingerStd
	return bar.BollingerMid - width, bar.BollingerMid + width
}

func (s *meanReversion) Step(state State, bar indicators.Bar) (State, *domain.Trade) {
	lower, upper := s.bands(bar)
	values := map[string]float64{
		"lower_band": numeric.Round(lower, 2),
		"upper_band": numeric.Round(upper, 2),
		"rsi":        numeric.Round(bar.RSI, 2),
	}

	if !state.Book.Open() {
		if bar.Close >= lower || bar.RSI >= s.profile.RSILow {
			return state, nil
		}
		factor := dampening(bar.Volatility)
		values["volatility_factor"] = numeric.Round(factor, 2)
		size := state.Book.Capital * s.profile.Allocation * factor / bar.Close
		return state.buy(bar, size, domain.Reasons{
			Rule:     "Bollinger Reversion Entry",
			Triggers: []string{"Below Lower Band", "RSI Oversold"},
			Values:   values,
		})
	}

	entry := state.Book.Position.EntryPrice
	var triggers []string
	if bar.Close > upper {
		triggers = append(triggers, TriggerUpperBand)
	}
	if bar.RSI > s.profile.RSIHigh {
		triggers = append(triggers, TriggerOverbought)
	}
	if bar.Close <= entry*(1-s.profile.StopLoss) {
		triggers = append(triggers, TriggerStopLoss)
	}
	if bar.Close >= entry*(1+s.profile.TakeProfit) {
		triggers = append(triggers, TriggerTakeProfit)
	}
	if len(triggers) == 0 {
		return state, nil
	}
	return state.sell(bar, domain.Reasons{Rule: "Bollinger Reversion Exit", Triggers: triggers, Values: values})
}
