package strategy

import (
	"math"

	"strategy-sim-go/internal/domain"
	"strategy-sim-go/internal/indicators"
	"strategy-sim-go/internal/numeric"
)

type breakout struct {
	base
	profile breakoutProfile
}

func (s *breakout) Name() domain.StrategyName { return domain.Breakout }

func (s *breakout) MinBars() int { return max(55, s.profile.Lookback+1) }

func (s *breakout) WarmupIndex() int { return s.profile.Lookback }

// Indicators sizes the price channel to the profile's lookback.
func (s *breakout) Indicators() indicators.Params {
	p := indicators.DefaultParams()
	p.ChannelWindow = s.profile.Lookback
	return p
}

func (s *breakout) Step(state State, bar indicators.Bar) (State, *domain.Trade) {
	if !state.Book.Open() {
		surge := bar.VolumeMA + 2*bar.VolumeStd
		if bar.Close <= bar.ChannelHigh || bar.Volume <= surge {
			return state, nil
		}
		capital := state.Book.Capital
		size := math.Min(capital*s.profile.Allocation, capital) / bar.Close
		return state.buy(bar, size, domain.Reasons{
			Rule:     "Channel Breakout",
			Triggers: []string{"Above Channel High", "Volume Surge"},
			Values: map[string]float64{
				"channel_high": numeric.Round(bar.ChannelHigh, 2),
				"volume":       bar.Volume,
				"volume_surge": numeric.Round(surge, 2),
				"atr":          numeric.Round(bar.ATR, 2),
			},
		})
	}

	entry := state.Book.Position.EntryPrice
	risk := s.profile.ATRMultiplier * bar.ATR
	stop := entry - risk
	target := entry + s.profile.ProfitTarget*risk

	var triggers []string
	if bar.Close < bar.ChannelLow {
		triggers = append(triggers, TriggerChannelBreak)
	}
	if bar.Close <= stop {
		triggers = append(triggers, TriggerStopLoss)
	}
	if bar.Close >= target {
		triggers = append(triggers, TriggerTakeProfit)
	}
	if len(triggers) == 0 {
		return state, nil
	}
	return state.sell(bar, domain.Reasons{
		Rule:     "Channel Breakout Exit",
		Triggers: triggers,
		Values: map[string]float64{
			"channel_low": numeric.Round(bar.ChannelLow, 2),
			"stop":        numeric.Round(stop, 2),
			"target":      numeric.Round(target, 2),
		},
	})
}
