package strategy

import (
	"strategy-sim-go/internal/domain"
	"strategy-sim-go/internal/indicators"
	"strategy-sim-go/internal/numeric"
)

// Result is the output of a replay.
type Result struct {
	Trades       []domain.Trade
	Curve        []domain.CapitalCurvePoint
	FinalCapital float64
}

// Replay folds s over bars in order, starting at the strategy's warm-up index.
// A position still open after the last bar is closed at its close price.
func Replay(s Strategy, bars []indicators.Bar, initialCapital float64) Result {
	state := s.Init(initialCapital)
	res := Result{Trades: []domain.Trade{}, Curve: []domain.CapitalCurvePoint{}}

	record := func(t *domain.Trade) {
		if t == nil {
			return
		}
		res.Trades = append(res.Trades, *t)
		res.Curve = append(res.Curve, state.Book.CurvePoint(*t))
	}

	for i := s.WarmupIndex(); i < len(bars); i++ {
		bar := bars[i]
		state = state.rollMonth(domain.YearMonthOf(bar.Date))
		state.Book = state.Book.Mark(bar.Close)

		var trade *domain.Trade
		state, trade = s.Step(state, bar)
		record(trade)

		state.Book = state.Book.Age()
	}

	if state.Book.Open() && len(bars) > 0 {
		last := bars[len(bars)-1]
		pos := state.Book.Position
		var trade *domain.Trade
		state, trade = state.sell(last, domain.Reasons{
			Rule:     "Forced Close",
			Triggers: []string{domain.TriggerEndOfPeriod},
			Values: map[string]float64{
				"days_held": float64(pos.DaysHeld),
				"max_price": numeric.Round(pos.HighestPrice, 2),
			},
		})
		record(trade)
	}

	res.FinalCapital = state.Book.Capital
	return res
}
