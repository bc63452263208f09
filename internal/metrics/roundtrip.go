package metrics

import (
	"time"

	"strategy-sim-go/internal/domain"
)

// RoundTrip is one BUY through its closing SELL, including any partial exits.
type RoundTrip struct {
	EntryDate time.Time
	ExitDate  time.Time
	EntryCost float64
	// PnL is realised profit before fees.
	PnL  float64
	Fees float64
}

// PnLPct is realised profit relative to the entry cost.
func (rt RoundTrip) PnLPct() float64 {
	if rt.EntryCost == 0 {
		return 0
	}
	return rt.PnL / rt.EntryCost * 100
}

// HoldingDays counts calendar days from entry to exit.
func (rt RoundTrip) HoldingDays() int {
	return int(rt.ExitDate.Sub(rt.EntryDate).Hours() / 24)
}

// RoundTrips pairs trades into completed round trips. Exits without an entry and an
// entry that is never closed are ignored.
func RoundTrips(trades []domain.Trade) []RoundTrip {
	var (
		trips []RoundTrip
		open  *RoundTrip
	)
	for _, t := range trades {
		switch t.Action {
		case domain.ActionBuy:
			open = &RoundTrip{
				EntryDate: t.Date,
				EntryCost: t.Size * t.Price,
				Fees:      t.Fee,
			}
		case domain.ActionPartialSell, domain.ActionSell:
			if open == nil {
				continue
			}
			open.PnL += t.Size * (t.Price - t.EntryPrice)
			open.Fees += t.Fee
			if t.Action == domain.ActionSell {
				open.ExitDate = t.Date
				trips = append(trips, *open)
				open = nil
			}
		}
	}
	return trips
}
