package domain

import "time"

// Action is the kind of ledger event a trade records.
type Action string

const (
	ActionBuy         Action = "BUY"
	ActionSell        Action = "SELL"
	ActionPartialSell Action = "PARTIAL_SELL"
)

// TriggerEndOfPeriod tags the forced close at the end of the series.
const TriggerEndOfPeriod = "End of Period"

// Reasons explains which rules produced a trade. It is informational only.
type Reasons struct {
	Rule     string             `json:"rule" yaml:"rule"`
	Triggers []string           `json:"triggers,omitempty" yaml:"triggers,omitempty"`
	Values   map[string]float64 `json:"values,omitempty" yaml:"values,omitempty"`
}

// Has reports whether trigger is among the recorded triggers.
func (r Reasons) Has(trigger string) bool {
	for _, t := range r.Triggers {
		if t == trigger {
			return true
		}
	}
	return false
}

// Trade is an immutable ledger record.
type Trade struct {
	Action           Action    `json:"action" yaml:"action"`
	Date             time.Time `json:"date" yaml:"date"`
	Price            float64   `json:"price" yaml:"price"`
	Size             float64   `json:"size" yaml:"size"`
	Fee              float64   `json:"fee" yaml:"fee"`
	EntryPrice       float64   `json:"entry_price" yaml:"entry_price"`
	CapitalRemaining float64   `json:"capital_remaining" yaml:"capital_remaining"`
	// ProfitPct is only set on SELL and PARTIAL_SELL.
	ProfitPct float64 `json:"profit_pct" yaml:"profit_pct"`
	Reasons   Reasons `json:"reasons" yaml:"reasons"`
}

// IsExit reports whether the trade reduces a position.
func (t Trade) IsExit() bool {
	return t.Action == ActionSell || t.Action == ActionPartialSell
}

// CapitalCurvePoint is the account equity observed at a trade.
type CapitalCurvePoint struct {
	Date    time.Time `json:"date" yaml:"date"`
	Capital float64   `json:"capital" yaml:"capital"`
}
