package models

import (
	"time"

	"gorm.io/gorm"
)

// TradeRecord is one simulated trade belonging to a run.
type TradeRecord struct {
	gorm.Model
	RunID            string    `gorm:"index;not null" json:"run_id"`
	Seq              int       `json:"seq"`
	Action           string    `json:"action"` // "BUY", "SELL" or "PARTIAL_SELL"
	Date             time.Time `json:"date"`
	Price            float64   `json:"price"`
	Size             float64   `json:"size"`
	Fee              float64   `json:"fee"`
	EntryPrice       float64   `json:"entry_price"`
	CapitalRemaining float64   `json:"capital_remaining"`
	ProfitPct        float64   `json:"profit_pct"`
	Reasons          string    `gorm:"type:text" json:"reasons"` // JSON encoded
}
