package models

import "gorm.io/gorm"

// SimulationRun stores the summary and full report of a run.
type SimulationRun struct {
	gorm.Model
	RunID          string  `gorm:"uniqueIndex;not null" json:"run_id"`
	UserID         string  `gorm:"index" json:"user_id"`
	Symbol         string  `gorm:"index" json:"symbol"`
	Strategy       string  `json:"strategy"`
	RiskTolerance  string  `json:"risk_tolerance"`
	InitialCapital float64 `json:"initial_capital"`
	FinalCapital   float64 `json:"final_capital"`
	TotalReturnPct float64 `json:"total_return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	WinRatePct     float64 `json:"win_rate_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	BarCount       int     `json:"bar_count"`
	TradeCount     int     `json:"trade_count"`
	Report         string  `gorm:"type:text" json:"-"` // JSON encoded metrics report

	Trades []TradeRecord `gorm:"foreignKey:RunID;references:RunID" json:"trades,omitempty"`
}
