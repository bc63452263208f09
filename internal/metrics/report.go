// Package metrics turns a trade ledger into a performance report.
package metrics

// Report groups the six metric categories.
type Report struct {
	Returns         Returns         `json:"returns" yaml:"returns"`
	Risk            Risk            `json:"risk" yaml:"risk"`
	TradeAnalysis   TradeAnalysis   `json:"trade_analysis" yaml:"trade_analysis"`
	TimeAnalysis    TimeAnalysis    `json:"time_analysis" yaml:"time_analysis"`
	MoneyManagement MoneyManagement `json:"money_management" yaml:"money_management"`
	Simulations     Simulations     `json:"simulations" yaml:"simulations"`
}

// Returns are computed from per-round-trip percentage returns, not daily returns,
// with no risk-free rate.
type Returns struct {
	TotalReturnPct          float64 `json:"total_return_pct" yaml:"total_return_pct"`
	CAGRPct                 float64 `json:"cagr_pct" yaml:"cagr_pct"`
	SharpeRatio             float64 `json:"sharpe_ratio" yaml:"sharpe_ratio"`
	SortinoRatio            float64 `json:"sortino_ratio" yaml:"sortino_ratio"`
	BestMonthPct            float64 `json:"best_month_pct" yaml:"best_month_pct"`
	WorstMonthPct           float64 `json:"worst_month_pct" yaml:"worst_month_pct"`
	AnnualizedVolatilityPct float64 `json:"annualized_volatility_pct" yaml:"annualized_volatility_pct"`
}

type Risk struct {
	MaxDrawdownPct float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`
	AvgDrawdownPct float64 `json:"avg_drawdown_pct" yaml:"avg_drawdown_pct"`
	UlcerIndex     float64 `json:"ulcer_index" yaml:"ulcer_index"`
	VaR95Pct       float64 `json:"var_95_pct" yaml:"var_95_pct"`
	CVaR95Pct      float64 `json:"cvar_95_pct" yaml:"cvar_95_pct"`
}

type TradeAnalysis struct {
	WinRatePct      float64 `json:"win_rate_pct" yaml:"win_rate_pct"`
	ProfitFactor    float64 `json:"profit_factor" yaml:"profit_factor"`
	ExpectancyPct   float64 `json:"expectancy_pct" yaml:"expectancy_pct"`
	AvgWinPct       float64 `json:"avg_win_pct" yaml:"avg_win_pct"`
	AvgLossPct      float64 `json:"avg_loss_pct" yaml:"avg_loss_pct"`
	MaxWinPct       float64 `json:"max_win_pct" yaml:"max_win_pct"`
	MaxLossPct      float64 `json:"max_loss_pct" yaml:"max_loss_pct"`
	RiskRewardRatio float64 `json:"risk_reward_ratio" yaml:"risk_reward_ratio"`
}

type TimeAnalysis struct {
	AvgHoldingDays    float64 `json:"avg_holding_days" yaml:"avg_holding_days"`
	MedianHoldingDays float64 `json:"median_holding_days" yaml:"median_holding_days"`
	MaxHoldingDays    int     `json:"max_holding_days" yaml:"max_holding_days"`
	TradesPerYear     float64 `json:"trades_per_year" yaml:"trades_per_year"`
	BestYearPct       float64 `json:"best_year_pct" yaml:"best_year_pct"`
	WorstYearPct      float64 `json:"worst_year_pct" yaml:"worst_year_pct"`
}

type MoneyManagement struct {
	KellyCriterionPct    float64 `json:"kelly_criterion_pct" yaml:"kelly_criterion_pct"`
	OptimalFPct          float64 `json:"optimal_f_pct" yaml:"optimal_f_pct"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses" yaml:"max_consecutive_losses"`
	AvgPositionSizePct   float64 `json:"avg_position_size_pct" yaml:"avg_position_size_pct"`
}

type Simulations struct {
	MonteCarloPositivePct float64 `json:"monte_carlo_positive_pct" yaml:"monte_carlo_positive_pct"`
	BestSimulationPct     float64 `json:"best_simulation_pct" yaml:"best_simulation_pct"`
	WorstSimulationPct    float64 `json:"worst_simulation_pct" yaml:"worst_simulation_pct"`
}
