package metrics

import (
	"math"
	"runtime"

	"gonum.org/v1/gonum/floats"

	"strategy-sim-go/internal/domain"
	"strategy-sim-go/internal/numeric"
)

const (
	DefaultSeed = 42
	DefaultRuns = 1000

	tradingDaysPerYear = 252
)

type options struct {
	seed    uint64
	runs    int
	workers int
}

// Option tunes the Monte Carlo step.
type Option func(*options)

func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

func WithRuns(runs int) Option {
	return func(o *options) {
		if runs > 0 {
			o.runs = runs
		}
	}
}

// WithWorkers bounds Monte Carlo concurrency. Results do not depend on it.
func WithWorkers(workers int) Option {
	return func(o *options) {
		if workers > 0 {
			o.workers = workers
		}
	}
}

// Compute builds the report for a run. It never fails: empty inputs and degenerate
// statistics resolve to zero.
func Compute(initialCapital, finalCapital float64, trades []domain.Trade, opts ...Option) Report {
	o := options{seed: DefaultSeed, runs: DefaultRuns, workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}

	var report Report
	if len(trades) == 0 || initialCapital <= 0 {
		return report
	}

	trips := RoundTrips(trades)
	returns := make([]float64, len(trips))
	var wins, losses, holding []float64
	monthly := map[domain.YearMonth]float64{}
	yearly := map[int]float64{}

	equity, peak := initialCapital, initialCapital
	var drawdowns []float64
	streak, maxStreak := 0, 0
	totalHolding := 0

	for i, rt := range trips {
		r := rt.PnLPct()
		returns[i] = r
		if r > 0 {
			wins = append(wins, r)
			streak = 0
		} else {
			losses = append(losses, r)
			streak++
			maxStreak = max(maxStreak, streak)
		}

		days := rt.HoldingDays()
		holding = append(holding, float64(days))
		totalHolding += days

		monthly[domain.YearMonthOf(rt.ExitDate)] += r
		yearly[rt.ExitDate.Year()] += rt.PnL

		equity += rt.PnL - rt.Fees
		peak = math.Max(peak, equity)
		dd := 0.0
		if peak > 0 {
			dd = (peak - equity) / peak * 100
		}
		drawdowns = append(drawdowns, math.Min(math.Max(dd, 0), 100))
	}

	report.Returns = computeReturns(initialCapital, finalCapital, returns, losses, monthly, totalHolding)
	report.Risk = computeRisk(drawdowns)
	report.TradeAnalysis = computeTradeAnalysis(returns, wins, losses)
	report.TimeAnalysis = computeTimeAnalysis(initialCapital, holding, yearly, len(trips))
	report.MoneyManagement = computeMoneyManagement(initialCapital, trades, wins, losses, maxStreak)

	mc := Resample(returns, o.runs, o.seed, o.workers)
	report.Risk.VaR95Pct = numeric.Round(mc.VaR()*100, 2)
	report.Risk.CVaR95Pct = numeric.Round(mc.CVaR()*100, 2)
	report.Simulations = Simulations{
		MonteCarloPositivePct: numeric.Round(mc.PositiveShare()*100, 2),
		BestSimulationPct:     numeric.Round(mc.Best()*100, 2),
		WorstSimulationPct:    numeric.Round(mc.Worst()*100, 2),
	}
	return report
}

func computeReturns(initial, final float64, returns, losses []float64, monthly map[domain.YearMonth]float64, holdingDays int) Returns {
	days := float64(holdingDays)
	if days == 0 {
		days = 1
	}
	cagr := (math.Pow(final/initial, 365.25/days) - 1) * 100

	var sharpe, sortino float64
	if len(returns) > 1 {
		if std := numeric.PopStd(returns); std > 0 {
			sharpe = numeric.Mean(returns) / std
		}
	}
	if len(losses) > 0 {
		if std := numeric.PopStd(losses); std > 0 {
			sortino = numeric.Mean(returns) / std
		}
	}

	var best, worst float64
	first := true
	for _, v := range monthly {
		if first {
			best, worst = v, v
			first = false
			continue
		}
		best = math.Max(best, v)
		worst = math.Min(worst, v)
	}

	return Returns{
		TotalReturnPct:          numeric.Round((final-initial)/initial*100, 2),
		CAGRPct:                 numeric.Round(cagr, 2),
		SharpeRatio:             numeric.Round(sharpe, 2),
		SortinoRatio:            numeric.Round(sortino, 2),
		BestMonthPct:            numeric.Round(best, 2),
		WorstMonthPct:           numeric.Round(worst, 2),
		AnnualizedVolatilityPct: numeric.Round(numeric.PopStd(returns)*math.Sqrt(tradingDaysPerYear), 2),
	}
}

func computeRisk(drawdowns []float64) Risk {
	if len(drawdowns) == 0 {
		return Risk{}
	}
	maxDD := 0.0
	squares := make([]float64, len(drawdowns))
	for i, dd := range drawdowns {
		maxDD = math.Max(maxDD, dd)
		squares[i] = dd * dd
	}
	return Risk{
		MaxDrawdownPct: numeric.Round(maxDD, 2),
		AvgDrawdownPct: numeric.Round(numeric.Mean(drawdowns), 2),
		UlcerIndex:     numeric.Round(math.Sqrt(numeric.Mean(squares)), 2),
	}
}

func computeTradeAnalysis(returns, wins, losses []float64) TradeAnalysis {
	if len(returns) == 0 {
		return TradeAnalysis{}
	}
	winRate := float64(len(wins)) / float64(len(returns))

	var profitFactor, riskReward float64
	if len(losses) > 0 {
		profitFactor = numeric.Finite(math.Abs(floats.Sum(wins) / floats.Sum(losses)))
		if len(wins) > 0 {
			riskReward = numeric.Finite(math.Abs(numeric.Mean(wins) / numeric.Mean(losses)))
		}
	}

	ta := TradeAnalysis{
		WinRatePct:      numeric.Round(winRate*100, 2),
		ProfitFactor:    numeric.Round(profitFactor, 2),
		ExpectancyPct:   numeric.Round(numeric.Mean(wins)*winRate+numeric.Mean(losses)*(1-winRate), 2),
		AvgWinPct:       numeric.Round(numeric.Mean(wins), 2),
		AvgLossPct:      numeric.Round(numeric.Mean(losses), 2),
		RiskRewardRatio: numeric.Round(riskReward, 2),
	}
	if len(wins) > 0 {
		ta.MaxWinPct = numeric.Round(floats.Max(wins), 2)
	}
	if len(losses) > 0 {
		ta.MaxLossPct = numeric.Round(floats.Min(losses), 2)
	}
	return ta
}

func computeTimeAnalysis(initial float64, holding []float64, yearly map[int]float64, trips int) TimeAnalysis {
	if trips == 0 {
		return TimeAnalysis{}
	}
	ta := TimeAnalysis{
		AvgHoldingDays:    numeric.Round(numeric.Mean(holding), 1),
		MedianHoldingDays: numeric.Round(numeric.Median(holding), 1),
		MaxHoldingDays:    int(floats.Max(holding)),
		TradesPerYear:     numeric.Round(float64(trips)/float64(len(yearly)), 1),
	}
	first := true
	for _, pnl := range yearly {
		v := pnl / initial * 100
		if first {
			ta.BestYearPct, ta.WorstYearPct = v, v
			first = false
			continue
		}
		ta.BestYearPct = math.Max(ta.BestYearPct, v)
		ta.WorstYearPct = math.Min(ta.WorstYearPct, v)
	}
	ta.BestYearPct = numeric.Round(ta.BestYearPct, 2)
	ta.WorstYearPct = numeric.Round(ta.WorstYearPct, 2)
	return ta
}

func computeMoneyManagement(initial float64, trades []domain.Trade, wins, losses []float64, maxStreak int) MoneyManagement {
	mm := MoneyManagement{MaxConsecutiveLosses: maxStreak}

	if len(wins) > 0 && len(losses) > 0 {
		winRate := float64(len(wins)) / float64(len(wins)+len(losses))
		ratio := math.Abs(numeric.Mean(wins) / numeric.Mean(losses))
		kelly := winRate - (1-winRate)/ratio
		// Literal formula: |mean(wins) / |mean(losses)|| * p - (1 - p).
		optimalF := math.Abs(numeric.Mean(wins)/math.Abs(numeric.Mean(losses)))*winRate - (1 - winRate)
		mm.KellyCriterionPct = numeric.Round(kelly*100, 1)
		mm.OptimalFPct = numeric.Round(optimalF*100, 1)
	}

	var sizes []float64
	for _, t := range trades {
		if t.Action == domain.ActionBuy {
			sizes = append(sizes, t.Size)
		}
	}
	mm.AvgPositionSizePct = numeric.Round(numeric.Mean(sizes)/initial*100, 1)
	return mm
}
