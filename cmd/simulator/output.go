package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"strategy-sim-go/internal/simulation"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	gainColor   = color.New(color.FgGreen)
	lossColor   = color.New(color.FgRed)
	dimColor    = color.New(color.Faint)
)

func writeResults(w io.Writer, format string, results []*simulation.Result, showTrades bool) error {
	var payload interface{} = results
	if len(results) == 1 {
		payload = results[0]
	}

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "summary", "":
		for i, res := range results {
			if i > 0 {
				fmt.Fprintln(w)
			}
			writeSummary(w, res, showTrades)
		}
		return nil
	}
	return fmt.Errorf("unknown output format %q: use summary, json or yaml", format)
}

func signed(v float64, format string) string {
	s := fmt.Sprintf(format, v)
	switch {
	case v > 0:
		return gainColor.Sprint(s)
	case v < 0:
		return lossColor.Sprint(s)
	}
	return s
}

func writeSummary(w io.Writer, res *simulation.Result, showTrades bool) {
	m := res.Report
	headerColor.Fprintf(w, "%s  %s (%s)\n", res.Symbol, res.Strategy, res.RiskTolerance)
	dimColor.Fprintf(w, "run %s, %d bars, %d trades\n", res.RunID, res.Bars, len(res.Trades))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Capital\t%.2f -> %.2f\n", res.InitialCapital, res.FinalCapital)
	fmt.Fprintf(tw, "Total return\t%s\n", signed(m.Returns.TotalReturnPct, "%.2f%%"))
	fmt.Fprintf(tw, "CAGR\t%s\n", signed(m.Returns.CAGRPct, "%.2f%%"))
	fmt.Fprintf(tw, "Sharpe / Sortino\t%.2f / %.2f\n", m.Returns.SharpeRatio, m.Returns.SortinoRatio)
	fmt.Fprintf(tw, "Best / worst month\t%s / %s\n", signed(m.Returns.BestMonthPct, "%.2f%%"), signed(m.Returns.WorstMonthPct, "%.2f%%"))
	fmt.Fprintf(tw, "Max drawdown\t%.2f%%\n", m.Risk.MaxDrawdownPct)
	fmt.Fprintf(tw, "VaR / CVaR (95%%)\t%s / %s\n", signed(m.Risk.VaR95Pct, "%.2f%%"), signed(m.Risk.CVaR95Pct, "%.2f%%"))
	fmt.Fprintf(tw, "Win rate\t%.2f%%\n", m.TradeAnalysis.WinRatePct)
	fmt.Fprintf(tw, "Profit factor\t%.2f\n", m.TradeAnalysis.ProfitFactor)
	fmt.Fprintf(tw, "Expectancy\t%s\n", signed(m.TradeAnalysis.ExpectancyPct, "%.2f%%"))
	fmt.Fprintf(tw, "Avg holding\t%.1f days\n", m.TimeAnalysis.AvgHoldingDays)
	fmt.Fprintf(tw, "Kelly\t%.2f%%\n", m.MoneyManagement.KellyCriterionPct)
	fmt.Fprintf(tw, "Monte Carlo positive\t%.2f%% (best %s, worst %s)\n",
		m.Simulations.MonteCarloPositivePct,
		signed(m.Simulations.BestSimulationPct, "%.2f%%"),
		signed(m.Simulations.WorstSimulationPct, "%.2f%%"))
	_ = tw.Flush()

	if !showTrades || len(res.Trades) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tACTION\tPRICE\tSIZE\tPROFIT\tRULE")
	for _, t := range res.Trades {
		profit := ""
		if t.IsExit() {
			profit = signed(t.ProfitPct, "%.2f%%")
		}
		rule := t.Reasons.Rule
		if len(t.Reasons.Triggers) > 0 {
			rule += ": " + strings.Join(t.Reasons.Triggers, ", ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.4f\t%s\t%s\n", t.Date.Format("2006-01-02"), t.Action, t.Price, t.Size, profit, rule)
	}
	_ = tw.Flush()
}
