package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"strategy-sim-go/internal/domain"
	"strategy-sim-go/internal/metrics"
	"strategy-sim-go/internal/simulation"
)

func TestSelectedStrategies(t *testing.T) {
	testCases := []struct {
		name     string
		flag     string
		fallback string
		want     []domain.StrategyName
		wantErr  bool
	}{
		{name: "Fallback", fallback: "Momentum", want: []domain.StrategyName{domain.Momentum}},
		{name: "All", flag: "ALL", want: domain.StrategyNames},
		{name: "Aliases deduplicated", flag: "mac,breakout,mac", want: []domain.StrategyName{domain.MovingAverageCrossover, domain.Breakout}},
		{name: "Unknown", flag: "mac,grid", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := selectedStrategies(tc.flag, tc.fallback)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseWindow(t *testing.T) {
	start, end, err := parseWindow("2023-01-01", "2023-06-30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2023, time.June, 30, 0, 0, 0, 0, time.UTC), end)

	start, end, err = parseWindow("", "")
	require.NoError(t, err)
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())

	_, _, err = parseWindow("2023-06-30", "2023-01-01")
	assert.Error(t, err)
	_, _, err = parseWindow("June", "")
	assert.Error(t, err)
}

func sampleResult() *simulation.Result {
	return &simulation.Result{
		RunID:          "abc",
		Symbol:         "AAPL",
		Strategy:       domain.Momentum,
		RiskTolerance:  domain.RiskLow,
		InitialCapital: 10000,
		FinalCapital:   10250,
		Bars:           90,
		Trades: []domain.Trade{
			{Action: domain.ActionBuy, Date: time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC), Price: 100, Size: 10,
				Reasons: domain.Reasons{Rule: "Momentum Entry"}},
			{Action: domain.ActionSell, Date: time.Date(2023, time.March, 9, 0, 0, 0, 0, time.UTC), Price: 103, Size: 10, ProfitPct: 3,
				Reasons: domain.Reasons{Rule: "Exit", Triggers: []string{"Take Profit"}}},
		},
		Report: metrics.Report{Returns: metrics.Returns{TotalReturnPct: 2.5}},
	}
}

func TestWriteResults(t *testing.T) {
	color.NoColor = true
	res := sampleResult()

	t.Run("JSON single", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeResults(&buf, "json", []*simulation.Result{res}, false))
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "abc", decoded["run_id"])
		assert.Contains(t, decoded, "metrics")
	})

	t.Run("YAML list", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeResults(&buf, "yaml", []*simulation.Result{res, res}, false))
		var decoded []map[string]interface{}
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 2)
		assert.Equal(t, "Momentum", decoded[1]["strategy"])
	})

	t.Run("Summary with trades", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeResults(&buf, "summary", []*simulation.Result{res}, true))
		out := buf.String()
		assert.Contains(t, out, "AAPL  Momentum (Low)")
		assert.Contains(t, out, "10000.00 -> 10250.00")
		assert.Contains(t, out, "2.50%")
		assert.Contains(t, out, "Exit: Take Profit")
	})

	t.Run("Unknown format", func(t *testing.T) {
		assert.Error(t, writeResults(&bytes.Buffer{}, "xml", []*simulation.Result{res}, false))
	})
}
