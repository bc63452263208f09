package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-sim-go/internal/domain"
	"strategy-sim-go/internal/metrics"
	"strategy-sim-go/internal/simulation"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	// a named in-memory database per test keeps tests isolated
	db, err := NewDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewStore(db)
}

func day(d int) time.Time {
	return time.Date(2023, time.January, d, 0, 0, 0, 0, time.UTC)
}

func sampleResult(runID string) *simulation.Result {
	return &simulation.Result{
		RunID:          runID,
		Symbol:         "AAPL",
		Strategy:       domain.Breakout,
		RiskTolerance:  domain.RiskHigh,
		InitialCapital: 10000,
		FinalCapital:   10450,
		Bars:           120,
		Trades: []domain.Trade{
			{Action: domain.ActionBuy, Date: day(3), Price: 100, Size: 50, Fee: 5, EntryPrice: 100, CapitalRemaining: 4995,
				Reasons: domain.Reasons{Rule: "Channel Breakout", Triggers: []string{"Volume Surge"}}},
			{Action: domain.ActionSell, Date: day(20), Price: 109.6, Size: 50, Fee: 5.48, EntryPrice: 100, CapitalRemaining: 10469.52, ProfitPct: 9.6,
				Reasons: domain.Reasons{Rule: "Exit", Triggers: []string{"Take Profit"}, Values: map[string]float64{"close": 109.6}}},
		},
		Report: metrics.Report{
			Returns:       metrics.Returns{TotalReturnPct: 4.5, SharpeRatio: 1.2},
			Risk:          metrics.Risk{MaxDrawdownPct: 3.1},
			TradeAnalysis: metrics.TradeAnalysis{WinRatePct: 100},
		},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	saved, err := store.SaveRun(ctx, "alice", sampleResult("run-1"))
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, 2, saved.TradeCount)

	run, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", run.UserID)
	assert.Equal(t, "Breakout", run.Strategy)
	assert.Equal(t, 4.5, run.TotalReturnPct)
	require.Len(t, run.Trades, 2)
	assert.Equal(t, "BUY", run.Trades[0].Action)
	assert.Equal(t, "SELL", run.Trades[1].Action)
	assert.Equal(t, 9.6, run.Trades[1].ProfitPct)
	assert.JSONEq(t, `{"rule":"Exit","triggers":["Take Profit"],"values":{"close":109.6}}`, run.Trades[1].Reasons)

	report, err := DecodeReport(run)
	require.NoError(t, err)
	assert.Equal(t, 3.1, report.Risk.MaxDrawdownPct)
	assert.Equal(t, 100.0, report.TradeAnalysis.WinRatePct)

	rebuilt, err := ToResult(run)
	require.NoError(t, err)
	original := sampleResult("run-1")
	assert.Equal(t, 120, rebuilt.Bars)
	assert.Equal(t, original.Report, rebuilt.Report)
	require.Len(t, rebuilt.Trades, 2)
	assert.Equal(t, original.Trades[1].Reasons, rebuilt.Trades[1].Reasons)
	assert.True(t, original.Trades[0].Date.Equal(rebuilt.Trades[0].Date))

	_, err = store.GetRun(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = store.SaveRun(ctx, "alice", sampleResult("run-1"))
	assert.Error(t, err, "run ids are unique")
}

func TestListRuns(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i, user := range []string{"alice", "bob", "alice"} {
		_, err := store.SaveRun(ctx, user, sampleResult(fmt.Sprintf("run-%d", i)))
		require.NoError(t, err)
	}

	all, err := store.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "run-2", all[0].RunID, "newest first")
	assert.Empty(t, all[0].Trades)

	alice, err := store.ListRuns(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, alice, 2)

	limited, err := store.ListRuns(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestBars(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	bars := []domain.Bar{
		{Date: day(2), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 1000},
		{Date: day(3), Open: 10.5, High: 12, Low: 10, Close: 11.5, Volume: 1200},
		{Date: day(4), Open: 11.5, High: 12.5, Low: 11, Close: 12, Volume: 900},
	}
	require.NoError(t, store.SaveBars(ctx, "msft", bars))

	// overlapping save keeps the first copy and adds the new date
	overlap := []domain.Bar{
		{Date: day(4), Open: 99, High: 99, Low: 99, Close: 99, Volume: 1},
		{Date: day(5), Open: 12, High: 13, Low: 11.5, Close: 12.5, Volume: 800},
	}
	require.NoError(t, store.SaveBars(ctx, "MSFT", overlap))

	got, err := store.LoadBars(ctx, "MSFT", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.True(t, got[0].Date.Equal(day(2)))
	assert.Equal(t, 12.0, got[2].Close)
	assert.Equal(t, 12.5, got[3].Close)

	window, err := store.LoadBars(ctx, "MSFT", day(3), day(4))
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, 11.5, window[0].Close)

	none, err := store.LoadBars(ctx, "AAPL", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, none)

	assert.NoError(t, store.SaveBars(ctx, "MSFT", nil))
}
