package ledger

import (
	"testing"
	"time"

	"strategy-sim-go/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

func TestBuy(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		book := NewBook(10000, 0.001)
		next, trade, ok := book.Buy(day, 100, 50, domain.Reasons{Rule: "test"})
		require.True(t, ok)

		assert.Equal(t, domain.ActionBuy, trade.Action)
		assert.InDelta(t, 5.0, trade.Fee, 1e-9)
		assert.InDelta(t, 4995.0, next.Capital, 1e-9)
		assert.Equal(t, next.Capital, trade.CapitalRemaining)
		assert.Equal(t, 100.0, next.Position.HighestPrice)
		assert.Equal(t, 10000.0, book.Capital, "receiver must not change")
		assert.Nil(t, book.Position)
	})

	t.Run("Skipped when fee pushes cost over capital", func(t *testing.T) {
		book := NewBook(1000, 0.01)
		next, _, ok := book.Buy(day, 100, 10, domain.Reasons{})
		assert.False(t, ok)
		assert.Equal(t, book, next)
	})

	t.Run("Skipped when already open", func(t *testing.T) {
		book, _, _ := NewBook(1000, 0).Buy(day, 10, 10, domain.Reasons{})
		_, _, ok := book.Buy(day, 10, 10, domain.Reasons{})
		assert.False(t, ok)
	})

	t.Run("Skipped for zero size", func(t *testing.T) {
		_, _, ok := NewBook(1000, 0).Buy(day, 10, 0, domain.Reasons{})
		assert.False(t, ok)
	})
}

func TestSell(t *testing.T) {
	book, _, _ := NewBook(10000, 0.001).Buy(day, 100, 50, domain.Reasons{})
	next, trade, ok := book.Sell(day.AddDate(0, 0, 5), 110, domain.Reasons{Triggers: []string{"Take Profit"}})
	require.True(t, ok)

	assert.Equal(t, domain.ActionSell, trade.Action)
	assert.InDelta(t, 10.0, trade.ProfitPct, 1e-9)
	assert.InDelta(t, 5.5, trade.Fee, 1e-9)
	assert.InDelta(t, 4995+5500-5.5, next.Capital, 1e-9)
	assert.False(t, next.Open())
	assert.Equal(t, 100.0, trade.EntryPrice)

	_, _, ok = next.Sell(day, 100, domain.Reasons{})
	assert.False(t, ok)
}

func TestPartialSell(t *testing.T) {
	book, _, _ := NewBook(10000, 0).Buy(day, 100, 40, domain.Reasons{})
	next, trade, ok := book.PartialSell(day, 110, domain.Reasons{})
	require.True(t, ok)

	assert.Equal(t, domain.ActionPartialSell, trade.Action)
	assert.Equal(t, 20.0, trade.Size)
	assert.Equal(t, 20.0, next.Position.Size)
	assert.True(t, next.Position.IsPartial)
	assert.Equal(t, 40.0, book.Position.Size, "receiver must not change")
	assert.InDelta(t, 6000+2200, next.Capital, 1e-9)

	_, _, ok = next.PartialSell(day, 120, domain.Reasons{})
	assert.False(t, ok, "a position is only halved once")
}

func TestMarkAndAge(t *testing.T) {
	book, _, _ := NewBook(1000, 0).Buy(day, 10, 10, domain.Reasons{})

	marked := book.Mark(12).Mark(11).Age().Age()
	assert.Equal(t, 12.0, marked.Position.HighestPrice)
	assert.Equal(t, 2, marked.Position.DaysHeld)
	assert.Equal(t, 10.0, book.Position.HighestPrice)
	assert.Equal(t, 0, book.Position.DaysHeld)

	assert.InDelta(t, 900+120.0, marked.Equity(12), 1e-9)
	assert.Equal(t, NewBook(5, 0), NewBook(5, 0).Mark(3).Age())
}
