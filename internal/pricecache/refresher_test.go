package pricecache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"strategy-sim-go/internal/config"
	"strategy-sim-go/internal/marketdata"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) GetQuote(ctx context.Context, symbol string) (*marketdata.Quote, error) {
	args := m.Called(ctx, symbol)
	if q := args.Get(0); q != nil {
		return q.(*marketdata.Quote), args.Error(1)
	}
	return nil, args.Error(1)
}

func quote(symbol string, price float64) *marketdata.Quote {
	return &marketdata.Quote{
		Symbol:           symbol,
		Price:            price,
		LatestTradingDay: time.Date(2023, time.January, 3, 0, 0, 0, 0, time.UTC),
		FetchedAt:        time.Date(2023, time.January, 3, 15, 0, 0, 0, time.UTC),
	}
}

func encoded(t *testing.T, q *marketdata.Quote) string {
	t.Helper()
	data, err := json.Marshal(q)
	require.NoError(t, err)
	return string(data)
}

func TestRefreshOnce(t *testing.T) {
	cfg := config.PriceCache{Symbols: []string{"aapl", " msft ", ""}, Interval: time.Minute, TTL: 10 * time.Minute}

	t.Run("Stores every symbol", func(t *testing.T) {
		db, rmock := redismock.NewClientMock()
		fetcher := new(mockFetcher)
		aapl, msft := quote("AAPL", 150.25), quote("MSFT", 250.5)
		fetcher.On("GetQuote", mock.Anything, "AAPL").Return(aapl, nil)
		fetcher.On("GetQuote", mock.Anything, "MSFT").Return(msft, nil)
		rmock.ExpectSet("quote:AAPL", encoded(t, aapl), 10*time.Minute).SetVal("OK")
		rmock.ExpectSet("quote:MSFT", encoded(t, msft), 10*time.Minute).SetVal("OK")

		r := NewRefresher(cfg, db, fetcher, zap.NewNop())
		require.NoError(t, r.RefreshOnce(context.Background()))

		fetcher.AssertExpectations(t)
		assert.NoError(t, rmock.ExpectationsWereMet())
	})

	t.Run("One failure does not stop the rest", func(t *testing.T) {
		db, rmock := redismock.NewClientMock()
		fetcher := new(mockFetcher)
		msft := quote("MSFT", 250.5)
		fetcher.On("GetQuote", mock.Anything, "AAPL").Return(nil, marketdata.ErrThrottled)
		fetcher.On("GetQuote", mock.Anything, "MSFT").Return(msft, nil)
		rmock.ExpectSet("quote:MSFT", encoded(t, msft), 10*time.Minute).SetVal("OK")

		r := NewRefresher(cfg, db, fetcher, zap.NewNop())
		err := r.RefreshOnce(context.Background())
		assert.ErrorIs(t, err, marketdata.ErrThrottled)
		assert.Contains(t, err.Error(), "AAPL")
		assert.NoError(t, rmock.ExpectationsWereMet())
	})

	t.Run("Redis failure is reported", func(t *testing.T) {
		db, rmock := redismock.NewClientMock()
		fetcher := new(mockFetcher)
		aapl := quote("AAPL", 150.25)
		fetcher.On("GetQuote", mock.Anything, "AAPL").Return(aapl, nil)
		rmock.ExpectSet("quote:AAPL", encoded(t, aapl), time.Minute).SetErr(errors.New("connection refused"))

		r := NewRefresher(config.PriceCache{Symbols: []string{"AAPL"}, Interval: time.Minute, TTL: time.Minute}, db, fetcher, zap.NewNop())
		err := r.RefreshOnce(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestLatest(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	aapl := quote("AAPL", 150.25)
	rmock.ExpectGet("quote:AAPL").SetVal(encoded(t, aapl))
	rmock.ExpectGet("quote:TSLA").RedisNil()
	rmock.ExpectGet("quote:BAD").SetVal("{not json")

	got, err := Latest(context.Background(), db, "aapl")
	require.NoError(t, err)
	assert.Equal(t, aapl, got)

	_, err = Latest(context.Background(), db, "tsla")
	assert.ErrorIs(t, err, ErrNotCached)

	_, err = Latest(context.Background(), db, "BAD")
	assert.Error(t, err)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestRunStopsOnCancel(t *testing.T) {
	db, _ := redismock.NewClientMock()
	fetched := make(chan struct{}, 16)
	fetcher := new(mockFetcher)
	fetcher.On("GetQuote", mock.Anything, "AAPL").
		Run(func(mock.Arguments) { fetched <- struct{}{} }).
		Return(nil, marketdata.ErrNoData)

	r := NewRefresher(config.PriceCache{Symbols: []string{"AAPL"}, Interval: 5 * time.Millisecond, TTL: time.Minute}, db, fetcher, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	// initial refresh plus at least one tick
	for range 2 {
		select {
		case <-fetched:
		case <-time.After(2 * time.Second):
			t.Fatal("refresher did not fetch")
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop")
	}
}
