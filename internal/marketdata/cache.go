package marketdata

import (
	"context"
	"time"

	"go.uber.org/zap"

	"strategy-sim-go/internal/domain"
)

// coverageSlack tolerates weekends and holidays at either end of a cached window.
const coverageSlack = 4 * 24 * time.Hour

// BarStore persists fetched bars.
type BarStore interface {
	SaveBars(ctx context.Context, symbol string, bars []domain.Bar) error
	LoadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
}

// CachedSource serves bars from the store and falls back to the provider when the
// stored bars do not cover the requested window.
type CachedSource struct {
	store    BarStore
	provider Provider
	logger   *zap.Logger
}

func NewCachedSource(store BarStore, provider Provider, logger *zap.Logger) *CachedSource {
	return &CachedSource{store: store, provider: provider, logger: logger.Named("bars")}
}

// Bars returns daily bars for symbol within [start, end], oldest first.
func (s *CachedSource) Bars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	cached, err := s.store.LoadBars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if covers(cached, start, end) {
		s.logger.Debug("Serving cached bars", zap.String("symbol", symbol), zap.Int("bars", len(cached)))
		return cached, nil
	}

	fetched, err := s.provider.FetchDailyBars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveBars(ctx, symbol, fetched); err != nil {
		// the fetched bars are still usable
		s.logger.Warn("Failed to cache bars", zap.String("symbol", symbol), zap.Error(err))
	}
	return fetched, nil
}

func covers(bars []domain.Bar, start, end time.Time) bool {
	if len(bars) == 0 || start.IsZero() || end.IsZero() {
		return false
	}
	first, last := bars[0].Date, bars[len(bars)-1].Date
	return first.Sub(start) <= coverageSlack && end.Sub(last) <= coverageSlack
}

