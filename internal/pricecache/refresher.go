// Package pricecache keeps the latest quotes for a set of symbols in redis.
package pricecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"strategy-sim-go/internal/config"
	"strategy-sim-go/internal/marketdata"
)

const keyPrefix = "quote:"

// ErrNotCached is returned by Latest when no fresh quote is stored.
var ErrNotCached = errors.New("quote not cached")

// QuoteFetcher is the part of marketdata.Provider the refresher needs.
type QuoteFetcher interface {
	GetQuote(ctx context.Context, symbol string) (*marketdata.Quote, error)
}

// Refresher periodically fetches quotes and writes them to redis with a TTL.
type Refresher struct {
	rdb      redis.Cmdable
	fetcher  QuoteFetcher
	symbols  []string
	interval time.Duration
	ttl      time.Duration
	logger   *zap.Logger
}

// NewRefresher creates a refresher for the configured symbols.
func NewRefresher(cfg config.PriceCache, rdb redis.Cmdable, fetcher QuoteFetcher, logger *zap.Logger) *Refresher {
	symbols := make([]string, 0, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			symbols = append(symbols, s)
		}
	}
	return &Refresher{
		rdb:      rdb,
		fetcher:  fetcher,
		symbols:  symbols,
		interval: cfg.Interval,
		ttl:      cfg.TTL,
		logger:   logger.Named("pricecache"),
	}
}

// NewRedisClient creates a redis client for addr.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func quoteKey(symbol string) string {
	return keyPrefix + strings.ToUpper(symbol)
}

// Run refreshes once immediately and then on every tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Error("Refresh interval must be positive", zap.Duration("interval", r.interval))
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Starting price refresh loop",
		zap.Duration("interval", r.interval),
		zap.Strings("symbols", r.symbols),
	)
	if err := r.RefreshOnce(ctx); err != nil {
		r.logger.Error("Refresh failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stopping price refresh loop")
			return
		case <-ticker.C:
			if err := r.RefreshOnce(ctx); err != nil {
				r.logger.Error("Refresh failed", zap.Error(err))
			}
		}
	}
}

// RefreshOnce fetches and stores a quote for every symbol. A failing symbol does not stop
// the others; all failures are returned joined.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	var errs []error
	for _, symbol := range r.symbols {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.refresh(ctx, symbol); err != nil {
			errs = append(errs, err)
			continue
		}
		r.logger.Debug("Quote refreshed", zap.String("symbol", symbol))
	}
	return errors.Join(errs...)
}

func (r *Refresher) refresh(ctx context.Context, symbol string) error {
	quote, err := r.fetcher.GetQuote(ctx, symbol)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", symbol, err)
	}
	return Store(ctx, r.rdb, quote, r.ttl)
}

// Store writes quote under its symbol key.
func Store(ctx context.Context, rdb redis.Cmdable, quote *marketdata.Quote, ttl time.Duration) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("encode quote %s: %w", quote.Symbol, err)
	}
	if err := rdb.Set(ctx, quoteKey(quote.Symbol), string(data), ttl).Err(); err != nil {
		return fmt.Errorf("store quote %s: %w", quote.Symbol, err)
	}
	return nil
}

// Latest reads the cached quote for symbol.
func Latest(ctx context.Context, rdb redis.Cmdable, symbol string) (*marketdata.Quote, error) {
	data, err := rdb.Get(ctx, quoteKey(symbol)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", strings.ToUpper(symbol), ErrNotCached)
	}
	if err != nil {
		return nil, fmt.Errorf("read quote %s: %w", symbol, err)
	}
	var quote marketdata.Quote
	if err := json.Unmarshal([]byte(data), &quote); err != nil {
		return nil, fmt.Errorf("decode quote %s: %w", symbol, err)
	}
	return &quote, nil
}

// Latest reads the cached quote for symbol.
func (r *Refresher) Latest(ctx context.Context, symbol string) (*marketdata.Quote, error) {
	return Latest(ctx, r.rdb, symbol)
}
