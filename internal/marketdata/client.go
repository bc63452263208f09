// Package marketdata fetches daily bars and live quotes from an Alpha Vantage style REST API.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"strategy-sim-go/internal/config"
	"strategy-sim-go/internal/domain"
)

const (
	queryPath = "/query"
	dateFmt   = "2006-01-02"

	functionDaily = "TIME_SERIES_DAILY"
	functionQuote = "GLOBAL_QUOTE"

	// compact responses hold the latest 100 trading days
	compactSpan = 140 * 24 * time.Hour
)

var (
	// ErrNoData is returned when the API has no bars for the requested window.
	ErrNoData = errors.New("no market data")
	// ErrThrottled is returned when the API answers 200 with a rate limit notice.
	ErrThrottled = errors.New("market data api throttled")
)

// Provider is implemented by Client and used by the refresher and the API.
type Provider interface {
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
}

// Client is a rate limited, retrying market data client behind a circuit breaker.
type Client struct {
	client     *resty.Client
	apiKey     string
	logger     *zap.Logger
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	maxRetries int
	backoff    time.Duration
}

var _ Provider = (*Client)(nil)

// NewClient creates a market data client from configuration.
func NewClient(cfg config.MarketData, logger *zap.Logger) *Client {
	logger = logger.Named("marketdata")
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := max(cfg.RateLimitBurst, 1)

	return &Client{
		client:     client,
		apiKey:     cfg.ApiKey,
		logger:     logger,
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    newBreaker(logger),
		maxRetries: max(cfg.MaxRetries, 1),
		backoff:    time.Second,
	}
}

func newBreaker(logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "marketdata",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// LookbackDays is the calendar-day padding fetched before the requested start so the
// strategy's indicators are warm when the window begins.
func LookbackDays(name domain.StrategyName) int {
	switch name {
	case domain.MovingAverageCrossover:
		return 60
	case domain.Momentum:
		return 21
	case domain.MeanReversion:
		return 30
	case domain.Breakout:
		return 55
	}
	return 0
}

// PaddedStart moves start back by the strategy's lookback.
func PaddedStart(start time.Time, name domain.StrategyName) time.Time {
	return start.AddDate(0, 0, -LookbackDays(name))
}

type dailyResponse struct {
	ErrorMessage string              `json:"Error Message"`
	Note         string              `json:"Note"`
	Information  string              `json:"Information"`
	Series       map[string]dailyBar `json:"Time Series (Daily)"`
}

type dailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// FetchDailyBars returns daily bars for symbol within [start, end], oldest first.
// A zero start or end leaves that side open.
func (c *Client) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	outputSize := "full"
	if !start.IsZero() && time.Since(start) < compactSpan {
		outputSize = "compact"
	}

	var payload dailyResponse
	req := c.client.R().
		SetQueryParams(map[string]string{
			"function":   functionDaily,
			"symbol":     strings.ToUpper(symbol),
			"outputsize": outputSize,
			"apikey":     c.apiKey,
		}).
		SetResult(&payload)

	if _, err := c.execute(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to fetch daily bars for %s: %w", symbol, err)
	}
	if err := payload.apiError(); err != nil {
		return nil, fmt.Errorf("failed to fetch daily bars for %s: %w", symbol, err)
	}

	bars := make([]domain.Bar, 0, len(payload.Series))
	for day, raw := range payload.Series {
		date, err := time.Parse(dateFmt, day)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q for %s: %w", day, symbol, err)
		}
		if (!start.IsZero() && date.Before(start)) || (!end.IsZero() && date.After(end)) {
			continue
		}
		bar, err := raw.toBar(date)
		if err != nil {
			return nil, fmt.Errorf("invalid bar %s for %s: %w", day, symbol, err)
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s between %s and %s: %w", symbol, start.Format(dateFmt), end.Format(dateFmt), ErrNoData)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	c.logger.Debug("Fetched daily bars", zap.String("symbol", symbol), zap.Int("bars", len(bars)))
	return bars, nil
}

func (r dailyResponse) apiError() error {
	switch {
	case r.ErrorMessage != "":
		return errors.New(r.ErrorMessage)
	case r.Note != "":
		return fmt.Errorf("%w: %s", ErrThrottled, r.Note)
	case r.Information != "" && r.Series == nil:
		return fmt.Errorf("%w: %s", ErrThrottled, r.Information)
	}
	return nil
}

func (b dailyBar) toBar(date time.Time) (domain.Bar, error) {
	var (
		bar  = domain.Bar{Date: date}
		errs []error
	)
	bar.Open, errs = parseField(b.Open, errs)
	bar.High, errs = parseField(b.High, errs)
	bar.Low, errs = parseField(b.Low, errs)
	bar.Close, errs = parseField(b.Close, errs)
	bar.Volume, errs = parseField(b.Volume, errs)
	return bar, errors.Join(errs...)
}

func parseField(s string, errs []error) (float64, []error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, append(errs, err)
	}
	return v, errs
}

// Quote is the latest trading-day snapshot for a symbol.
type Quote struct {
	Symbol           string    `json:"symbol"`
	Price            float64   `json:"price"`
	Open             float64   `json:"open"`
	High             float64   `json:"high"`
	Low              float64   `json:"low"`
	Volume           float64   `json:"volume"`
	PreviousClose    float64   `json:"previous_close"`
	Change           float64   `json:"change"`
	ChangePercent    float64   `json:"change_percent"`
	LatestTradingDay time.Time `json:"latest_trading_day"`
	FetchedAt        time.Time `json:"fetched_at"`
}

type quoteResponse struct {
	ErrorMessage string   `json:"Error Message"`
	Note         string   `json:"Note"`
	Information  string   `json:"Information"`
	Quote        rawQuote `json:"Global Quote"`
}

type rawQuote struct {
	Symbol           string `json:"01. symbol"`
	Open             string `json:"02. open"`
	High             string `json:"03. high"`
	Low              string `json:"04. low"`
	Price            string `json:"05. price"`
	Volume           string `json:"06. volume"`
	LatestTradingDay string `json:"07. latest trading day"`
	PreviousClose    string `json:"08. previous close"`
	Change           string `json:"09. change"`
	ChangePercent    string `json:"10. change percent"`
}

// GetQuote fetches the latest quote for symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	var payload quoteResponse
	req := c.client.R().
		SetQueryParams(map[string]string{
			"function": functionQuote,
			"symbol":   strings.ToUpper(symbol),
			"apikey":   c.apiKey,
		}).
		SetResult(&payload)

	if _, err := c.execute(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to get quote for %s: %w", symbol, err)
	}
	switch {
	case payload.ErrorMessage != "":
		return nil, fmt.Errorf("failed to get quote for %s: %s", symbol, payload.ErrorMessage)
	case payload.Note != "" || payload.Information != "":
		return nil, fmt.Errorf("failed to get quote for %s: %w", symbol, ErrThrottled)
	case payload.Quote.Symbol == "":
		return nil, fmt.Errorf("quote for %s: %w", symbol, ErrNoData)
	}

	raw := payload.Quote
	q := &Quote{Symbol: raw.Symbol, FetchedAt: time.Now().UTC()}
	var errs []error
	q.Open, errs = parseField(raw.Open, errs)
	q.High, errs = parseField(raw.High, errs)
	q.Low, errs = parseField(raw.Low, errs)
	q.Price, errs = parseField(raw.Price, errs)
	q.Volume, errs = parseField(raw.Volume, errs)
	q.PreviousClose, errs = parseField(raw.PreviousClose, errs)
	q.Change, errs = parseField(raw.Change, errs)
	q.ChangePercent, errs = parseField(strings.TrimSuffix(raw.ChangePercent, "%"), errs)
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid quote for %s: %w", symbol, err)
	}
	day, err := time.Parse(dateFmt, raw.LatestTradingDay)
	if err != nil {
		return nil, fmt.Errorf("invalid trading day for %s: %w", symbol, err)
	}
	q.LatestTradingDay = day
	return q, nil
}

// execute runs the request through the circuit breaker.
func (c *Client) execute(ctx context.Context, req *resty.Request) (*resty.Response, error) {
	resp, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, http.MethodGet, queryPath, req)
	})
	if err != nil {
		return nil, err
	}
	return resp.(*resty.Response), nil
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error

	req.SetContext(ctx)
	for i := 0; i < c.maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("function", req.QueryParam.Get("function")))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		shouldRetry := false
		var retryAfter time.Duration

		if err == nil && resp != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				if seconds, err := strconv.Atoi(resp.Header().Get("Retry-After")); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
		} else {
			// network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}
		if i == c.maxRetries-1 {
			break
		}

		if retryAfter == 0 {
			retryAfter = time.Duration(math.Pow(2, float64(i))) * c.backoff
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err == nil && resp != nil {
		err = fmt.Errorf("status %s", resp.Status())
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries, err)
}
