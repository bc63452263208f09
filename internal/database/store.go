package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"strategy-sim-go/internal/domain"
	"strategy-sim-go/internal/metrics"
	"strategy-sim-go/internal/models"
	"strategy-sim-go/internal/simulation"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("not found")

// Store persists simulation runs and cached market bars.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SaveRun stores a run together with its trades.
func (s *Store) SaveRun(ctx context.Context, userID string, res *simulation.Result) (*models.SimulationRun, error) {
	report, err := json.Marshal(res.Report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	run := models.SimulationRun{
		RunID:          res.RunID,
		UserID:         userID,
		Symbol:         res.Symbol,
		Strategy:       string(res.Strategy),
		RiskTolerance:  string(res.RiskTolerance),
		InitialCapital: res.InitialCapital,
		FinalCapital:   res.FinalCapital,
		TotalReturnPct: res.Report.Returns.TotalReturnPct,
		MaxDrawdownPct: res.Report.Risk.MaxDrawdownPct,
		WinRatePct:     res.Report.TradeAnalysis.WinRatePct,
		SharpeRatio:    res.Report.Returns.SharpeRatio,
		BarCount:       res.Bars,
		TradeCount:     len(res.Trades),
		Report:         string(report),
	}
	for i, t := range res.Trades {
		reasons, err := json.Marshal(t.Reasons)
		if err != nil {
			return nil, fmt.Errorf("failed to encode reasons of trade %d: %w", i, err)
		}
		run.Trades = append(run.Trades, models.TradeRecord{
			RunID:            res.RunID,
			Seq:              i,
			Action:           string(t.Action),
			Date:             t.Date,
			Price:            t.Price,
			Size:             t.Size,
			Fee:              t.Fee,
			EntryPrice:       t.EntryPrice,
			CapitalRemaining: t.CapitalRemaining,
			ProfitPct:        t.ProfitPct,
			Reasons:          string(reasons),
		})
	}

	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, fmt.Errorf("failed to save run %s: %w", res.RunID, err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs first, without trades. An empty userID lists all users.
func (s *Store) ListRuns(ctx context.Context, userID string, limit int) ([]models.SimulationRun, error) {
	q := s.db.WithContext(ctx).Order("id desc")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var runs []models.SimulationRun
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun loads one run and its trades in ledger order.
func (s *Store) GetRun(ctx context.Context, runID string) (*models.SimulationRun, error) {
	var run models.SimulationRun
	err := s.db.WithContext(ctx).
		Preload("Trades", func(db *gorm.DB) *gorm.DB { return db.Order("seq asc") }).
		Where("run_id = ?", runID).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	return &run, nil
}

// DecodeReport returns the metrics report stored with a run.
func DecodeReport(run *models.SimulationRun) (metrics.Report, error) {
	var report metrics.Report
	if err := json.Unmarshal([]byte(run.Report), &report); err != nil {
		return report, fmt.Errorf("failed to decode report of run %s: %w", run.RunID, err)
	}
	return report, nil
}

// ToResult rebuilds the result of a stored run. The capital curve is not stored and
// is left empty.
func ToResult(run *models.SimulationRun) (*simulation.Result, error) {
	report, err := DecodeReport(run)
	if err != nil {
		return nil, err
	}
	res := &simulation.Result{
		RunID:          run.RunID,
		Symbol:         run.Symbol,
		Strategy:       domain.StrategyName(run.Strategy),
		RiskTolerance:  domain.RiskTolerance(run.RiskTolerance),
		InitialCapital: run.InitialCapital,
		FinalCapital:   run.FinalCapital,
		Bars:           run.BarCount,
		Trades:         make([]domain.Trade, len(run.Trades)),
		Report:         report,
	}
	for i, t := range run.Trades {
		var reasons domain.Reasons
		if err := json.Unmarshal([]byte(t.Reasons), &reasons); err != nil {
			return nil, fmt.Errorf("failed to decode reasons of trade %d: %w", t.Seq, err)
		}
		res.Trades[i] = domain.Trade{
			Action:           domain.Action(t.Action),
			Date:             t.Date.UTC(),
			Price:            t.Price,
			Size:             t.Size,
			Fee:              t.Fee,
			EntryPrice:       t.EntryPrice,
			CapitalRemaining: t.CapitalRemaining,
			ProfitPct:        t.ProfitPct,
			Reasons:          reasons,
		}
	}
	return res, nil
}

// SaveBars caches bars for symbol. Bars already stored for the same date are left untouched.
func (s *Store) SaveBars(ctx context.Context, symbol string, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	symbol = strings.ToUpper(symbol)
	rows := make([]models.MarketBar, len(bars))
	for i, b := range bars {
		rows[i] = models.MarketBar{
			Symbol: symbol,
			Date:   b.Date.UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&rows, 500).Error
	if err != nil {
		return fmt.Errorf("failed to save bars for %s: %w", symbol, err)
	}
	return nil
}

// LoadBars returns the cached bars for symbol within [start, end], oldest first.
// A zero start or end leaves that side open.
func (s *Store) LoadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	q := s.db.WithContext(ctx).Where("symbol = ?", strings.ToUpper(symbol))
	if !start.IsZero() {
		q = q.Where("date >= ?", start.UTC())
	}
	if !end.IsZero() {
		q = q.Where("date <= ?", end.UTC())
	}
	var rows []models.MarketBar
	if err := q.Order("date asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load bars for %s: %w", symbol, err)
	}
	bars := make([]domain.Bar, len(rows))
	for i, r := range rows {
		bars[i] = domain.Bar{
			Date:   r.Date.UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}
	return bars, nil
}
