// Package ledger does the capital and position bookkeeping for a single run.
//
// A Book is a value: every operation returns the updated Book together with the
// trade it produced, leaving the receiver untouched.
package ledger

import (
	"time"

	"strategy-sim-go/internal/domain"
	"strategy-sim-go/internal/numeric"
)

// Position is the open holding. It only exists while Size > 0.
type Position struct {
	Size         float64
	EntryPrice   float64
	EntryDate    time.Time
	HighestPrice float64
	DaysHeld     int
	IsPartial    bool
}

// Book holds cash, the fee rate and the open position, if any.
type Book struct {
	Capital  float64
	FeePct   float64
	Position *Position
}

// NewBook starts a flat book.
func NewBook(capital, feePct float64) Book {
	return Book{Capital: capital, FeePct: feePct}
}

// Open reports whether a position is held.
func (b Book) Open() bool {
	return b.Position != nil && b.Position.Size > 0
}

// Equity is cash plus the open position marked at price.
func (b Book) Equity(price float64) float64 {
	if !b.Open() {
		return b.Capital
	}
	return b.Capital + b.Position.Size*price
}

// Buy opens a position of size units at price. It returns ok=false, leaving the book
// unchanged, when a position is already open, the size is not positive, or the cost
// plus fee exceeds the available capital.
func (b Book) Buy(date time.Time, price, size float64, reasons domain.Reasons) (Book, domain.Trade, bool) {
	if b.Open() || size <= 0 || price <= 0 {
		return b, domain.Trade{}, false
	}
	cost := size * price
	fee := cost * b.FeePct
	if cost+fee > b.Capital {
		return b, domain.Trade{}, false
	}

	next := b
	next.Capital = b.Capital - cost - fee
	next.Position = &Position{
		Size:         size,
		EntryPrice:   price,
		EntryDate:    date,
		HighestPrice: price,
	}
	return next, domain.Trade{
		Action:           domain.ActionBuy,
		Date:             date,
		Price:            price,
		Size:             size,
		Fee:              fee,
		EntryPrice:       price,
		CapitalRemaining: next.Capital,
		Reasons:          reasons,
	}, true
}

// Sell closes the whole position at price. ok is false when the book is flat.
func (b Book) Sell(date time.Time, price float64, reasons domain.Reasons) (Book, domain.Trade, bool) {
	if !b.Open() {
		return b, domain.Trade{}, false
	}
	pos := b.Position
	next, trade := b.reduce(date, price, pos.Size, domain.ActionSell, reasons)
	next.Position = nil
	return next, trade, true
}

// PartialSell sells half of the position once. ok is false when the book is flat or
// the position has already been reduced.
func (b Book) PartialSell(date time.Time, price float64, reasons domain.Reasons) (Book, domain.Trade, bool) {
	if !b.Open() || b.Position.IsPartial {
		return b, domain.Trade{}, false
	}
	size := b.Position.Size / 2
	next, trade := b.reduce(date, price, size, domain.ActionPartialSell, reasons)
	pos := *b.Position
	pos.Size -= size
	pos.IsPartial = true
	next.Position = &pos
	return next, trade, true
}

func (b Book) reduce(date time.Time, price, size float64, action domain.Action, reasons domain.Reasons) (Book, domain.Trade) {
	value := size * price
	fee := value * b.FeePct
	entry := b.Position.EntryPrice

	next := b
	next.Capital = b.Capital + value - fee
	return next, domain.Trade{
		Action:           action,
		Date:             date,
		Price:            price,
		Size:             size,
		Fee:              fee,
		EntryPrice:       entry,
		CapitalRemaining: next.Capital,
		ProfitPct:        numeric.Round((price-entry)/entry*100, 2),
		Reasons:          reasons,
	}
}

// Mark raises the position's peak price to price if it is higher.
func (b Book) Mark(price float64) Book {
	if !b.Open() || price <= b.Position.HighestPrice {
		return b
	}
	pos := *b.Position
	pos.HighestPrice = price
	b.Position = &pos
	return b
}

// Age counts one more bar held.
func (b Book) Age() Book {
	if !b.Open() {
		return b
	}
	pos := *b.Position
	pos.DaysHeld++
	b.Position = &pos
	return b
}

// CurvePoint records equity at the trade's price.
func (b Book) CurvePoint(t domain.Trade) domain.CapitalCurvePoint {
	return domain.CapitalCurvePoint{Date: t.Date, Capital: b.Equity(t.Price)}
}
