package models

import "time"

// MarketBar caches a fetched daily bar.
type MarketBar struct {
	ID     uint      `gorm:"primaryKey"`
	Symbol string    `gorm:"uniqueIndex:idx_symbol_date;not null"`
	Date   time.Time `gorm:"uniqueIndex:idx_symbol_date;not null"`
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
