package market

import (
	"fmt"
	"math"

	"strategy-sim-go/internal/domain"
)

// Validate checks the input contract for a bar series: non-empty, every bar fully
// populated with positive prices, and dates strictly increasing.
func Validate(bars []domain.Bar) error {
	if len(bars) == 0 {
		return &domain.InvalidInputError{Index: -1, Reason: "bar series is empty"}
	}

	for i, b := range bars {
		if b.Date.IsZero() {
			return &domain.InvalidInputError{Index: i, Reason: "missing date"}
		}
		prices := []struct {
			name  string
			value float64
		}{
			{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close},
		}
		for _, p := range prices {
			if math.IsNaN(p.value) || math.IsInf(p.value, 0) {
				return &domain.InvalidInputError{Index: i, Reason: fmt.Sprintf("%s is not a finite number", p.name)}
			}
			if p.value <= 0 {
				return &domain.InvalidInputError{Index: i, Reason: fmt.Sprintf("%s must be positive", p.name)}
			}
		}
		if math.IsNaN(b.Volume) || math.IsInf(b.Volume, 0) || b.Volume < 0 {
			return &domain.InvalidInputError{Index: i, Reason: "volume must be a finite non-negative number"}
		}
		if b.High < b.Low {
			return &domain.InvalidInputError{Index: i, Reason: "high is below low"}
		}
		if i > 0 && !b.Date.After(bars[i-1].Date) {
			return &domain.InvalidInputError{Index: i, Reason: fmt.Sprintf("date %s is not after %s",
				b.Date.Format("2006-01-02"), bars[i-1].Date.Format("2006-01-02"))}
		}
	}
	return nil
}
