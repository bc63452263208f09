// Package numeric holds the rounding and summary statistics shared by the ledger and the report.
package numeric

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Round rounds half away from zero to places decimals. Non-finite input becomes 0.
func Round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

// Finite replaces NaN and infinities with 0.
func Finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// Mean returns 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// PopStd is the population standard deviation (divisor N). It is 0 for fewer than two values.
func PopStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	_, std := stat.PopMeanStdDev(values, nil)
	return std
}

// Median returns 0 for an empty slice. The input is not reordered.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Percentile interpolates linearly between closest ranks (rank q/100*(n-1)), q in [0,100].
// sorted must be ascending and non-empty.
func Percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	rank := q / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
