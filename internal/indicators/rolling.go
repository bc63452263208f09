package indicators

import "math"

// windowStart returns the first index of a window of size w ending at i (inclusive),
// clamped to the start of the series.
func windowStart(i, w int) int {
	if w <= 0 {
		return i
	}
	start := i - w + 1
	if start < 0 {
		return 0
	}
	return start
}

// rollingMean is a trailing simple moving average with min-periods = 1.
func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window && window > 0 {
			sum -= values[i-window]
		}
		n := i - windowStart(i, window) + 1
		out[i] = sum / float64(n)
	}
	return out
}

// rollingSum is a trailing sum with min-periods = 1.
func rollingSum(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window && window > 0 {
			sum -= values[i-window]
		}
		out[i] = sum
	}
	return out
}

// rollingStd is the trailing sample standard deviation (divisor n-1).
// Windows with fewer than two observations yield 0.
func rollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		out[i] = sampleStd(values[windowStart(i, window) : i+1])
	}
	return out
}

func sampleStd(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// priorMax returns, for each i, the max of values over the w bars strictly before i.
// The first bar has no history and falls back to its own value.
func priorMax(values []float64, w int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 {
			out[i] = values[0]
			continue
		}
		start := i - w
		if start < 0 {
			start = 0
		}
		m := values[start]
		for _, v := range values[start:i] {
			m = math.Max(m, v)
		}
		out[i] = m
	}
	return out
}

// priorMin mirrors priorMax.
func priorMin(values []float64, w int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 {
			out[i] = values[0]
			continue
		}
		start := i - w
		if start < 0 {
			start = 0
		}
		m := values[start]
		for _, v := range values[start:i] {
			m = math.Min(m, v)
		}
		out[i] = m
	}
	return out
}

// meanBetween averages values[from:to] after clamping both bounds to the series.
// ok is false when the clamped range is empty.
func meanBetween(values []float64, from, to int) (mean float64, ok bool) {
	if from < 0 {
		from = 0
	}
	if to > len(values) {
		to = len(values)
	}
	if from >= to {
		return 0, false
	}
	sum := 0.0
	for _, v := range values[from:to] {
		sum += v
	}
	return sum / float64(to-from), true
}

// oscillator turns a gain/loss pair into a 0..100 reading. A zero denominator
// carries the last defined reading forward, or 50 before any reading exists;
// when only the denominator is zero and the numerator is positive the reading is 100
// if saturate is set.
func oscillator(up, down []float64, saturate bool) []float64 {
	out := make([]float64, len(up))
	last := math.NaN()
	for i := range up {
		switch {
		case down[i] > 0:
			out[i] = 100 - 100/(1+up[i]/down[i])
			last = out[i]
		case saturate && up[i] > 0:
			out[i] = 100
			last = out[i]
		case !math.IsNaN(last):
			out[i] = last
		default:
			out[i] = 50
		}
	}
	return out
}
