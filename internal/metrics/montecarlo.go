package metrics

import (
	"math/rand/v2"
	"sort"

	"golang.org/x/sync/errgroup"

	"strategy-sim-go/internal/numeric"
)

// MonteCarlo is the distribution of compounded returns over resampled trade sequences.
type MonteCarlo struct {
	// Outcomes are compounded returns as fractions, sorted ascending.
	Outcomes []float64
}

// Resample draws runs resamples with replacement of returns (in percent) and compounds
// each one. Resample i uses its own PCG stream keyed by (seed, i), so the outcome does not
// depend on how many workers share the work.
func Resample(returns []float64, runs int, seed uint64, workers int) MonteCarlo {
	if len(returns) == 0 || runs <= 0 {
		return MonteCarlo{}
	}
	if workers < 1 {
		workers = 1
	}

	outcomes := make([]float64, runs)
	chunk := (runs + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < runs; lo += chunk {
		hi := min(lo+chunk, runs)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				outcomes[i] = compound(returns, rand.New(rand.NewPCG(seed, uint64(i))))
			}
			return nil
		})
	}
	g.Wait()

	sort.Float64s(outcomes)
	return MonteCarlo{Outcomes: outcomes}
}

func compound(returns []float64, r *rand.Rand) float64 {
	growth := 1.0
	for range returns {
		growth *= 1 + returns[r.IntN(len(returns))]/100
	}
	return growth - 1
}

// VaR is the 5th percentile outcome.
func (mc MonteCarlo) VaR() float64 {
	if len(mc.Outcomes) == 0 {
		return 0
	}
	return numeric.Percentile(mc.Outcomes, 5)
}

// CVaR is the mean of all outcomes at or below VaR.
func (mc MonteCarlo) CVaR() float64 {
	if len(mc.Outcomes) == 0 {
		return 0
	}
	threshold := mc.VaR()
	var tail []float64
	for _, o := range mc.Outcomes {
		if o > threshold {
			break
		}
		tail = append(tail, o)
	}
	return numeric.Mean(tail)
}

// PositiveShare is the fraction of outcomes above zero.
func (mc MonteCarlo) PositiveShare() float64 {
	if len(mc.Outcomes) == 0 {
		return 0
	}
	n := 0
	for _, o := range mc.Outcomes {
		if o > 0 {
			n++
		}
	}
	return float64(n) / float64(len(mc.Outcomes))
}

func (mc MonteCarlo) Best() float64 {
	if len(mc.Outcomes) == 0 {
		return 0
	}
	return mc.Outcomes[len(mc.Outcomes)-1]
}

func (mc MonteCarlo) Worst() float64 {
	if len(mc.Outcomes) == 0 {
		return 0
	}
	return mc.Outcomes[0]
}
