package indicators

import (
	"testing"
	"time"

	"strategy-sim-go/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(closes ...float64) []domain.Bar {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func TestRollingMeanMinPeriods(t *testing.T) {
	got := rollingMean([]float64{2, 4, 6, 8}, 3)
	assert.InDeltaSlice(t, []float64{2, 3, 4, 6}, got, 1e-9)
}

func TestRollingStd(t *testing.T) {
	got := rollingStd([]float64{1, 2, 3, 4}, 3)
	assert.Equal(t, 0.0, got[0])
	assert.InDelta(t, 0.7071, got[1], 1e-4)
	assert.InDelta(t, 1.0, got[2], 1e-9)
	assert.InDelta(t, 1.0, got[3], 1e-9)
}

func TestPriorChannelsExcludeCurrentBar(t *testing.T) {
	highs := []float64{5, 7, 6, 10}
	got := priorMax(highs, 2)
	assert.Equal(t, []float64{5, 5, 7, 7}, got)

	lows := []float64{5, 3, 4, 1}
	assert.Equal(t, []float64{5, 5, 3, 3}, priorMin(lows, 2))
}

func TestRSI(t *testing.T) {
	t.Run("Rising series has no losses", func(t *testing.T) {
		got := RSI([]float64{1, 2, 3, 4, 5}, 14)
		for _, v := range got {
			assert.Equal(t, 50.0, v)
		}
	})

	t.Run("Forward fills after losses leave the window", func(t *testing.T) {
		got := RSI([]float64{10, 9, 10, 11, 12}, 2)
		// bar 1: gain 0 loss 1 -> 0; bar 2: gain .5 loss .5 -> 50; bar 3: no loss in window -> 50
		assert.InDelta(t, 0.0, got[1], 1e-9)
		assert.InDelta(t, 50.0, got[2], 1e-9)
		assert.InDelta(t, 50.0, got[3], 1e-9)
		assert.InDelta(t, 50.0, got[4], 1e-9)
	})

	t.Run("Bounded", func(t *testing.T) {
		got := RSI([]float64{10, 12, 11, 15, 9, 13, 8}, 3)
		for _, v := range got {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	})
}

func TestMFI(t *testing.T) {
	t.Run("Only positive flow saturates", func(t *testing.T) {
		got := MFI(series(10, 11, 12, 13), 14)
		assert.Equal(t, 50.0, got[0])
		assert.Equal(t, 100.0, got[1])
		assert.Equal(t, 100.0, got[3])
	})

	t.Run("Balanced flow", func(t *testing.T) {
		bars := series(10, 11, 10)
		got := MFI(bars, 14)
		// typical price equals close; positive 11*1000, negative 10*1000
		assert.InDelta(t, 100-100/(1+11.0/10.0), got[2], 1e-9)
	})
}

func TestCompute(t *testing.T) {
	bars := series(10, 11, 12, 11, 13, 14, 15, 14, 16, 17, 18, 17)
	bars[5].Volume = 4000

	p := DefaultParams()
	p.ShortWindow, p.LongWindow = 3, 5
	p.ChannelWindow = 4
	got := Compute(bars, p)
	require.Len(t, got, len(bars))

	t.Run("Moving averages", func(t *testing.T) {
		assert.InDelta(t, 10.0, got[0].ShortMA, 1e-9)
		assert.InDelta(t, 11.0, got[2].ShortMA, 1e-9)
		assert.InDelta(t, (12+11+13)/3.0, got[4].ShortMA, 1e-9)
		assert.InDelta(t, (10+11+12+11+13)/5.0, got[4].LongMA, 1e-9)
		assert.Equal(t, got[3].ShortMA, got[4].PrevShortMA)
		assert.Equal(t, got[3].LongMA, got[4].PrevLongMA)
		assert.Equal(t, got[0].ShortMA, got[0].PrevShortMA)
	})

	t.Run("True range", func(t *testing.T) {
		assert.InDelta(t, 2.0, got[0].TrueRange, 1e-9)
		// high 12 vs prev close 10
		assert.InDelta(t, 2.0, got[1].TrueRange, 1e-9)
		// bar 4: high 14, low 12, prev close 11
		assert.InDelta(t, 3.0, got[4].TrueRange, 1e-9)
	})

	t.Run("Volume", func(t *testing.T) {
		mean := (5*1000.0 + 4000) / 6
		assert.InDelta(t, mean, got[5].VolumeMA, 1e-9)
		assert.InDelta(t, 4000/mean, got[5].VolumeRatio, 1e-9)
		assert.Greater(t, got[5].VolumeStd, 0.0)
		assert.Equal(t, 0.0, got[0].VolumeStd)
	})

	t.Run("Channels", func(t *testing.T) {
		// bars 2..5 highs: 13, 12, 14, 15
		assert.InDelta(t, 15.0, got[6].ChannelHigh, 1e-9)
		assert.InDelta(t, 10.0, got[6].ChannelLow, 1e-9)
		assert.InDelta(t, bars[0].High, got[0].ChannelHigh, 1e-9)
	})

	t.Run("Rate of change", func(t *testing.T) {
		assert.InDelta(t, 0.0, got[0].ROC, 1e-9)
		assert.InDelta(t, (13.0/10.0-1)*100, got[4].ROC, 1e-9)
		assert.InDelta(t, (18.0/10.0-1)*100, got[10].ROC, 1e-9)
		assert.InDelta(t, (17.0/11.0-1)*100, got[11].ROC, 1e-9)
		assert.InDelta(t, (got[8].ROC+got[9].ROC+got[10].ROC)/3, got[10].ROCMA, 1e-9)
	})

	t.Run("Trend strength means", func(t *testing.T) {
		assert.InDelta(t, (12+11+13+14+15)/5.0, got[7].RecentCloseMean, 1e-9)
		assert.InDelta(t, (10+11)/2.0, got[7].PriorCloseMean, 1e-9)
		assert.Equal(t, got[0].Close, got[0].RecentCloseMean)
		assert.Equal(t, got[3].RecentCloseMean, got[3].PriorCloseMean)
	})

	t.Run("Volatility", func(t *testing.T) {
		assert.Equal(t, 0.0, got[0].Volatility)
		assert.Equal(t, 0.0, got[1].Volatility)
		assert.Greater(t, got[5].Volatility, 0.0)
	})
}

func TestComputeEmpty(t *testing.T) {
	assert.Empty(t, Compute(nil, DefaultParams()))
}
