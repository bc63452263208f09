// Package indicators derives the technical indicators every strategy consumes.
// All computations are pure and use min-periods = 1 so early bars carry a value.
package indicators

import (
	"math"

	"strategy-sim-go/internal/domain"
)

// Params holds the indicator windows. Strategies override the ones they tune.
type Params struct {
	ShortWindow      int
	LongWindow       int
	ATRWindow        int
	VolumeWindow     int
	RSIWindow        int
	MFIWindow        int
	BollingerWindow  int
	ROCLag           int
	ROCSmoothing     int
	VolatilityWindow int
	ChannelWindow    int
	SwingWindow      int
}

// DefaultParams returns the standard windows.
func DefaultParams() Params {
	return Params{
		ShortWindow:      10,
		LongWindow:       30,
		ATRWindow:        14,
		VolumeWindow:     20,
		RSIWindow:        14,
		MFIWindow:        14,
		BollingerWindow:  20,
		ROCLag:           10,
		ROCSmoothing:     3,
		VolatilityWindow: 20,
		ChannelWindow:    20,
		SwingWindow:      5,
	}
}

// Bar is a price bar enriched with indicator readings.
type Bar struct {
	domain.Bar

	ShortMA     float64
	LongMA      float64
	PrevShortMA float64
	PrevLongMA  float64

	TrueRange float64
	ATR       float64

	VolumeMA    float64
	VolumeStd   float64
	VolumeRatio float64

	RSI float64
	MFI float64

	BollingerMid float64
	BollingerStd float64

	ROC   float64
	ROCMA float64

	// Volatility is the sample std of close-to-close returns.
	Volatility float64

	// ChannelHigh and ChannelLow span the ChannelWindow bars before this one.
	ChannelHigh float64
	ChannelLow  float64
	SwingHigh   float64

	// RecentCloseMean covers the SwingWindow bars before this one, PriorCloseMean the
	// SwingWindow bars before those.
	RecentCloseMean float64
	PriorCloseMean  float64
}

// Compute enriches bars with every indicator. The input is not modified.
func Compute(bars []domain.Bar, p Params) []Bar {
	n := len(bars)
	out := make([]Bar, n)
	if n == 0 {
		return out
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i], highs[i], lows[i], volumes[i] = b.Close, b.High, b.Low, b.Volume
	}

	shortMA := rollingMean(closes, p.ShortWindow)
	longMA := rollingMean(closes, p.LongWindow)

	tr := trueRange(bars)
	atr := rollingMean(tr, p.ATRWindow)

	volMA := rollingMean(volumes, p.VolumeWindow)
	volStd := rollingStd(volumes, p.VolumeWindow)

	rsi := RSI(closes, p.RSIWindow)
	mfi := MFI(bars, p.MFIWindow)

	bbMid := rollingMean(closes, p.BollingerWindow)
	bbStd := rollingStd(closes, p.BollingerWindow)

	roc := rateOfChange(closes, p.ROCLag)
	rocMA := rollingMean(roc, p.ROCSmoothing)

	volatility := returnVolatility(closes, p.VolatilityWindow)

	chHigh := priorMax(highs, p.ChannelWindow)
	chLow := priorMin(lows, p.ChannelWindow)
	swing := priorMax(highs, p.SwingWindow)

	for i := range bars {
		b := Bar{
			Bar:          bars[i],
			ShortMA:      shortMA[i],
			LongMA:       longMA[i],
			PrevShortMA:  shortMA[max(i-1, 0)],
			PrevLongMA:   longMA[max(i-1, 0)],
			TrueRange:    tr[i],
			ATR:          atr[i],
			VolumeMA:     volMA[i],
			VolumeStd:    volStd[i],
			RSI:          rsi[i],
			MFI:          mfi[i],
			BollingerMid: bbMid[i],
			BollingerStd: bbStd[i],
			ROC:          roc[i],
			ROCMA:        rocMA[i],
			Volatility:   volatility[i],
			ChannelHigh:  chHigh[i],
			ChannelLow:   chLow[i],
			SwingHigh:    swing[i],
		}
		if volMA[i] > 0 {
			b.VolumeRatio = volumes[i] / volMA[i]
		}

		recent, ok := meanBetween(closes, i-p.SwingWindow, i)
		if !ok {
			recent = closes[i]
		}
		prior, ok := meanBetween(closes, i-2*p.SwingWindow, i-p.SwingWindow)
		if !ok {
			prior = recent
		}
		b.RecentCloseMean, b.PriorCloseMean = recent, prior

		out[i] = b
	}
	return out
}

// trueRange uses high-low for the first bar, which has no previous close.
func trueRange(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High - b.Low
		if i == 0 {
			continue
		}
		prev := bars[i-1].Close
		out[i] = math.Max(out[i], math.Max(math.Abs(b.High-prev), math.Abs(b.Low-prev)))
	}
	return out
}

// RSI is the relative strength index from simple rolling means of gains and losses.
func RSI(closes []float64, window int) []float64 {
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}
	return oscillator(rollingMean(gains, window), rollingMean(losses, window), false)
}

// MFI is the money flow index: typical price times volume split by typical price direction.
func MFI(bars []domain.Bar, window int) []float64 {
	positive := make([]float64, len(bars))
	negative := make([]float64, len(bars))
	prevTP := 0.0
	for i, b := range bars {
		tp := (b.High + b.Low + b.Close) / 3
		flow := tp * b.Volume
		if i > 0 {
			if tp > prevTP {
				positive[i] = flow
			} else if tp < prevTP {
				negative[i] = flow
			}
		}
		prevTP = tp
	}
	return oscillator(rollingSum(positive, window), rollingSum(negative, window), true)
}

// rateOfChange is the percent change over lag bars, measured against the
// earliest available bar while the series is shorter than lag.
func rateOfChange(closes []float64, lag int) []float64 {
	out := make([]float64, len(closes))
	for i, c := range closes {
		base := closes[max(i-lag, 0)]
		if base != 0 {
			out[i] = (c/base - 1) * 100
		}
	}
	return out
}

func returnVolatility(closes []float64, window int) []float64 {
	out := make([]float64, len(closes))
	if len(closes) < 2 {
		return out
	}
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns[i-1] = closes[i]/closes[i-1] - 1
	}
	std := rollingStd(returns, window)
	for i := 1; i < len(closes); i++ {
		out[i] = std[i-1]
	}
	return out
}
