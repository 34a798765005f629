package indicators

import (
	"math"

	"StockCast/internal/domain/models"
)

// Periods used across the indicator set. Changing any of these invalidates
// every persisted scaler artifact, so they are fixed.
const (
	RSIPeriod       = 14
	MACDFastPeriod  = 12
	MACDSlowPeriod  = 26
	MACDSignalSpan  = 9
	BollingerPeriod = 20
	BollingerK      = 2.0
)

// MinBars is the minimum closing-price count for a full indicator snapshot
// (the slow MACD EMA needs 26 values).
const MinBars = MACDSlowPeriod

// SMA returns the mean of the last period values, or 0 if fewer exist.
func SMA(c []float64, period int) float64 {
	if period <= 0 || len(c) < period {
		return 0
	}
	sum := 0.0
	for i := len(c) - period; i < len(c); i++ {
		sum += c[i]
	}
	return sum / float64(period)
}

// StdDev returns the population standard deviation of the last period values,
// or 0 if fewer exist.
func StdDev(c []float64, period int) float64 {
	if period <= 0 || len(c) < period {
		return 0
	}
	mean := SMA(c, period)
	sum2 := 0.0
	for i := len(c) - period; i < len(c); i++ {
		d := c[i] - mean
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(period))
}

// EMASeries computes the running exponential moving average. The value at
// index i uses only c[0..i]: indices before period-1 are 0, index period-1 is
// seeded with the SMA of the first period values, and later indices follow
// ema[i] = (c[i]-ema[i-1])*k + ema[i-1] with k = 2/(period+1).
func EMASeries(c []float64, period int) []float64 {
	out := make([]float64, len(c))
	if period <= 0 || len(c) < period {
		return out
	}
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += c[i]
	}
	seed /= float64(period)
	out[period-1] = seed

	k := 2.0 / float64(period+1)
	prev := seed
	for i := period; i < len(c); i++ {
		prev = (c[i]-prev)*k + prev
		out[i] = prev
	}
	return out
}

// EMA returns the latest exponential moving average, or 0 if fewer than
// period values exist.
func EMA(c []float64, period int) float64 {
	if period <= 0 || len(c) < period {
		return 0
	}
	s := EMASeries(c, period)
	return s[len(s)-1]
}

// RSI computes the Relative Strength Index over the trailing period deltas.
// Returns the neutral 50 when fewer than period+1 prices exist, and 100 when
// no losses occurred in the window.
func RSI(c []float64, period int) float64 {
	if period <= 0 || len(c) < period+1 {
		return 50
	}
	var gains, losses float64
	for i := len(c) - period; i < len(c); i++ {
		d := c[i] - c[i-1]
		if d > 0 {
			gains += d
		} else {
			losses += -d
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACDSeries reconstructs the MACD line, signal line, and histogram over the
// whole series. Each index uses only prices up to that index, so the series
// is safe for point-in-time feature extraction. The line is defined once 26
// prices exist; the signal once 9 line values exist.
func MACDSeries(c []float64) (line, signal, hist []float64) {
	n := len(c)
	line = make([]float64, n)
	signal = make([]float64, n)
	hist = make([]float64, n)
	if n < MACDSlowPeriod {
		return line, signal, hist
	}

	fast := EMASeries(c, MACDFastPeriod)
	slow := EMASeries(c, MACDSlowPeriod)

	start := MACDSlowPeriod - 1
	macd := make([]float64, 0, n-start)
	for i := start; i < n; i++ {
		line[i] = fast[i] - slow[i]
		macd = append(macd, line[i])
	}

	sig := EMASeries(macd, MACDSignalSpan)
	for i := start; i < n; i++ {
		signal[i] = sig[i-start]
		hist[i] = line[i] - signal[i]
	}
	return line, signal, hist
}

// Bollinger computes the Bollinger Bands over the trailing period values.
// Bands are symmetric around the middle (the SMA). All zeros if fewer than
// period values exist.
func Bollinger(c []float64, period int, k float64) models.BollingerValue {
	if period <= 0 || len(c) < period {
		return models.BollingerValue{}
	}
	middle := SMA(c, period)
	dev := k * StdDev(c, period)
	return models.BollingerValue{
		Upper:  middle + dev,
		Middle: middle,
		Lower:  middle - dev,
	}
}

// Compute derives the full indicator snapshot from an ordered closing-price
// series. Returns nil when fewer than MinBars prices exist. Zero-valued
// fields mean insufficient history for that indicator, reported through the
// Sufficient flags.
func Compute(c []float64) *models.IndicatorSet {
	n := len(c)
	if n < MinBars {
		return nil
	}

	line, signal, hist := MACDSeries(c)
	last := n - 1

	return &models.IndicatorSet{
		RSI: RSI(c, RSIPeriod),
		MACD: models.MACDValue{
			Line:      line[last],
			Signal:    signal[last],
			Histogram: hist[last],
		},
		Bollinger: Bollinger(c, BollingerPeriod, BollingerK),
		SMA20:     SMA(c, 20),
		SMA50:     SMA(c, 50),
		SMA200:    SMA(c, 200),
		EMA12:     EMA(c, MACDFastPeriod),
		EMA26:     EMA(c, MACDSlowPeriod),
		Sufficient: models.IndicatorSufficiency{
			RSI:       n >= RSIPeriod+1,
			MACD:      n >= MACDSlowPeriod+MACDSignalSpan-1,
			Bollinger: n >= BollingerPeriod,
			SMA20:     n >= 20,
			SMA50:     n >= 50,
			SMA200:    n >= 200,
			EMA12:     n >= MACDFastPeriod,
			EMA26:     n >= MACDSlowPeriod,
		},
	}
}
