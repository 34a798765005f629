package features

import (
	"fmt"
	"math"

	"StockCast/internal/domain/models"
	"StockCast/internal/services/indicators"
)

// NumFeatures is the width of every feature vector. The column order below is
// frozen: scaler artifacts are trained against it, so any change invalidates
// every persisted scaler.
const (
	NumFeatures       = 25
	CloseFeatureIndex = 3

	DefaultSequenceLength = 60
	DefaultLookback       = 5

	volatilityWindow = 20
	volumeSMAWindow  = 20
)

// FeatureColumns names each feature index, matching the column names recorded
// in model metadata.
var FeatureColumns = []string{
	"Open", "High", "Low", "Close", "Volume",
	"RSI", "MACD", "MACD_Signal", "MACD_Hist",
	"BB_Upper", "BB_Middle", "BB_Lower", "BB_Width",
	"SMA_20", "SMA_50", "EMA_12", "EMA_26",
	"Daily_Return", "Volatility", "Volume_Ratio",
	"Momentum_5", "Momentum_10", "Momentum_20",
	"Price_SMA20_Ratio", "Price_SMA50_Ratio",
}

// ValidStart returns the first row index at which every feature is fully
// warmed up. SMA200 is the longest dependency, so rows before
// max(200, sequenceLength) are never fed to a model.
func ValidStart(sequenceLength int) int {
	if sequenceLength > 200 {
		return sequenceLength
	}
	return 200
}

// BuildMatrix computes the raw feature matrix, one 25-wide row per bar. Every
// row is point-in-time: the value at row i depends only on bars [0..i].
// Undefined values follow fixed conventions: momentum and return are 0,
// volume ratio and price/SMA ratios are 1, everything else 0.
func BuildMatrix(bars []models.Bar) [][]float64 {
	n := len(bars)
	if n == 0 {
		return nil
	}

	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.EffectiveClose()
		volumes[i] = b.Volume
	}

	// EMA and MACD series are point-in-time by construction, so one pass
	// covers every row.
	ema12 := indicators.EMASeries(closes, indicators.MACDFastPeriod)
	ema26 := indicators.EMASeries(closes, indicators.MACDSlowPeriod)
	macdLine, macdSignal, macdHist := indicators.MACDSeries(closes)

	returns := make([]float64, n)
	for i := 1; i < n; i++ {
		if closes[i-1] != 0 {
			returns[i] = (closes[i] - closes[i-1]) / closes[i-1]
		}
	}

	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		prefix := closes[:i+1]
		row := make([]float64, NumFeatures)

		row[0] = bars[i].Open
		row[1] = bars[i].High
		row[2] = bars[i].Low
		row[3] = closes[i]
		row[4] = volumes[i]

		row[5] = indicators.RSI(prefix, indicators.RSIPeriod)
		row[6] = macdLine[i]
		row[7] = macdSignal[i]
		row[8] = macdHist[i]

		bb := indicators.Bollinger(prefix, indicators.BollingerPeriod, indicators.BollingerK)
		row[9] = bb.Upper
		row[10] = bb.Middle
		row[11] = bb.Lower
		if bb.Middle != 0 {
			row[12] = (bb.Upper - bb.Lower) / bb.Middle
		}

		sma20 := indicators.SMA(prefix, 20)
		sma50 := indicators.SMA(prefix, 50)
		row[13] = sma20
		row[14] = sma50
		row[15] = ema12[i]
		row[16] = ema26[i]

		row[17] = returns[i]
		row[18] = indicators.StdDev(returns[:i+1], volatilityWindow)

		row[19] = 1
		if vs := indicators.SMA(volumes[:i+1], volumeSMAWindow); vs != 0 {
			row[19] = volumes[i] / vs
		}

		row[20] = momentum(closes, i, 5)
		row[21] = momentum(closes, i, 10)
		row[22] = momentum(closes, i, 20)

		row[23] = priceRatio(closes[i], sma20)
		row[24] = priceRatio(closes[i], sma50)

		out[i] = row
	}
	return out
}

func momentum(closes []float64, i, k int) float64 {
	if i < k || closes[i-k] == 0 {
		return 0
	}
	return closes[i]/closes[i-k] - 1
}

func priceRatio(price, sma float64) float64 {
	if sma == 0 {
		return 1
	}
	return price / sma
}

// Scale applies per-feature min-max normalization. Features with zero range
// scale to 0. The matrix is not modified.
func Scale(matrix [][]float64, params *models.ScalerParams) ([][]float64, error) {
	if params.NumFeatures() != NumFeatures {
		return nil, fmt.Errorf("scaler covers %d features, want %d", params.NumFeatures(), NumFeatures)
	}
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		if len(row) != NumFeatures {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), NumFeatures)
		}
		scaled := make([]float64, NumFeatures)
		for f, v := range row {
			if params.DataRange[f] != 0 {
				scaled[f] = (v - params.DataMin[f]) / params.DataRange[f]
			}
		}
		out[i] = scaled
	}
	return out, nil
}

// InversePrice maps a scaled model output back to price space using the close
// feature's scaler entry.
func InversePrice(scaled float64, params *models.ScalerParams) float64 {
	return scaled*params.DataRange[CloseFeatureIndex] + params.DataMin[CloseFeatureIndex]
}

// LastWindow returns the trailing sequenceLength rows of the scaled matrix,
// or nil if fewer rows exist.
func LastWindow(scaled [][]float64, sequenceLength int) [][]float64 {
	if sequenceLength <= 0 || len(scaled) < sequenceLength {
		return nil
	}
	return scaled[len(scaled)-sequenceLength:]
}

// Windows produces every sliding window of length sequenceLength over the
// scaled matrix, oldest first.
func Windows(scaled [][]float64, sequenceLength int) [][][]float64 {
	if sequenceLength <= 0 || len(scaled) < sequenceLength {
		return nil
	}
	out := make([][][]float64, 0, len(scaled)-sequenceLength+1)
	for i := 0; i+sequenceLength <= len(scaled); i++ {
		out = append(out, scaled[i:i+sequenceLength])
	}
	return out
}

// FlattenLookback concatenates the trailing lookback rows into one flat
// vector for tabular-model input, or nil if fewer rows exist.
func FlattenLookback(scaled [][]float64, lookback int) []float64 {
	if lookback <= 0 || len(scaled) < lookback {
		return nil
	}
	out := make([]float64, 0, lookback*NumFeatures)
	for _, row := range scaled[len(scaled)-lookback:] {
		out = append(out, row...)
	}
	return out
}

// SanitizeMatrix replaces NaN and Inf cells in place with 0 so provider
// glitches cannot poison a model input.
func SanitizeMatrix(matrix [][]float64) {
	for _, row := range matrix {
		for f, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				row[f] = 0
			}
		}
	}
}
