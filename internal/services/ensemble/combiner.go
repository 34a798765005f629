package ensemble

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	domain "StockCast/internal/domain/models"
	"StockCast/internal/domain/service"
	"StockCast/internal/services/features"
	"StockCast/pkg/logger"
)

var (
	// ErrModelUnavailable means the symbol has no usable model bundle.
	ErrModelUnavailable = errors.New("prediction unavailable: model artifacts missing")
	// ErrInsufficientHistory means too few bars to build a model input.
	ErrInsufficientHistory = errors.New("prediction unavailable: insufficient history")
)

// Tabular surrogate parameters. The gradient-boosting model runs only in the
// training runtime, so inference derives its estimate from the sequence
// output plus a momentum/RSI adjustment.
const (
	momentumAdjustment = 0.005
	rsiAdjustment      = 0.003
	surrogateSeqShare  = 0.9

	marketCloseHour = 16
)

// Combiner runs one ensemble prediction pass: sequence model, tabular
// surrogate, weighted blend, direction, confidence. One pass per call, no
// retries; every failure degrades to an error the caller maps to "no
// prediction".
type Combiner struct {
	loc *time.Location
	log *logger.Logger
	now func() time.Time
}

// New creates a combiner anchored to the exchange timezone.
func New(marketTimezone string, log *logger.Logger) (*Combiner, error) {
	loc, err := time.LoadLocation(marketTimezone)
	if err != nil {
		return nil, fmt.Errorf("load market timezone: %w", err)
	}
	return &Combiner{loc: loc, log: log, now: time.Now}, nil
}

// Predict combines the two component estimates into one calibrated result.
// bars must be ascending and span at least max(200, sequenceLength) +
// sequenceLength rows.
func (c *Combiner) Predict(ctx context.Context, bundle *service.ModelBundle, bars []domain.Bar) (*domain.PredictionResult, error) {
	if !bundle.Ready() {
		return nil, ErrModelUnavailable
	}

	seqLen := features.DefaultSequenceLength
	if bundle.Metadata != nil && bundle.Metadata.SequenceLength > 0 {
		seqLen = bundle.Metadata.SequenceLength
	}

	matrix := features.BuildMatrix(bars)
	validStart := features.ValidStart(seqLen)
	if len(matrix)-validStart < seqLen {
		return nil, fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientHistory, len(matrix), validStart+seqLen)
	}
	features.SanitizeMatrix(matrix)

	scaled, err := features.Scale(matrix, bundle.Scaler)
	if err != nil {
		return nil, fmt.Errorf("scale features: %w", err)
	}
	window := features.LastWindow(scaled[validStart:], seqLen)

	scaledOut, err := bundle.Model.Predict(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("sequence model: %w", err)
	}
	seqPred := features.InversePrice(scaledOut, bundle.Scaler)

	last := matrix[len(matrix)-1]
	current := last[features.CloseFeatureIndex]
	if current <= 0 {
		return nil, fmt.Errorf("invalid current price %v", current)
	}
	tabPred := tabularSurrogate(seqPred, current, last)

	weights := domain.DefaultEnsembleWeights()
	if bundle.Weights != nil {
		weights = *bundle.Weights
	}
	if weights.NeutralThreshold <= 0 {
		weights.NeutralThreshold = domain.DefaultEnsembleWeights().NeutralThreshold
	}

	seq := seqPred + weights.SequenceBiasCorrection
	tab := tabPred + weights.TabularBiasCorrection
	final := weights.SequenceWeight*seq + weights.TabularWeight*tab

	change := final - current
	changeFrac := change / current

	direction := domain.DirectionNeutral
	if math.Abs(changeFrac) >= weights.NeutralThreshold {
		if change > 0 {
			direction = domain.DirectionUp
		} else {
			direction = domain.DirectionDown
		}
	}

	now := c.now().In(c.loc)
	result := &domain.PredictionResult{
		Symbol:             bundle.Symbol,
		PredictedPrice:     round2(final),
		CurrentPrice:       round2(current),
		PriceChange:        round2(change),
		PriceChangePercent: round2(changeFrac * 100),
		Direction:          direction,
		Confidence:         round2(confidence(seq, tab, current)),
		ComponentPredictions: domain.ComponentPredictions{
			Sequence: round2(seq),
			Tabular:  round2(tab),
		},
		GeneratedAt:      now,
		TargetTradingDay: NextTradingDay(now, c.loc),
	}
	return result, nil
}

// tabularSurrogate estimates the tabular model's output from the current
// price and the latest raw feature row. Aligned momentum nudges the estimate
// with the trend; RSI extremes nudge it toward mean reversion.
func tabularSurrogate(seqPred, current float64, lastRow []float64) float64 {
	mom5 := lastRow[20]
	mom10 := lastRow[21]
	rsi := lastRow[5]

	adj := 0.0
	switch {
	case mom5 > 0 && mom10 > 0:
		adj += momentumAdjustment * current
	case mom5 < 0 && mom10 < 0:
		adj -= momentumAdjustment * current
	}
	switch {
	case rsi > 70:
		adj -= rsiAdjustment * current
	case rsi < 30:
		adj += rsiAdjustment * current
	}
	return surrogateSeqShare*seqPred + (1-surrogateSeqShare)*(current+adj)
}

// confidence scores inter-model agreement: 1 at identical predictions,
// falling off with relative divergence, with a ±0.1 bonus for agreeing on
// the sign of the move. Scaled to [0,100].
func confidence(seq, tab, current float64) float64 {
	avg := (seq + tab) / 2
	relDiff := 0.0
	if avg > 0 {
		relDiff = math.Abs(seq-tab) / avg
	}
	agreement := math.Max(0, 1-relDiff*10)

	bonus := -0.1
	if sign(seq-current) == sign(tab-current) {
		bonus = 0.1
	}

	score := (agreement + bonus) * 100
	return math.Max(0, math.Min(100, score))
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// NextTradingDay returns the next weekday after t, pinned to the market
// close. Friday rolls to Monday, Saturday to Monday, anything else to the
// next day.
func NextTradingDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	days := 1
	switch t.Weekday() {
	case time.Friday:
		days = 3
	case time.Saturday:
		days = 2
	}
	next := t.AddDate(0, 0, days)
	return time.Date(next.Year(), next.Month(), next.Day(), marketCloseHour, 0, 0, 0, loc)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
