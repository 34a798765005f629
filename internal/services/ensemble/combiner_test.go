package ensemble

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	domain "StockCast/internal/domain/models"
	"StockCast/internal/domain/service"
	"StockCast/pkg/logger"
)

type stubModel struct {
	out float64
}

func (m *stubModel) Predict(_ context.Context, _ [][]float64) (float64, error) { return m.out, nil }
func (m *stubModel) Close() error                                              { return nil }

// alternatingBars produces 270 daily bars oscillating around 100 with the
// final close pinned to exactly 100, which keeps RSI near 50 and the two
// momentum horizons on opposite signs, so the tabular surrogate applies no
// adjustment.
func alternatingBars() []domain.Bar {
	bars := make([]domain.Bar, 270)
	base := time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC)
	for i := range bars {
		price := 100.5
		if i%2 == 1 {
			price = 99.5
		}
		if i == len(bars)-1 {
			price = 100
		}
		bars[i] = domain.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      price,
			High:      price + 0.2,
			Low:       price - 0.2,
			Close:     price,
			Volume:    1_000_000,
		}
	}
	return bars
}

func testBundle(modelOut float64) *service.ModelBundle {
	scaler := &domain.ScalerParams{
		Min:       make([]float64, 25),
		Scale:     make([]float64, 25),
		DataMin:   make([]float64, 25),
		DataMax:   make([]float64, 25),
		DataRange: make([]float64, 25),
	}
	for f := range scaler.DataRange {
		scaler.DataMax[f] = 2_000_000
		scaler.DataRange[f] = 2_000_000
	}
	// Close feature maps [0,200] so the stub output is easy to steer.
	scaler.DataMax[3] = 200
	scaler.DataRange[3] = 200

	return &service.ModelBundle{
		Symbol: "AAPL",
		Model:  &stubModel{out: modelOut / 200},
		Scaler: scaler,
		Metadata: &domain.ModelMetadata{
			SequenceLength: 60,
		},
	}
}

func testCombiner(t *testing.T) *Combiner {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := New("America/New_York", log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.now = func() time.Time {
		return time.Date(2025, 3, 5, 15, 0, 0, 0, c.loc) // a Wednesday
	}
	return c
}

// With no surrogate adjustment, final = 0.6·s + 0.4·(0.9·s + 0.1·100)
// = 0.96·s + 4 for current price 100.
func seqOutputForFinal(final float64) float64 {
	return (final - 4) / 0.96
}

func TestPredictDirectionClassification(t *testing.T) {
	cases := []struct {
		name  string
		final float64
		want  domain.Direction
	}{
		{"within threshold", 100.3, domain.DirectionNeutral},
		{"one percent up", 101, domain.DirectionUp},
		{"one percent down", 99, domain.DirectionDown},
	}
	bars := alternatingBars()
	c := testCombiner(t)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bundle := testBundle(seqOutputForFinal(tc.final))
			res, err := c.Predict(context.Background(), bundle, bars)
			if err != nil {
				t.Fatalf("Predict: %v", err)
			}
			if res.Direction != tc.want {
				t.Fatalf("direction = %s (predicted %v), want %s", res.Direction, res.PredictedPrice, tc.want)
			}
			if math.Abs(res.PredictedPrice-tc.final) > 0.02 {
				t.Fatalf("predicted price = %v, want ~%v", res.PredictedPrice, tc.final)
			}
			if res.CurrentPrice != 100 {
				t.Fatalf("current price = %v, want 100", res.CurrentPrice)
			}
		})
	}
}

func TestPredictResultFields(t *testing.T) {
	bars := alternatingBars()
	c := testCombiner(t)
	bundle := testBundle(seqOutputForFinal(103))

	res, err := c.Predict(context.Background(), bundle, bars)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Symbol != "AAPL" {
		t.Fatalf("symbol = %q", res.Symbol)
	}
	if res.PriceChange <= 0 || res.PriceChangePercent <= 0 {
		t.Fatalf("change = %v (%v%%), want positive", res.PriceChange, res.PriceChangePercent)
	}
	if res.Confidence < 0 || res.Confidence > 100 {
		t.Fatalf("confidence = %v, out of [0,100]", res.Confidence)
	}
	if res.ComponentPredictions.Sequence == 0 || res.ComponentPredictions.Tabular == 0 {
		t.Fatalf("component predictions missing: %+v", res.ComponentPredictions)
	}
	// Wednesday 15:00 → Thursday at the close.
	want := time.Date(2025, 3, 6, 16, 0, 0, 0, c.loc)
	if !res.TargetTradingDay.Equal(want) {
		t.Fatalf("target day = %v, want %v", res.TargetTradingDay, want)
	}
}

func TestPredictRequiresBundle(t *testing.T) {
	c := testCombiner(t)
	_, err := c.Predict(context.Background(), &service.ModelBundle{Symbol: "AAPL"}, alternatingBars())
	if err != ErrModelUnavailable {
		t.Fatalf("err = %v, want ErrModelUnavailable", err)
	}
}

func TestPredictRequiresHistory(t *testing.T) {
	c := testCombiner(t)
	bundle := testBundle(100)
	_, err := c.Predict(context.Background(), bundle, alternatingBars()[:120])
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("err = %v, want ErrInsufficientHistory", err)
	}
}

func TestConfidenceAgreement(t *testing.T) {
	if got := confidence(105, 105, 100); got != 100 {
		t.Fatalf("identical agreeing predictions = %v, want 100", got)
	}
	// Identical values but flat vs current: sign agreement still holds.
	if got := confidence(100, 100, 100); got != 100 {
		t.Fatalf("identical flat predictions = %v, want 100", got)
	}
	// Wildly divergent predictions clamp at 0.
	if got := confidence(200, 20, 100); got != 0 {
		t.Fatalf("divergent predictions = %v, want 0", got)
	}
	// Close values disagreeing in direction lose the bonus.
	withBonus := confidence(100.5, 100.6, 100)
	withoutBonus := confidence(100.1, 99.9, 100)
	if withoutBonus >= withBonus {
		t.Fatalf("direction disagreement should lower confidence: %v vs %v", withoutBonus, withBonus)
	}
}

func TestTabularSurrogateAdjustments(t *testing.T) {
	row := make([]float64, 25)
	row[5] = 50 // neutral RSI

	// Aligned positive momentum nudges up by 0.5% of price.
	row[20], row[21] = 0.02, 0.01
	got := tabularSurrogate(100, 100, row)
	want := 0.9*100 + 0.1*(100+0.5)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("aligned momentum = %v, want %v", got, want)
	}

	// Overbought RSI pulls the estimate back down.
	row[20], row[21] = 0, 0
	row[5] = 80
	got = tabularSurrogate(100, 100, row)
	want = 0.9*100 + 0.1*(100-0.3)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("overbought RSI = %v, want %v", got, want)
	}

	// Opposing momentum and mid RSI leave the price untouched.
	row[20], row[21] = 0.02, -0.01
	row[5] = 50
	got = tabularSurrogate(100, 100, row)
	if math.Abs(got-100) > 1e-9 {
		t.Fatalf("no-adjustment case = %v, want 100", got)
	}
}

func TestNextTradingDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	cases := []struct {
		day  time.Time
		want time.Time
	}{
		{time.Date(2025, 3, 7, 10, 0, 0, 0, loc), time.Date(2025, 3, 10, 16, 0, 0, 0, loc)},  // Fri → Mon
		{time.Date(2025, 3, 8, 10, 0, 0, 0, loc), time.Date(2025, 3, 10, 16, 0, 0, 0, loc)},  // Sat → Mon
		{time.Date(2025, 3, 9, 10, 0, 0, 0, loc), time.Date(2025, 3, 10, 16, 0, 0, 0, loc)},  // Sun → Mon
		{time.Date(2025, 3, 10, 10, 0, 0, 0, loc), time.Date(2025, 3, 11, 16, 0, 0, 0, loc)}, // Mon → Tue
	}
	for _, tc := range cases {
		if got := NextTradingDay(tc.day, loc); !got.Equal(tc.want) {
			t.Fatalf("NextTradingDay(%v) = %v, want %v", tc.day, got, tc.want)
		}
	}
}
