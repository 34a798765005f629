package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	domsvc "StockCast/internal/domain/service"
	"StockCast/internal/services/ensemble"
)

type stubSeqModel struct {
	out float64
}

func (m *stubSeqModel) Predict(_ context.Context, _ [][]float64) (float64, error) { return m.out, nil }
func (m *stubSeqModel) Close() error                                              { return nil }

type fakeLoader struct {
	bundle  *domsvc.ModelBundle
	evicted string
}

func (f *fakeLoader) Load(_ context.Context, _ string) (*domsvc.ModelBundle, error) {
	return f.bundle, nil
}
func (f *fakeLoader) Evict(symbol string) { f.evicted = symbol }

type capturePublisher struct {
	published []*models.PredictionResult
	err       error
}

func (p *capturePublisher) Publish(_ context.Context, r *models.PredictionResult) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, r)
	return nil
}
func (p *capturePublisher) Close() error { return nil }

func readyBundle(modelOut float64) *domsvc.ModelBundle {
	scaler := &models.ScalerParams{
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
	scaler.DataMax[3] = 200
	scaler.DataRange[3] = 200

	return &domsvc.ModelBundle{
		Symbol:   "AAPL",
		Model:    &stubSeqModel{out: modelOut / 200},
		Scaler:   scaler,
		Metadata: &models.ModelMetadata{SequenceLength: 60},
	}
}

func newPredictionUsecase(t *testing.T, loader domsvc.ModelLoader, pub *capturePublisher, bars []models.Bar) *Prediction {
	t.Helper()
	log := testLog(t)
	comb, err := ensemble.New("America/New_York", log)
	if err != nil {
		t.Fatalf("combiner: %v", err)
	}
	src := &fakeSource{name: "yahoo", bars: bars}
	market := newAggregator(t, nil, src)
	if pub == nil {
		return NewPrediction(market, loader, comb, nil, noopMetrics{}, log)
	}
	return NewPrediction(market, loader, comb, pub, noopMetrics{}, log)
}

func TestPredictUptrend(t *testing.T) {
	bars := dailyBars(300, time.Now().AddDate(0, 0, -299))
	pub := &capturePublisher{}
	p := newPredictionUsecase(t, &fakeLoader{bundle: readyBundle(165)}, pub, bars)

	res, err := p.Predict(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Direction != models.DirectionUp {
		t.Fatalf("direction = %s (predicted %v vs current %v), want up",
			res.Direction, res.PredictedPrice, res.CurrentPrice)
	}
	if res.Confidence <= 50 {
		t.Fatalf("confidence = %v, want > 50 for agreeing components", res.Confidence)
	}
	if res.PredictedPrice <= res.CurrentPrice {
		t.Fatalf("predicted %v should exceed current %v", res.PredictedPrice, res.CurrentPrice)
	}
	if len(pub.published) != 1 || pub.published[0].Symbol != "AAPL" {
		t.Fatalf("published events = %+v, want one for AAPL", pub.published)
	}
}

func TestPredictUnavailableWithoutArtifacts(t *testing.T) {
	bars := dailyBars(300, time.Now().AddDate(0, 0, -299))
	loader := &fakeLoader{bundle: &domsvc.ModelBundle{Symbol: "AAPL"}}
	p := newPredictionUsecase(t, loader, nil, bars)

	_, err := p.Predict(context.Background(), "AAPL")
	if !errors.Is(err, ensemble.ErrModelUnavailable) {
		t.Fatalf("err = %v, want ErrModelUnavailable", err)
	}
}

func TestPredictInsufficientHistory(t *testing.T) {
	bars := dailyBars(100, time.Now().AddDate(0, 0, -99))
	p := newPredictionUsecase(t, &fakeLoader{bundle: readyBundle(120)}, nil, bars)

	_, err := p.Predict(context.Background(), "AAPL")
	if !errors.Is(err, ensemble.ErrInsufficientHistory) {
		t.Fatalf("err = %v, want ErrInsufficientHistory", err)
	}
}

func TestPredictPublishFailureDoesNotFailCall(t *testing.T) {
	bars := dailyBars(300, time.Now().AddDate(0, 0, -299))
	pub := &capturePublisher{err: errors.New("broker down")}
	p := newPredictionUsecase(t, &fakeLoader{bundle: readyBundle(165)}, pub, bars)

	if _, err := p.Predict(context.Background(), "AAPL"); err != nil {
		t.Fatalf("publish failure should not fail the prediction: %v", err)
	}
}

func TestInvalidateModel(t *testing.T) {
	loader := &fakeLoader{bundle: readyBundle(165)}
	p := newPredictionUsecase(t, loader, nil, nil)

	p.InvalidateModel(" aapl ")
	if loader.evicted != "AAPL" {
		t.Fatalf("evicted = %q, want AAPL", loader.evicted)
	}
}
