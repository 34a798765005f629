package usecase

import (
	"context"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	domsvc "StockCast/internal/domain/service"
	"StockCast/internal/services/ensemble"
	"StockCast/pkg/logger"
)

// Prediction orchestrates one inference pass: load the symbol's model
// bundle, pull enough history, run the ensemble, publish the result.
type Prediction struct {
	market    *MarketData
	loader    domsvc.ModelLoader
	combiner  *ensemble.Combiner
	publisher domrepo.PredictionPublisher // optional
	metrics   domrepo.Metrics
	log       *logger.Logger
}

// NewPrediction creates the prediction orchestrator. publisher may be nil
// when event emission is disabled.
func NewPrediction(market *MarketData, loader domsvc.ModelLoader, combiner *ensemble.Combiner, publisher domrepo.PredictionPublisher, metrics domrepo.Metrics, log *logger.Logger) *Prediction {
	return &Prediction{
		market:    market,
		loader:    loader,
		combiner:  combiner,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
	}
}

// Predict produces the calibrated next-day prediction for a symbol. Missing
// artifacts or thin history surface as ensemble errors the handler maps to
// "prediction unavailable".
func (p *Prediction) Predict(ctx context.Context, symbol string) (*models.PredictionResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	start := time.Now()
	defer func() { p.metrics.RecordLatency("predict", time.Since(start).Seconds()) }()

	bundle, err := p.loader.Load(ctx, symbol)
	if err != nil {
		p.metrics.RecordError("model_load")
		return nil, err
	}

	// Two years of daily bars matches the training window and clears the
	// max(200, sequenceLength) + sequenceLength row requirement.
	bars := p.market.GetHistory(ctx, symbol, domrepo.Range2Y)

	result, err := p.combiner.Predict(ctx, bundle, bars)
	if err != nil {
		p.metrics.RecordError("predict")
		return nil, err
	}

	p.metrics.RecordPrediction(string(result.Direction))
	p.log.Info("prediction generated",
		logger.String("symbol", symbol),
		logger.String("direction", string(result.Direction)),
		logger.Float64("predicted", result.PredictedPrice),
		logger.Float64("confidence", result.Confidence))

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, result); err != nil {
			p.metrics.RecordError("publish")
			p.log.Warn("prediction publish failed", logger.String("symbol", symbol), logger.Error(err))
		}
	}
	return result, nil
}

// InvalidateModel drops the symbol's cached model bundle so the next call
// reloads fresh artifacts.
func (p *Prediction) InvalidateModel(symbol string) {
	p.loader.Evict(strings.ToUpper(strings.TrimSpace(symbol)))
}
