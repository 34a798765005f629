package repository

import (
	"context"
	"time"

	"StockCast/internal/domain/models"
)

// SourceClient wraps one external market-data provider. Implementations never
// raise past their own boundary: any provider failure (unknown symbol,
// malformed payload, non-2xx, rate limit) becomes the empty/absent sentinel.
type SourceClient interface {
	Name() string
	GetQuote(ctx context.Context, symbol string) *models.Quote
	GetHistory(ctx context.Context, symbol string, r Range) []models.Bar
	Search(ctx context.Context, query string, limit int) []models.SymbolMatch
}

// QuoteStream is a live tick feed used to keep cached quotes warm between
// polls.
type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// BarArchive persists daily bars for the training collaborator and serves as
// the last-resort history fallback once all live sources are exhausted.
type BarArchive interface {
	StoreBatch(ctx context.Context, symbol string, bars []models.Bar) error
	QueryRange(ctx context.Context, symbol string, from, to time.Time) ([]models.Bar, error)
	Health(ctx context.Context) error
	Close() error
}

// PredictionPublisher emits finished prediction results to downstream
// consumers.
type PredictionPublisher interface {
	Publish(ctx context.Context, p *models.PredictionResult) error
	Close() error
}

// Metrics records operational counters for the data and prediction paths.
type Metrics interface {
	RecordCacheLookup(kind string, hit bool)
	RecordSourceRequest(source, op, outcome string)
	RecordFallback(op string)
	RecordPrediction(direction string)
	RecordLastPrice(symbol string, price float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
