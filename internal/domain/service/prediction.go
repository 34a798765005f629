package service

import (
	"context"

	"StockCast/internal/domain/models"
)

// SequenceModel is a loaded sequence-model session. Predict consumes one
// scaled window (seqLen rows x feature columns) and returns the model's single
// scaled scalar output. Close releases the session's runtime resources.
type SequenceModel interface {
	Predict(ctx context.Context, window [][]float64) (float64, error)
	Close() error
}

// ModelBundle holds the per-symbol inference artifacts. Each slot is loaded
// independently and may be nil when its artifact is missing; consumers must
// check Model and Scaler before running inference.
type ModelBundle struct {
	Symbol   string
	Model    SequenceModel
	Scaler   *models.ScalerParams
	Weights  *models.EnsembleWeights
	Metadata *models.ModelMetadata
}

// Ready reports whether the bundle can back an inference call.
func (b *ModelBundle) Ready() bool {
	return b != nil && b.Model != nil && b.Scaler != nil
}

// ModelLoader loads and caches inference artifacts per symbol. Concurrent
// loads for the same symbol share one underlying fetch.
type ModelLoader interface {
	Load(ctx context.Context, symbol string) (*ModelBundle, error)
	Evict(symbol string)
}
