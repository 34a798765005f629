package models

import "time"

// ScalerParams are the per-feature min-max statistics produced by the training
// collaborator. One entry per feature index; loaded read-only by this service.
type ScalerParams struct {
	Min       []float64 `json:"min"`
	Scale     []float64 `json:"scale"`
	DataMin   []float64 `json:"dataMin"`
	DataMax   []float64 `json:"dataMax"`
	DataRange []float64 `json:"dataRange"`
}

// NumFeatures returns the feature width the scaler was fitted on.
func (s *ScalerParams) NumFeatures() int {
	return len(s.DataMin)
}

// EnsembleWeights configures the weighted combination of the two component
// predictions. sequenceWeight + tabularWeight is expected to be close to 1 but
// is not enforced; callers must not assume normalization.
type EnsembleWeights struct {
	SequenceWeight         float64 `json:"sequenceWeight"`
	TabularWeight          float64 `json:"tabularWeight"`
	NeutralThreshold       float64 `json:"neutralThreshold"`
	SequenceBiasCorrection float64 `json:"sequenceBiasCorrection"`
	TabularBiasCorrection  float64 `json:"tabularBiasCorrection"`
}

// DefaultEnsembleWeights are used when no per-symbol config artifact is loaded.
func DefaultEnsembleWeights() EnsembleWeights {
	return EnsembleWeights{
		SequenceWeight:   0.6,
		TabularWeight:    0.4,
		NeutralThreshold: 0.005,
	}
}

// ModelMetadata describes the trained sequence model and its offline metrics.
type ModelMetadata struct {
	SequenceLength int       `json:"sequenceLength"`
	FeatureColumns []string  `json:"featureColumns"`
	TrainedAt      time.Time `json:"trainedAt"`
	Accuracy       float64   `json:"accuracy"`
	MAE            float64   `json:"mae"`
	RMSE           float64   `json:"rmse"`
	MAPE           float64   `json:"mape"`
}

// Direction classifies the predicted price move.
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// ComponentPredictions holds the per-model price estimates that fed the
// ensemble, after bias correction.
type ComponentPredictions struct {
	Sequence float64 `json:"sequence"`
	Tabular  float64 `json:"tabular"`
}

// PredictionResult is the ensemble output for one inference call. Created once
// per call and never mutated after construction.
type PredictionResult struct {
	Symbol               string               `json:"symbol"`
	PredictedPrice       float64              `json:"predictedPrice"`
	CurrentPrice         float64              `json:"currentPrice"`
	PriceChange          float64              `json:"priceChange"`
	PriceChangePercent   float64              `json:"priceChangePercent"`
	Direction            Direction            `json:"direction"`
	Confidence           float64              `json:"confidence"`
	ComponentPredictions ComponentPredictions `json:"componentPredictions"`
	GeneratedAt          time.Time            `json:"generatedAt"`
	TargetTradingDay     time.Time            `json:"targetTradingDay"`
}
