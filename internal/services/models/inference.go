package models

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/service"
	xhttp "StockCast/pkg/http"
)

// InferenceClient talks to the out-of-process sequence-model service. Model
// execution stays in the runtime that trained it; this side only ships scaled
// windows and reads back the scalar output.
type InferenceClient struct {
	baseURL string
	client  *xhttp.Client
}

// NewInferenceClient builds a client for the inference service.
func NewInferenceClient(baseURL string, timeout time.Duration) *InferenceClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &InferenceClient{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type loadModelRequest struct {
	Symbol string `json:"symbol"`
}

type loadModelResponse struct {
	Loaded         bool `json:"loaded"`
	SequenceLength int  `json:"sequenceLength"`
}

type predictRequest struct {
	Symbol string      `json:"symbol"`
	Window [][]float64 `json:"window"`
}

type predictResponse struct {
	Prediction float64 `json:"prediction"`
}

// OpenSession asks the inference service to load the symbol's sequence model
// and returns a handle bound to it. An error means the model artifact is
// absent on the service side.
func (c *InferenceClient) OpenSession(ctx context.Context, symbol string) (service.SequenceModel, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("inference service not configured")
	}
	var resp loadModelResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + "/models/load",
		Body:   loadModelRequest{Symbol: symbol},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", symbol, err)
	}
	if !resp.Loaded {
		return nil, fmt.Errorf("no sequence model for %s", symbol)
	}
	return &remoteModel{symbol: symbol, client: c}, nil
}

// remoteModel is a per-symbol session against the inference service.
type remoteModel struct {
	symbol string
	client *InferenceClient
}

func (m *remoteModel) Predict(ctx context.Context, window [][]float64) (float64, error) {
	var resp predictResponse
	err := m.client.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    m.client.baseURL + "/predict",
		Body:   predictRequest{Symbol: m.symbol, Window: window},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("predict %s: %w", m.symbol, err)
	}
	return resp.Prediction, nil
}

// Close releases the model on the service side. Unload failures are not
// actionable here, so only transport errors surface.
func (m *remoteModel) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    m.client.baseURL + "/models/unload",
		Body:   loadModelRequest{Symbol: m.symbol},
	}, nil)
}
