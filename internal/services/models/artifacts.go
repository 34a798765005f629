package models

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	domain "StockCast/internal/domain/models"
	xhttp "StockCast/pkg/http"
)

// Artifact file names inside a per-symbol directory, fixed by the training
// pipeline's export step.
const (
	scalerFile   = "scaler.json"
	weightsFile  = "ensemble_config.json"
	metadataFile = "metadata.json"
)

// ArtifactClient retrieves per-symbol training artifacts. A local directory
// takes precedence when it holds the requested file; otherwise the artifact
// is fetched over HTTP from the artifact registry.
type ArtifactClient struct {
	baseURL  string
	localDir string
	client   *xhttp.Client
}

// NewArtifactClient builds an artifact client. baseURL or localDir may be
// empty, but not both.
func NewArtifactClient(baseURL, localDir string, timeout time.Duration) *ArtifactClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ArtifactClient{
		baseURL:  baseURL,
		localDir: localDir,
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// FetchScaler loads the min-max scaler parameters for a symbol.
func (a *ArtifactClient) FetchScaler(ctx context.Context, symbol string) (*domain.ScalerParams, error) {
	var p domain.ScalerParams
	if err := a.fetch(ctx, symbol, scalerFile, &p); err != nil {
		return nil, err
	}
	if p.NumFeatures() == 0 {
		return nil, fmt.Errorf("scaler for %s is empty", symbol)
	}
	return &p, nil
}

// FetchWeights loads the ensemble-weight configuration for a symbol.
func (a *ArtifactClient) FetchWeights(ctx context.Context, symbol string) (*domain.EnsembleWeights, error) {
	var w domain.EnsembleWeights
	if err := a.fetch(ctx, symbol, weightsFile, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// FetchMetadata loads the model metadata for a symbol.
func (a *ArtifactClient) FetchMetadata(ctx context.Context, symbol string) (*domain.ModelMetadata, error) {
	var m domain.ModelMetadata
	if err := a.fetch(ctx, symbol, metadataFile, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (a *ArtifactClient) fetch(ctx context.Context, symbol, name string, dest interface{}) error {
	if a.localDir != "" {
		path := filepath.Join(a.localDir, symbol, name)
		if b, err := os.ReadFile(path); err == nil {
			if err := json.Unmarshal(b, dest); err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}
			return nil
		}
	}
	if a.baseURL == "" {
		return fmt.Errorf("artifact %s/%s not found locally and no registry configured", symbol, name)
	}
	err := a.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/%s/%s", a.baseURL, symbol, name),
	}, dest)
	if err != nil {
		return fmt.Errorf("fetch artifact %s/%s: %w", symbol, name, err)
	}
	return nil
}
