package models

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domain "StockCast/internal/domain/models"
	"StockCast/internal/domain/service"
	"StockCast/pkg/logger"
)

type fakeModel struct {
	closed atomic.Bool
}

func (m *fakeModel) Predict(_ context.Context, _ [][]float64) (float64, error) { return 0.5, nil }
func (m *fakeModel) Close() error {
	m.closed.Store(true)
	return nil
}

type fakeBackend struct {
	fetches    atomic.Int32
	gate       chan struct{}
	scalerErr  error
	sessionErr error
	model      *fakeModel
}

func (f *fakeBackend) OpenSession(_ context.Context, _ string) (service.SequenceModel, error) {
	f.fetches.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.model, nil
}

func (f *fakeBackend) FetchScaler(_ context.Context, _ string) (*domain.ScalerParams, error) {
	if f.scalerErr != nil {
		return nil, f.scalerErr
	}
	return &domain.ScalerParams{
		DataMin:   make([]float64, 25),
		DataMax:   make([]float64, 25),
		DataRange: make([]float64, 25),
	}, nil
}

func (f *fakeBackend) FetchWeights(_ context.Context, _ string) (*domain.EnsembleWeights, error) {
	w := domain.DefaultEnsembleWeights()
	return &w, nil
}

func (f *fakeBackend) FetchMetadata(_ context.Context, _ string) (*domain.ModelMetadata, error) {
	return &domain.ModelMetadata{SequenceLength: 60}, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestLoadDeduplicatesConcurrentCalls(t *testing.T) {
	backend := &fakeBackend{gate: make(chan struct{}), model: &fakeModel{}}
	l := NewLoader(backend, backend, testLogger(t))

	var wg sync.WaitGroup
	results := make([]*service.ModelBundle, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := l.Load(context.Background(), "AAPL")
			if err != nil {
				t.Errorf("Load: %v", err)
			}
			results[i] = b
		}(i)
	}

	// Let both callers reach the loader before the fetch completes.
	time.Sleep(50 * time.Millisecond)
	close(backend.gate)
	wg.Wait()

	if n := backend.fetches.Load(); n != 1 {
		t.Fatalf("session fetches = %d, want 1", n)
	}
	if results[0] != results[1] {
		t.Fatal("concurrent callers should receive the same bundle")
	}
	if !results[0].Ready() {
		t.Fatalf("bundle not ready: %+v", results[0])
	}
}

func TestLoadCachesPerSymbol(t *testing.T) {
	backend := &fakeBackend{model: &fakeModel{}}
	l := NewLoader(backend, backend, testLogger(t))

	if _, err := l.Load(context.Background(), "msft"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := l.Load(context.Background(), "MSFT"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n := backend.fetches.Load(); n != 1 {
		t.Fatalf("case-insensitive repeat load fetched %d times, want 1", n)
	}
}

func TestLoadToleratesPartialFailure(t *testing.T) {
	backend := &fakeBackend{model: &fakeModel{}, scalerErr: errors.New("404")}
	l := NewLoader(backend, backend, testLogger(t))

	b, err := l.Load(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Scaler != nil {
		t.Fatal("scaler slot should be nil after fetch failure")
	}
	if b.Model == nil || b.Weights == nil || b.Metadata == nil {
		t.Fatalf("other slots should load independently: %+v", b)
	}
	if b.Ready() {
		t.Fatal("bundle without scaler must not be ready")
	}
}

func TestEvictClosesModelAndAllowsReload(t *testing.T) {
	backend := &fakeBackend{model: &fakeModel{}}
	l := NewLoader(backend, backend, testLogger(t))

	if _, err := l.Load(context.Background(), "AAPL"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	l.Evict("AAPL")
	if !backend.model.closed.Load() {
		t.Fatal("eviction should close the model session")
	}

	if _, err := l.Load(context.Background(), "AAPL"); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if n := backend.fetches.Load(); n != 2 {
		t.Fatalf("fetches after evict+reload = %d, want 2", n)
	}
}
