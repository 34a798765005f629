package models

import (
	"context"
	"strings"
	"sync"

	domain "StockCast/internal/domain/models"
	"StockCast/internal/domain/service"
	"StockCast/pkg/logger"
)

// ArtifactFetcher retrieves the static training artifacts for a symbol.
type ArtifactFetcher interface {
	FetchScaler(ctx context.Context, symbol string) (*domain.ScalerParams, error)
	FetchWeights(ctx context.Context, symbol string) (*domain.EnsembleWeights, error)
	FetchMetadata(ctx context.Context, symbol string) (*domain.ModelMetadata, error)
}

// SessionOpener opens a sequence-model session for a symbol.
type SessionOpener interface {
	OpenSession(ctx context.Context, symbol string) (service.SequenceModel, error)
}

type pendingLoad struct {
	done   chan struct{}
	bundle *service.ModelBundle
}

// Loader implements service.ModelLoader. Loaded bundles are cached per symbol
// until evicted; concurrent loads for one symbol share a single fetch.
type Loader struct {
	artifacts ArtifactFetcher
	sessions  SessionOpener
	log       *logger.Logger

	mu       sync.Mutex
	cache    map[string]*service.ModelBundle
	inflight map[string]*pendingLoad
}

// NewLoader creates a model loader.
func NewLoader(artifacts ArtifactFetcher, sessions SessionOpener, log *logger.Logger) *Loader {
	return &Loader{
		artifacts: artifacts,
		sessions:  sessions,
		log:       log,
		cache:     make(map[string]*service.ModelBundle),
		inflight:  make(map[string]*pendingLoad),
	}
}

// Load fetches the symbol's four artifacts in parallel. A missing artifact
// leaves its slot nil rather than failing the load; callers check
// bundle.Ready() before inference. The check-cache, check-in-flight,
// register steps run under one lock so a second caller always joins the
// first caller's fetch.
func (l *Loader) Load(ctx context.Context, symbol string) (*service.ModelBundle, error) {
	symbol = strings.ToUpper(symbol)

	l.mu.Lock()
	if b, ok := l.cache[symbol]; ok {
		l.mu.Unlock()
		return b, nil
	}
	if p, ok := l.inflight[symbol]; ok {
		l.mu.Unlock()
		select {
		case <-p.done:
			return p.bundle, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p := &pendingLoad{done: make(chan struct{})}
	l.inflight[symbol] = p
	l.mu.Unlock()

	bundle := l.fetchAll(ctx, symbol)
	p.bundle = bundle

	l.mu.Lock()
	l.cache[symbol] = bundle
	delete(l.inflight, symbol)
	l.mu.Unlock()
	close(p.done)

	return bundle, nil
}

func (l *Loader) fetchAll(ctx context.Context, symbol string) *service.ModelBundle {
	bundle := &service.ModelBundle{Symbol: symbol}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		m, err := l.sessions.OpenSession(ctx, symbol)
		if err != nil {
			l.log.Warn("sequence model unavailable",
				logger.String("symbol", symbol), logger.Error(err))
			return
		}
		bundle.Model = m
	}()
	go func() {
		defer wg.Done()
		s, err := l.artifacts.FetchScaler(ctx, symbol)
		if err != nil {
			l.log.Warn("scaler unavailable",
				logger.String("symbol", symbol), logger.Error(err))
			return
		}
		bundle.Scaler = s
	}()
	go func() {
		defer wg.Done()
		w, err := l.artifacts.FetchWeights(ctx, symbol)
		if err != nil {
			l.log.Debug("ensemble config unavailable, defaults apply",
				logger.String("symbol", symbol), logger.Error(err))
			return
		}
		bundle.Weights = w
	}()
	go func() {
		defer wg.Done()
		m, err := l.artifacts.FetchMetadata(ctx, symbol)
		if err != nil {
			l.log.Debug("model metadata unavailable",
				logger.String("symbol", symbol), logger.Error(err))
			return
		}
		bundle.Metadata = m
	}()

	wg.Wait()
	return bundle
}

// Evict drops the cached bundle for a symbol and releases its model session.
func (l *Loader) Evict(symbol string) {
	symbol = strings.ToUpper(symbol)

	l.mu.Lock()
	bundle, ok := l.cache[symbol]
	delete(l.cache, symbol)
	l.mu.Unlock()

	if !ok || bundle.Model == nil {
		return
	}
	if err := bundle.Model.Close(); err != nil {
		l.log.Warn("model session close failed",
			logger.String("symbol", symbol), logger.Error(err))
	}
}
