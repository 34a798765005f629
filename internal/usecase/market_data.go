package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/services/indicators"
	"StockCast/pkg/cache"
	"StockCast/pkg/logger"
)

// MarketData aggregates quotes, history, and symbol search across an ordered
// chain of source clients with a cache in front. "No data" is a valid,
// non-exceptional outcome: every getter returns the empty/absent sentinel
// when the cache, all sources, and the archive come up empty.
type MarketData struct {
	cache   cache.Service
	sources []domrepo.SourceClient
	archive domrepo.BarArchive // optional last-resort history store
	metrics domrepo.Metrics
	log     *logger.Logger
	now     func() time.Time
}

// Snapshot bundles the aggregator outputs one chart render needs.
type Snapshot struct {
	Quote      *models.Quote        `json:"quote,omitempty"`
	Bars       []models.Bar         `json:"bars"`
	Indicators *models.IndicatorSet `json:"indicators,omitempty"`
}

// NewMarketData creates the aggregator. archive may be nil when the bar
// archive is disabled.
func NewMarketData(c cache.Service, sources []domrepo.SourceClient, archive domrepo.BarArchive, metrics domrepo.Metrics, log *logger.Logger) *MarketData {
	return &MarketData{
		cache:   c,
		sources: sources,
		archive: archive,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
}

// GetQuote returns the latest quote, trying cache then each source in
// priority order. Nil when no source can resolve the symbol.
func (m *MarketData) GetQuote(ctx context.Context, symbol string) *models.Quote {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil
	}
	start := m.now()
	defer func() { m.metrics.RecordLatency("get_quote", time.Since(start).Seconds()) }()

	key := cache.GenerateKey("quote", symbol)
	if q, ok := cache.GetTyped[models.Quote](ctx, m.cache, key); ok {
		m.metrics.RecordCacheLookup("quote", true)
		return &q
	}
	m.metrics.RecordCacheLookup("quote", false)

	for i, src := range m.sources {
		q := src.GetQuote(ctx, symbol)
		if q == nil {
			m.metrics.RecordSourceRequest(src.Name(), "quote", "empty")
			continue
		}
		m.metrics.RecordSourceRequest(src.Name(), "quote", "ok")
		if i > 0 {
			m.metrics.RecordFallback("quote")
		}
		m.metrics.RecordLastPrice(symbol, q.Price)
		if err := m.cache.Set(ctx, key, *q, domrepo.QuoteTTL); err != nil {
			m.log.Warn("quote cache write failed", logger.String("symbol", symbol), logger.Error(err))
		}
		return q
	}
	return nil
}

// GetHistory returns ordered bars for the range, falling through the source
// chain and finally the archive. Fallback-source history for non-intraday
// ranges is trimmed to the range's day window, since secondary sources serve
// their native width regardless of the request.
func (m *MarketData) GetHistory(ctx context.Context, symbol string, r domrepo.Range) []models.Bar {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil
	}
	start := m.now()
	defer func() { m.metrics.RecordLatency("get_history", time.Since(start).Seconds()) }()

	key := cache.GenerateKeyWithParams("history", symbol, string(r))
	if bars, ok := cache.GetTyped[[]models.Bar](ctx, m.cache, key); ok {
		m.metrics.RecordCacheLookup("history", true)
		return bars
	}
	m.metrics.RecordCacheLookup("history", false)

	for i, src := range m.sources {
		bars := src.GetHistory(ctx, symbol, r)
		if len(bars) == 0 {
			m.metrics.RecordSourceRequest(src.Name(), "history", "empty")
			continue
		}
		m.metrics.RecordSourceRequest(src.Name(), "history", "ok")
		if i > 0 {
			m.metrics.RecordFallback("history")
			if !r.Intraday() {
				bars = m.trimToRange(bars, r)
			}
		}
		if len(bars) == 0 {
			continue
		}
		m.storeBars(ctx, symbol, r, bars)
		if err := m.cache.Set(ctx, key, bars, r.HistoryTTL()); err != nil {
			m.log.Warn("history cache write failed", logger.String("symbol", symbol), logger.Error(err))
		}
		return bars
	}

	return m.archiveHistory(ctx, symbol, r, key)
}

// trimToRange drops bars older than the fixed range→day-count window.
func (m *MarketData) trimToRange(bars []models.Bar, r domrepo.Range) []models.Bar {
	cutoff := m.now().AddDate(0, 0, -r.Days())
	for i, b := range bars {
		if !b.Timestamp.Before(cutoff) {
			return bars[i:]
		}
	}
	return nil
}

// storeBars persists daily history for the training collaborator; best
// effort, never blocks the response path on archive trouble.
func (m *MarketData) storeBars(ctx context.Context, symbol string, r domrepo.Range, bars []models.Bar) {
	if m.archive == nil || r.Intraday() {
		return
	}
	if err := m.archive.StoreBatch(ctx, symbol, bars); err != nil {
		m.metrics.RecordError("archive_store")
		m.log.Warn("bar archive write failed", logger.String("symbol", symbol), logger.Error(err))
	}
}

// archiveHistory is the last resort once every live source came up empty.
func (m *MarketData) archiveHistory(ctx context.Context, symbol string, r domrepo.Range, key string) []models.Bar {
	if m.archive == nil || r.Intraday() {
		return nil
	}
	to := m.now()
	from := to.AddDate(0, 0, -r.Days())
	bars, err := m.archive.QueryRange(ctx, symbol, from, to)
	if err != nil {
		m.metrics.RecordError("archive_query")
		m.log.Warn("bar archive read failed", logger.String("symbol", symbol), logger.Error(err))
		return nil
	}
	if len(bars) == 0 {
		return nil
	}
	m.metrics.RecordFallback("history_archive")
	m.log.Info("history served from archive",
		logger.String("symbol", symbol),
		logger.String("range", string(r)),
		logger.Int("bars", len(bars)))
	if err := m.cache.Set(ctx, key, bars, r.HistoryTTL()); err != nil {
		m.log.Warn("history cache write failed", logger.String("symbol", symbol), logger.Error(err))
	}
	return bars
}

// SearchSymbols resolves a free-text query across sources that support
// search.
func (m *MarketData) SearchSymbols(ctx context.Context, query string, limit int) []models.SymbolMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if limit <= 0 {
		limit = 10
	}

	key := cache.GenerateKeyWithParams("search", strings.ToLower(query), limit)
	if matches, ok := cache.GetTyped[[]models.SymbolMatch](ctx, m.cache, key); ok {
		m.metrics.RecordCacheLookup("search", true)
		return matches
	}
	m.metrics.RecordCacheLookup("search", false)

	for i, src := range m.sources {
		matches := src.Search(ctx, query, limit)
		if len(matches) == 0 {
			m.metrics.RecordSourceRequest(src.Name(), "search", "empty")
			continue
		}
		m.metrics.RecordSourceRequest(src.Name(), "search", "ok")
		if i > 0 {
			m.metrics.RecordFallback("search")
		}
		if err := m.cache.Set(ctx, key, matches, domrepo.SearchTTL); err != nil {
			m.log.Warn("search cache write failed", logger.String("query", query), logger.Error(err))
		}
		return matches
	}
	return nil
}

// ComputeIndicators derives the display indicator set. Nil under 26 closing
// prices; short-of-SMA200 history is logged, not failed, and SMA200 reports
// as 0.
func (m *MarketData) ComputeIndicators(symbol string, bars []models.Bar) *models.IndicatorSet {
	closes := models.Closes(bars)
	if len(closes) < indicators.MinBars {
		return nil
	}
	if len(closes) < 200 {
		m.log.Debug("insufficient bars for SMA200",
			logger.String("symbol", symbol), logger.Int("bars", len(closes)))
	}
	return indicators.Compute(closes)
}

// GetSnapshot fetches quote and history concurrently and awaits both, so the
// caller never observes a partial pair.
func (m *MarketData) GetSnapshot(ctx context.Context, symbol string, r domrepo.Range) *Snapshot {
	var (
		wg   sync.WaitGroup
		q    *models.Quote
		bars []models.Bar
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		q = m.GetQuote(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		bars = m.GetHistory(ctx, symbol, r)
	}()
	wg.Wait()

	return &Snapshot{
		Quote:      q,
		Bars:       bars,
		Indicators: m.ComputeIndicators(symbol, bars),
	}
}

// RefreshQuote replaces the cached quote wholesale with a fresher value from
// the live stream.
func (m *MarketData) RefreshQuote(ctx context.Context, q *models.Quote) {
	if q == nil || q.Symbol == "" {
		return
	}
	key := cache.GenerateKey("quote", strings.ToUpper(q.Symbol))
	if err := m.cache.Set(ctx, key, *q, domrepo.QuoteTTL); err != nil {
		m.log.Warn("quote refresh failed", logger.String("symbol", q.Symbol), logger.Error(err))
	}
	m.metrics.RecordLastPrice(strings.ToUpper(q.Symbol), q.Price)
}

// CachedQuote returns the cached quote without touching any source.
func (m *MarketData) CachedQuote(ctx context.Context, symbol string) *models.Quote {
	key := cache.GenerateKey("quote", strings.ToUpper(symbol))
	if q, ok := cache.GetTyped[models.Quote](ctx, m.cache, key); ok {
		return &q
	}
	return nil
}
