package usecase

import (
	"context"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	"StockCast/internal/service/ratelimit"
	"StockCast/pkg/logger"
)

// QuoteStreamer consumes live ticks and keeps cached quotes warm between
// provider polls. Ticks are throttled per symbol; a dropped tick costs
// nothing because a fresher one follows immediately.
type QuoteStreamer struct {
	stream  drepo.QuoteStream
	market  *MarketData
	limiter *ratelimit.Limiter
	maxRate float64 // accepted updates per second per symbol
	metrics drepo.Metrics
	log     *logger.Logger
}

// NewQuoteStreamer creates a streamer. maxRate bounds accepted updates per
// second per symbol; zero or negative disables throttling.
func NewQuoteStreamer(stream drepo.QuoteStream, market *MarketData, maxRate float64, metrics drepo.Metrics, log *logger.Logger) *QuoteStreamer {
	return &QuoteStreamer{
		stream:  stream,
		market:  market,
		limiter: ratelimit.New(),
		maxRate: maxRate,
		metrics: metrics,
		log:     log,
	}
}

// IsConnected reports the underlying stream status.
func (s *QuoteStreamer) IsConnected() bool {
	return s.stream.IsConnected()
}

// Start connects, subscribes, and launches the consume loop.
func (s *QuoteStreamer) Start(ctx context.Context) error {
	if err := s.stream.Connect(ctx); err != nil {
		return err
	}
	if err := s.stream.Subscribe(ctx); err != nil {
		return err
	}
	tickCh, errCh := s.stream.Read(ctx)
	go s.consume(ctx, tickCh, errCh)
	return nil
}

// consume drains the stream until ctx is done. On a stream error both
// channels close, so a successful reconnect must re-acquire fresh ones.
func (s *QuoteStreamer) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok || err != nil {
				if err != nil {
					s.metrics.RecordError("stream")
					s.log.Warn("quote stream error, reconnecting", logger.Error(err))
				}
				if rerr := s.stream.Reconnect(ctx); rerr != nil {
					s.log.Error("quote stream reconnect failed", logger.Error(rerr))
					return
				}
				tickCh, errCh = s.stream.Read(ctx)
			}
		case t, ok := <-tickCh:
			if !ok {
				tickCh = nil
				continue
			}
			if t == nil || t.Symbol == "" || t.Price <= 0 {
				continue
			}
			if s.maxRate > 0 && !s.limiter.Allow(t.Symbol, s.maxRate, s.maxRate) {
				continue
			}
			s.apply(ctx, t)
		}
	}
}

// apply folds a tick into the cached quote. The previous snapshot supplies
// the fields a tick lacks; the replacement is wholesale, never a partial
// mutation.
func (s *QuoteStreamer) apply(ctx context.Context, t *models.Tick) {
	fresh := &models.Quote{
		Symbol:    t.Symbol,
		Price:     t.Price,
		Volume:    t.Volume,
		Timestamp: time.Unix(t.Timestamp, 0),
	}
	if prev := s.market.CachedQuote(ctx, t.Symbol); prev != nil {
		fresh.Name = prev.Name
		fresh.Open = prev.Open
		fresh.High = prev.High
		fresh.Low = prev.Low
		fresh.MarketCap = prev.MarketCap
		if fresh.High < t.Price {
			fresh.High = t.Price
		}
		if fresh.Low > t.Price && t.Price > 0 {
			fresh.Low = t.Price
		}
		if prev.Open > 0 {
			fresh.Change = t.Price - prev.Open
			fresh.ChangePercent = fresh.Change / prev.Open * 100
		}
		fresh.Volume = prev.Volume + t.Volume
	}
	s.market.RefreshQuote(ctx, fresh)
}

// Stop closes the stream.
func (s *QuoteStreamer) Stop() error {
	return s.stream.Close()
}
