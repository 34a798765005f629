package di

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/repository"
	domsvc "StockCast/internal/domain/service"
	"StockCast/internal/handler/api"
	internalrepo "StockCast/internal/repository"
	"StockCast/internal/service/finnhub"
	"StockCast/internal/service/sources/stooq"
	"StockCast/internal/service/sources/yahoo"
	"StockCast/internal/services/ensemble"
	modelsvc "StockCast/internal/services/models"
	"StockCast/internal/usecase"
	"StockCast/pkg/cache"
	pkgch "StockCast/pkg/clickhouse"
	"StockCast/pkg/config"
	xhttp "StockCast/pkg/http"
	pkgkafka "StockCast/pkg/kafka"
	"StockCast/pkg/logger"
	"StockCast/pkg/metrics"
	"StockCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the quote/history cache, layered over Redis when
// configured.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Cache.Backend == "layered" {
		redis, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return cache.NewLayeredCache(redis, cache.WithLayeredMemorySize(cfg.Cache.MaxSize)), nil
	}
	return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MaxSize)), nil
}

// ProvideSources builds the ordered source chain from config.
func ProvideSources(cfg *config.Config, log *logger.Logger) []repository.SourceClient {
	out := make([]repository.SourceClient, 0, len(cfg.Sources.Order))
	for _, name := range cfg.Sources.Order {
		switch name {
		case "yahoo":
			out = append(out, yahoo.New(
				cfg.Sources.Yahoo.BaseURL,
				cfg.Sources.Yahoo.SearchURL,
				cfg.Sources.Yahoo.Timeout,
				log,
			))
		case "stooq":
			out = append(out, stooq.New(cfg.Sources.Stooq.BaseURL, cfg.Sources.Stooq.Timeout, log))
		}
	}
	return out
}

// ProvideClickHouseClient creates the archive's ClickHouse pool and ensures
// the schema. Returns nil when the archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	ch := cfg.Archive.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithAsyncInsert(ch.AsyncInsert, ch.WaitForAsync),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.BarArchiveSchema(archiveTable(cfg))); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

func archiveTable(cfg *config.Config) string {
	table := cfg.Archive.ClickHouse.Table
	if table == "" {
		table = "daily_bars"
	}
	return cfg.Archive.ClickHouse.Database + "." + table
}

// ProvideBarArchive creates the bar archive, nil when disabled.
func ProvideBarArchive(chClient *pkgch.Client, cfg *config.Config) repository.BarArchive {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseBarArchive(chClient.DB(), archiveTable(cfg))
}

// ProvideKafkaProducer creates the event producer, nil when events are
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Events.Enabled {
		return nil, nil
	}
	p := cfg.Events.Producer
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Events.Brokers),
		pkgkafka.WithCompression(p.Compression),
		pkgkafka.WithRequiredAcks(p.RequiredAcks),
		pkgkafka.WithBatchSize(p.BatchSize),
		pkgkafka.WithBatchBytes(p.BatchBytes),
		pkgkafka.WithBatchTimeout(p.Linger),
		pkgkafka.WithTimeouts(p.WriteTimeout, p.ReadTimeout),
		pkgkafka.WithMaxAttempts(p.MaxAttempts),
		pkgkafka.WithAsync(p.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePredictionPublisher creates the Kafka-backed publisher, nil when
// events are disabled.
func ProvidePredictionPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.PredictionPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPredictionPublisher(producer, cfg.Events.Topic)
}

// ProvideModelLoader creates the per-symbol artifact loader.
func ProvideModelLoader(cfg *config.Config, log *logger.Logger) domsvc.ModelLoader {
	artifacts := modelsvc.NewArtifactClient(cfg.Models.ArtifactBaseURL, cfg.Models.LocalDir, cfg.Models.Timeout)
	inference := modelsvc.NewInferenceClient(cfg.Models.InferenceURL, cfg.Models.Timeout)
	return modelsvc.NewLoader(artifacts, inference, log)
}

// ProvideCombiner creates the ensemble combiner.
func ProvideCombiner(cfg *config.Config, log *logger.Logger) (*ensemble.Combiner, error) {
	return ensemble.New(cfg.Models.MarketTimezone, log)
}

// ProvideMarketData creates the aggregator.
func ProvideMarketData(
	c cache.Service,
	sources []repository.SourceClient,
	archive repository.BarArchive,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.MarketData {
	return usecase.NewMarketData(c, sources, archive, m, log)
}

// ProvidePrediction creates the prediction orchestrator.
func ProvidePrediction(
	market *usecase.MarketData,
	loader domsvc.ModelLoader,
	combiner *ensemble.Combiner,
	publisher repository.PredictionPublisher,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.Prediction {
	return usecase.NewPrediction(market, loader, combiner, publisher, m, log)
}

// ProvideQuoteStreamer creates the live quote streamer, nil when the stream
// is disabled.
func ProvideQuoteStreamer(
	cfg *config.Config,
	market *usecase.MarketData,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.QuoteStreamer {
	if !cfg.Stream.Enabled {
		return nil
	}
	stream := finnhub.New(
		cfg.Stream.APIKey,
		cfg.Stream.WebSocketURL,
		cfg.Stream.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		log,
	)
	return usecase.NewQuoteStreamer(stream, market, cfg.Stream.MaxUpdatesPerS, m, log)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(log *logger.Logger, market *usecase.MarketData, prediction *usecase.Prediction) xhttp.Handler {
	return api.NewMarketEchoHandler(log, market, prediction)
}

// ProvideApp assembles the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	handler xhttp.Handler,
	streamer *usecase.QuoteStreamer,
	cacheSvc cache.Service,
	chClient *pkgch.Client,
	publisher repository.PredictionPublisher,
) *server.App {
	return server.New(cfg, log, handler, streamer, cacheSvc, chClient, publisher)
}
