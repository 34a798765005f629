package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"StockCast/internal/domain/repository"
	"StockCast/internal/usecase"
	"StockCast/pkg/cache"
	pkgch "StockCast/pkg/clickhouse"
	"StockCast/pkg/config"
	xhttp "StockCast/pkg/http"
	"StockCast/pkg/logger"
)

// App owns the application lifecycle: the HTTP server, the optional live
// quote stream, and the infrastructure clients that must be closed on
// shutdown.
type App struct {
	cfg        *config.Config
	log        *logger.Logger
	handler    xhttp.Handler
	streamer   *usecase.QuoteStreamer
	cache      cache.Service
	chClient   *pkgch.Client
	publisher  repository.PredictionPublisher
	httpServer *xhttp.Server
}

// New assembles the app. streamer, chClient, and publisher may be nil when
// the corresponding feature is disabled.
func New(
	cfg *config.Config,
	log *logger.Logger,
	handler xhttp.Handler,
	streamer *usecase.QuoteStreamer,
	cacheSvc cache.Service,
	chClient *pkgch.Client,
	publisher repository.PredictionPublisher,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		streamer:  streamer,
		cache:     cacheSvc,
		chClient:  chClient,
		publisher: publisher,
	}
}

// Run starts the app and blocks until SIGINT/SIGTERM.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.streamer != nil {
		go func() {
			if err := a.streamer.Start(ctx); err != nil {
				a.log.Error("quote stream error", logger.Error(err))
			}
		}()
		a.log.Info("quote stream started", logger.Strings("symbols", a.cfg.Stream.Symbols))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", logger.Error(err))
		return err
	}
	a.log.Info("http server started", logger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

func (a *App) shutdown(ctx context.Context) error {
	if a.streamer != nil {
		if err := a.streamer.Stop(); err != nil {
			a.log.Warn("quote stream stop error", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", logger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", logger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", logger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
