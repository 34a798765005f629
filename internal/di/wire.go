//go:build wireinject
// +build wireinject

package di

import (
	"StockCast/pkg/config"
	"StockCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires the full dependency graph.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,
		ProvideSources,
		ProvideClickHouseClient,
		ProvideBarArchive,
		ProvideKafkaProducer,
		ProvidePredictionPublisher,
		ProvideModelLoader,
		ProvideCombiner,
		ProvideMarketData,
		ProvidePrediction,
		ProvideQuoteStreamer,
		ProvideHandler,
		ProvideApp,
	)
	return nil, nil
}
