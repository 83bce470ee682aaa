//go:build wireinject
// +build wireinject

package di

import (
	"SqueezeWatch/pkg/config"
	"SqueezeWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,
		ProvideLayeredCache,

		// Repositories
		ProvideMetricStore,
		ProvideWarrantStore,
		ProvideSignalStore,
		ProvideCBStore,
		ProvideTickerStore,
		ProvideConfigStore,
		ProvideAlertPublisher,

		// Engine client
		ProvideEngineClient,
		ProvideSignalEngine,

		// Use cases
		ProvideConfigService,
		ProvideCBTracking,
		ProvideDailyPipeline,
		ProvideBackfill,
		ProvideSignalQuery,

		// Workers and fanout
		ProvideBackfillQueue,
		ProvideLiveHub,
		ProvideBroadcastPipeline,
		ProvideMetricsIngestHandler,
		ProvideWarrantIngestHandler,
		ProvideScheduler,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
