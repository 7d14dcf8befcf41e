//go:build wireinject
// +build wireinject

package di

import (
	"catalytics/pkg/config"
	"catalytics/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideSnapshotStore,
		ProvideKafkaProducer,
		ProvideHTTPClient,
		ProvideRedisClient,
		ProvideBenchmarkCache,

		// Repositories and upstreams
		ProvideSnapshotPublisher,
		ProvideMarketData,
		ProvideBenchmarkSource,

		// Use cases
		ProvideIngestProcessor,
		ProvideIndexUseCase,
		ProvideRSPSUseCase,
		ProvideCorrelationUseCase,
		ProvideMarketUseCase,

		// Transports
		ProvideHandlers,
		ProvideKafkaConsumer,
		ProvideKafkaSnapshotsHandler,
		ProvideJobQueue,
		ProvideScheduler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil, nil
}
