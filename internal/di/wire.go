//go:build wireinject
// +build wireinject

package di

import (
	"CreditRisk/pkg/config"
	"CreditRisk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,

		// Repositories
		ProvideAssessmentPublisher,
		ProvideAssessmentStorage,
		ProvideSnapshotStore,
		ProvideSnapshotCache,
		ProvideSnapshotProvider,

		// Use cases
		ProvideCreditAnalyzer,
		ProvideAssessmentProcessor,
		ProvideKafkaSnapshotHandler,

		// Transport
		ProvideRateLimiter,
		ProvideCreditHandler,
		ProvideHealth,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
