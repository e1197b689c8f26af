//go:build wireinject
// +build wireinject

package di

import (
	"SignalDesk/pkg/config"
	"SignalDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCache,

		// Repositories
		ProvideSignalStore,
		ProvideEventPublisher,
		ProvideMarketData,
		ProvideChannels,

		// Use cases
		ProvideWorkflowService,

		// Delivery
		ProvideHandler,
		ProvideScheduler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
