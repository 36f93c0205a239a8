//go:build wireinject
// +build wireinject

package di

import (
	"DivPulse/pkg/config"
	"DivPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Upstream plumbing
		ProvideHTTPClient,
		ProvideFetchers,
		ProvideDatasetStore,
		ProvideCache,
		ProvidePublisher,

		// Domain services
		ProvideManager,
		ProvideLimiter,
		ProvideRateLimit,
		ProvideRegistry,
		ProvideCompositor,
		ProvideClassifier,

		// Use cases
		ProvideDataUsecase,
		ProvideNormalizeUsecase,
		ProvideCompositeUsecase,
		ProvideRegimeUsecase,
		ProvideStatusUsecase,

		// Delivery
		ProvideHandler,
		ProvideScheduler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
