//go:build wireinject
// +build wireinject

package di

import (
	"PriceWindow/pkg/config"
	"PriceWindow/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// The cleanup releases the cache and sinks and must run after the app stops.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideWindows,

		// Infrastructure
		ProvideCache,
		ProvideOpenCache,
		ProvideSnapshotStore,
		ProvideSnapshotSinks,

		// Price sources
		ProvideTradeBook,
		ProvideSources,
		ProvideSourceChain,
		ProvideClassifier,

		// Use cases
		ProvideWindowClock,
		ProvideSnapshotBuilder,
		ProvideRefresher,
		ProvideTradeCollector,

		// HTTP
		ProvideHTTPHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return nil, nil, nil
}
