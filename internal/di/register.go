package di

import "github.com/samber/do/v2"

// RegisterSingletons registers all service providers as singletons.
// Dependency order:
//  1. Config (no dependencies)
//  2. Logger (Config)
//  3. Metrics (no dependencies)
//  4. HealthTracker (Config, Logger)
//  5. Trust (Config, Logger, HealthTracker, Metrics)
//  6. Auth (Config, Trust)
//  7. Checker (Config, Logger, HealthTracker, Trust)
//  8. Handler (Config, Logger, Metrics, Trust, Auth)
//  9. Server (Config, Handler)
func RegisterSingletons(i do.Injector) {
	do.Provide(i, NewConfig)
	do.Provide(i, NewLogger)
	do.Provide(i, NewMetrics)
	do.Provide(i, NewHealthTracker)
	do.Provide(i, NewTrust)
	do.Provide(i, NewAuth)
	do.Provide(i, NewChecker)
	do.Provide(i, NewHandler)
	do.Provide(i, NewHTTPServer)
}
