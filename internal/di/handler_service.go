package di

import (
	"net/http"

	"github.com/samber/do/v2"

	"github.com/omarluq/transit-gate/internal/server"
)

// HandlerService wraps the HTTP handler.
type HandlerService struct {
	Handler http.Handler
}

// NewHandler creates the HTTP handler with all routes and middleware.
func NewHandler(i do.Injector) (*HandlerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	loggerSvc := do.MustInvoke[*LoggerService](i)
	metricsSvc := do.MustInvoke[*MetricsService](i)
	trustSvc := do.MustInvoke[*TrustService](i)
	authSvc := do.MustInvoke[*AuthService](i)

	cfg := cfgSvc.Get()
	handler := server.SetupRoutes(server.RouteDeps{
		Gates:   authSvc.Gates,
		Routes:  server.NewMemoryRouteStore(server.SeedRoutes()...),
		Trust:   trustSvc.Backend,
		Metrics: metricsSvc.Metrics,
		Config:  &cfg.Server,
		Logger:  *loggerSvc.Logger,
	})
	return &HandlerService{Handler: handler}, nil
}
