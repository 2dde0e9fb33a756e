package server

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/omarluq/transit-gate/internal/auth"
	"github.com/omarluq/transit-gate/internal/config"
	"github.com/omarluq/transit-gate/internal/metrics"
)

// RouteDeps is everything SetupRoutes wires together.
type RouteDeps struct {
	Gates   *LiveGate
	Routes  RouteStore
	Trust   TrustReporter
	Metrics *metrics.Metrics
	Config  *config.ServerConfig
	Logger  zerolog.Logger
}

// SetupRoutes creates the HTTP handler with all routes configured.
//
// Public:
//   - GET /public/health
//   - GET /public/routes
//   - GET /public/routes/{route_id}
//   - POST /session/login, POST /oauth/token (credential exchange)
//   - GET <metrics path>
//
// Protected, one scheme each unless noted:
//   - POST /basic/admin/depots (basic)
//   - GET /bearer/operators/me (bearer)
//   - GET /apikey-header/system-metrics (api_key_header)
//   - GET /apikey-cookie/incidents (api_key_cookie)
//   - GET /oauth/profile, POST /oauth/dispatches (oauth2_password). The
//     profile's auth_method is the scheme name "oauth2_password", with an
//     underscore like every other scheme, not "oauth2-password".
//   - GET /hybrid/alerts (hybrid)
//
// Middleware order: metrics, request id, logging, body limit, then auth on
// protected routes.
func SetupRoutes(deps RouteDeps) http.Handler {
	h := NewHandlers(deps.Routes, deps.Gates, deps.Trust)

	var observer AuthObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}
	protect := func(pick Selector, fn http.HandlerFunc) http.Handler {
		return AuthMiddleware(deps.Gates, pick, observer)(fn)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /public/health", h.Health)
	mux.HandleFunc("GET /public/routes", h.ListRoutes)
	mux.HandleFunc("GET /public/routes/{route_id}", h.GetRoute)
	mux.HandleFunc("POST /session/login", h.SessionLogin)
	mux.HandleFunc("POST /oauth/token", h.Token)

	mux.Handle("POST /basic/admin/depots", protect(ByScheme(auth.SchemeBasic), h.CreateDepot))
	mux.Handle("GET /bearer/operators/me", protect(ByScheme(auth.SchemeBearer), h.Profile))
	mux.Handle("GET /apikey-header/system-metrics", protect(ByScheme(auth.SchemeAPIKeyHeader), h.SystemMetrics))
	mux.Handle("GET /apikey-cookie/incidents", protect(ByScheme(auth.SchemeAPIKeyCookie), h.Incidents))
	mux.Handle("GET /oauth/profile", protect(ByScheme(auth.SchemeOAuth2Password), h.Profile))
	mux.Handle("POST /oauth/dispatches", protect(ByScheme(auth.SchemeOAuth2Password), h.CreateDispatch))
	mux.Handle("GET /hybrid/alerts", protect(ByHybrid(), h.HybridAlert))

	cfg := deps.Config
	if cfg == nil {
		cfg = &config.ServerConfig{}
	}

	var handler http.Handler = mux
	handler = MaxBodyMiddleware(cfg.GetMaxBodyBytesOption())(handler)
	handler = LoggingMiddleware()(handler)
	handler = RequestIDMiddleware(deps.Logger)(handler)

	if deps.Metrics == nil {
		return handler
	}
	mux.Handle("GET "+cfg.GetMetricsPath(), deps.Metrics.Handler())
	return deps.Metrics.Middleware(handler)
}
