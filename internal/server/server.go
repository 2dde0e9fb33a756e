// Package server implements the transit-gate HTTP surface: the authentication
// middleware, the example City Transit handlers and the listener.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/omarluq/transit-gate/internal/config"
)

// DefaultWriteTimeout applies when server.timeout_ms is unset.
const DefaultWriteTimeout = 60 * time.Second

// Server wraps http.Server with transit-gate configuration.
type Server struct {
	httpServer *http.Server
	addr       string
}

// NewServer creates a Server for cfg.Listen. When cfg.EnableHTTP2 is set the
// handler also accepts HTTP/2 cleartext (h2c) connections.
func NewServer(cfg *config.ServerConfig, handler http.Handler) *Server {
	finalHandler := handler
	if cfg.EnableHTTP2 {
		finalHandler = h2c.NewHandler(handler, &http2.Server{})
	}

	return &Server{
		addr: cfg.Listen,
		httpServer: &http.Server{
			Addr:              cfg.Listen,
			Handler:           finalHandler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      cfg.GetTimeoutOption().OrElse(DefaultWriteTimeout),
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ListenAndServe starts the server (blocks). A graceful shutdown returns nil.
func (s *Server) ListenAndServe() error {
	return ignoreClosed(s.httpServer.ListenAndServe())
}

// Serve accepts connections on ln (blocks). A graceful shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	return ignoreClosed(s.httpServer.Serve(ln))
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
