package di

import (
	"github.com/samber/do/v2"

	"github.com/omarluq/transit-gate/internal/server"
)

// ServerService wraps the HTTP server. The serve command owns its
// lifecycle so the listener drains before other services shut down.
type ServerService struct {
	Server *server.Server
}

// NewHTTPServer creates the server for server.listen.
func NewHTTPServer(i do.Injector) (*ServerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	handlerSvc := do.MustInvoke[*HandlerService](i)

	cfg := cfgSvc.Get()
	return &ServerService{Server: server.NewServer(&cfg.Server, handlerSvc.Handler)}, nil
}
