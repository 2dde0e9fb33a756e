package di

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"github.com/omarluq/transit-gate/internal/cache"
	"github.com/omarluq/transit-gate/internal/server"
)

// LoggerService wraps the zerolog logger for DI.
type LoggerService struct {
	Logger *zerolog.Logger
	closer io.Closer
}

// NewLogger creates the logger from configuration and installs it as the
// global and default context logger.
func NewLogger(i do.Injector) (*LoggerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)

	logger, closer, err := server.NewLogger(cfgSvc.Get().Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	cache.SetLogger(&logger)

	return &LoggerService{Logger: &logger, closer: closer}, nil
}

// Shutdown implements do.Shutdowner and closes a log file.
func (l *LoggerService) Shutdown() error {
	return l.closer.Close()
}
