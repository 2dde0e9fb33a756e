package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/omarluq/transit-gate/internal/config"
)

// HeaderRequestID carries the request id in and out.
const HeaderRequestID = "X-Request-ID"

type ctxKey string

const requestIDKey ctxKey = "req_id"

// NewLogger builds a zerolog.Logger from cfg. Console output is used when
// pretty is requested, or when format is not json and the output is a TTY.
// The returned closer releases a log file and is a no-op otherwise.
func NewLogger(cfg config.LoggingConfig) (zerolog.Logger, io.Closer, error) {
	out, file, err := openLogOutput(cfg.Output)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("logging: open output: %w", err)
	}

	var w io.Writer = out
	if usePretty(cfg, file) {
		w = zerolog.ConsoleWriter{
			Out:           out,
			TimeFormat:    "15:04:05",
			FormatMessage: func(i any) string { return fmt.Sprintf("-> %v", i) },
		}
	}

	logger := zerolog.New(w).
		Level(cfg.ParseLevel()).
		With().
		Timestamp().
		Logger()

	var closer io.Closer = nopCloser{}
	if file != os.Stdout && file != os.Stderr {
		closer = file
	}
	return logger, closer, nil
}

func openLogOutput(output string) (io.Writer, *os.File, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, os.Stdout, nil
	case "stderr":
		return os.Stderr, os.Stderr, nil
	default:
		f, err := os.OpenFile(filepath.Clean(output), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, err
		}
		return f, f, nil
	}
}

func usePretty(cfg config.LoggingConfig, file *os.File) bool {
	if cfg.Pretty || cfg.Format == "pretty" {
		return true
	}
	if cfg.Format == "json" {
		return false
	}
	return file != nil && isatty.IsTerminal(file.Fd())
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// WithRequestID stores id on ctx and on the context logger. An empty id is
// replaced with a fresh UUID.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	ctx = context.WithValue(ctx, requestIDKey, id)
	logger := zerolog.Ctx(ctx).With().Str("req_id", id).Logger()
	return logger.WithContext(ctx)
}

// RequestID returns the id stored by WithRequestID.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
