package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/mo"

	"github.com/omarluq/transit-gate/internal/auth"
)

// AuthObserver records authentication outcomes. err is nil on success.
type AuthObserver interface {
	ObserveAuth(name string, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveAuth(string, error) {}

// Selector picks the authenticator guarding a route from the current gate.
type Selector func(g *Gate) auth.Authenticator

// ByScheme selects the single-scheme strategy.
func ByScheme(scheme auth.Scheme) Selector {
	return func(g *Gate) auth.Authenticator {
		if s := g.Strategy(scheme); s != nil {
			return s
		}
		return nil
	}
}

// ByHybrid selects the hybrid combinator.
func ByHybrid() Selector {
	return func(g *Gate) auth.Authenticator {
		return g.Hybrid()
	}
}

// AuthMiddleware authenticates each request with the authenticator pick
// selects from the current gate. On success the Principal is placed on the
// request context; on failure the response carries the failure's status,
// challenge and message and next is not called.
func AuthMiddleware(gates *LiveGate, pick Selector, obs AuthObserver) func(http.Handler) http.Handler {
	if obs == nil {
		obs = nopObserver{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context())

			authenticator := pick(gates.Load())
			if authenticator == nil {
				logger.Error().Str("path", r.URL.Path).Msg("no authenticator configured for route")
				WriteError(w, http.StatusInternalServerError, ErrTypeAuthentication, "Authentication is not configured.")
				return
			}

			start := time.Now()
			principal, err := authenticator.Authenticate(r).Get()
			obs.ObserveAuth(authenticator.Name(), err)

			if err != nil {
				f, ok := auth.AsFailure(err)
				if !ok {
					f = &auth.Failure{
						Scheme:    auth.Scheme(authenticator.Name()),
						Reason:    auth.ReasonUnavailable,
						Status:    http.StatusServiceUnavailable,
						Message:   auth.MessageUnavailable,
						Challenge: mo.None[auth.Challenge](),
					}
				}
				event := logger.Warn()
				if f.Reason == auth.ReasonUnavailable {
					event = logger.Error().AnErr("cause", f.Unwrap())
				}
				event.
					Str("scheme", string(f.Scheme)).
					Str("reason", f.Reason.String()).
					Int("status", f.Status).
					Str("path", r.URL.Path).
					Dur("auth_time", time.Since(start)).
					Msg("authentication failed")
				WriteFailure(w, f)
				return
			}

			logger.Debug().
				Str("auth_method", string(principal.AuthMethod())).
				Dur("auth_time", time.Since(start)).
				Msg("authentication succeeded")
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequestIDMiddleware attaches logger and a request id to every request and
// echoes the id in the response.
func RequestIDMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithRequestID(logger.WithContext(r.Context()), r.Header.Get(HeaderRequestID))
			w.Header().Set(HeaderRequestID, RequestID(ctx))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggingMiddleware logs each completed request at a level chosen by status.
func LoggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			logger := zerolog.Ctx(r.Context())
			var event *zerolog.Event
			switch {
			case rw.statusCode >= 500:
				event = logger.Error()
			case rw.statusCode >= 400:
				event = logger.Warn()
			default:
				event = logger.Info()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.statusCode).
				Dur("duration", time.Since(start)).
				Msgf("%s %s", r.Method, r.URL.Path)
		})
	}
}

// MaxBodyMiddleware caps request bodies when limit is set.
func MaxBodyMiddleware(limit mo.Option[int64]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		n, ok := limit.Get()
		if !ok {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
