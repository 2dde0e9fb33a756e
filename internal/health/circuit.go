package health

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// State is the breaker state.
type State = gobreaker.State

// Breaker states.
const (
	StateClosed   = gobreaker.StateClosed
	StateOpen     = gobreaker.StateOpen
	StateHalfOpen = gobreaker.StateHalfOpen
)

// CircuitBreaker tracks one trust backend. Callers bracket each lookup with
// Allow and the returned done func.
type CircuitBreaker struct {
	cb   *gobreaker.TwoStepCircuitBreaker[struct{}]
	name string
}

// NewCircuitBreaker creates a breaker for the named backend. logger may be nil.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig, logger *zerolog.Logger) *CircuitBreaker {
	threshold := uint32(cfg.GetFailureThreshold()) //nolint:gosec // getter never returns <= 0
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(cfg.GetHalfOpenProbes()), //nolint:gosec // getter never returns <= 0
		Timeout:     cfg.GetOpenDuration(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger == nil {
				return
			}
			event := logger.Info()
			if to == gobreaker.StateOpen {
				event = logger.Warn()
			}
			event.
				Str("backend", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("trust backend circuit state change")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &CircuitBreaker{
		cb:   gobreaker.NewTwoStepCircuitBreaker[struct{}](settings),
		name: name,
	}
}

// Allow admits one lookup. done must be called with the lookup's outcome.
func (c *CircuitBreaker) Allow() (done func(err error), err error) {
	d, err := c.cb.Allow()
	if err != nil {
		return nil, ErrCircuitOpen
	}
	return d, nil
}

// State returns the current breaker state.
func (c *CircuitBreaker) State() State {
	return c.cb.State()
}

// Name returns the backend name.
func (c *CircuitBreaker) Name() string {
	return c.name
}

// ReportSuccess records a success if the breaker admits it.
// An open breaker only moves to half-open once its cooldown elapses.
func (c *CircuitBreaker) ReportSuccess() bool {
	done, err := c.Allow()
	if err != nil {
		return false
	}
	done(nil)
	return true
}

// ReportFailure records a failure if the breaker admits it.
func (c *CircuitBreaker) ReportFailure(err error) bool {
	done, allowErr := c.Allow()
	if allowErr != nil {
		return false
	}
	done(err)
	return true
}
