package trust

import (
	"context"
	"errors"
	"fmt"

	"github.com/omarluq/transit-gate/internal/auth"
	"github.com/omarluq/transit-gate/internal/health"
)

// Guarded puts a circuit breaker in front of a store. An unknown key is an
// answer, not a failure, so it never trips the breaker.
type Guarded struct {
	inner   auth.TrustStore
	circuit *health.CircuitBreaker
}

// NewGuarded wraps inner with circuit.
func NewGuarded(inner auth.TrustStore, circuit *health.CircuitBreaker) *Guarded {
	return &Guarded{inner: inner, circuit: circuit}
}

// Lookup returns an error wrapping auth.ErrStoreUnavailable when the circuit
// is open or the inner store fails.
func (g *Guarded) Lookup(ctx context.Context, key string) (auth.TrustEntry, error) {
	done, err := g.circuit.Allow()
	if err != nil {
		return auth.TrustEntry{}, fmt.Errorf("%w: %s: %w", auth.ErrStoreUnavailable, g.circuit.Name(), err)
	}

	entry, err := g.inner.Lookup(ctx, key)
	switch {
	case err == nil:
		done(nil)
		return entry, nil
	case errors.Is(err, auth.ErrEntryNotFound):
		done(nil)
		return auth.TrustEntry{}, err
	default:
		done(err)
		if errors.Is(err, auth.ErrStoreUnavailable) {
			return auth.TrustEntry{}, err
		}
		return auth.TrustEntry{}, fmt.Errorf("%w: %w", auth.ErrStoreUnavailable, err)
	}
}

// State returns the breaker state.
func (g *Guarded) State() health.State {
	return g.circuit.State()
}
