package health

import (
	"sync"

	"github.com/rs/zerolog"
)

// Tracker owns one CircuitBreaker per trust backend name.
type Tracker struct {
	circuits map[string]*CircuitBreaker
	logger   *zerolog.Logger
	config   CircuitBreakerConfig
	mu       sync.RWMutex
}

// NewTracker creates a Tracker whose breakers share cfg.
func NewTracker(cfg CircuitBreakerConfig, logger *zerolog.Logger) *Tracker {
	return &Tracker{
		circuits: make(map[string]*CircuitBreaker),
		config:   cfg,
		logger:   logger,
	}
}

// Circuit returns the breaker for backend, creating it on first use.
func (t *Tracker) Circuit(backend string) *CircuitBreaker {
	t.mu.RLock()
	cb, ok := t.circuits[backend]
	t.mu.RUnlock()
	if ok {
		return cb
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if cb, ok = t.circuits[backend]; ok {
		return cb
	}
	cb = NewCircuitBreaker(backend, t.config, t.logger)
	t.circuits[backend] = cb
	return cb
}

// State returns the breaker state for backend. Unknown backends are closed.
func (t *Tracker) State(backend string) State {
	t.mu.RLock()
	cb, ok := t.circuits[backend]
	t.mu.RUnlock()
	if !ok {
		return StateClosed
	}
	return cb.State()
}

// IsHealthy reports whether backend's breaker is not open.
func (t *Tracker) IsHealthy(backend string) bool {
	return t.State(backend) != StateOpen
}

// RecordSuccess feeds a successful probe into backend's breaker.
func (t *Tracker) RecordSuccess(backend string) {
	cb := t.Circuit(backend)
	recorded := cb.ReportSuccess()
	if t.logger != nil {
		t.logger.Debug().
			Str("backend", backend).
			Bool("recorded", recorded).
			Str("state", cb.State().String()).
			Msg("recorded success")
	}
}

// AllStates snapshots every known breaker.
func (t *Tracker) AllStates() map[string]State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	states := make(map[string]State, len(t.circuits))
	for name, cb := range t.circuits {
		states[name] = cb.State()
	}
	return states
}
