package health

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Probe is a cheap reachability check against one trust backend.
type Probe interface {
	Check(ctx context.Context) error
	Backend() string
}

type probeFunc struct {
	fn      func(ctx context.Context) error
	backend string
}

func (p probeFunc) Check(ctx context.Context) error { return p.fn(ctx) }
func (p probeFunc) Backend() string                 { return p.backend }

// ProbeFunc adapts fn into a Probe for backend.
func ProbeFunc(backend string, fn func(ctx context.Context) error) Probe {
	return probeFunc{fn: fn, backend: backend}
}

// Checker probes backends whose circuit is open so recovery is noticed and
// logged while the breaker cools down.
type Checker struct {
	ctx     context.Context
	tracker *Tracker
	probes  map[string]Probe
	logger  *zerolog.Logger
	cancel  context.CancelFunc
	config  CheckConfig
	wg      sync.WaitGroup
	mu      sync.RWMutex
}

// NewChecker creates a Checker. logger may be nil.
func NewChecker(tracker *Tracker, cfg CheckConfig, logger *zerolog.Logger) *Checker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Checker{
		tracker: tracker,
		config:  cfg,
		probes:  make(map[string]Probe),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register adds or replaces the probe for p.Backend().
func (h *Checker) Register(p Probe) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes[p.Backend()] = p
}

// Start launches the probe loop. It is a no-op when probing is disabled.
func (h *Checker) Start() {
	if !h.config.IsEnabled() {
		if h.logger != nil {
			h.logger.Info().Msg("trust backend health checker disabled")
		}
		return
	}

	interval := h.config.GetInterval()
	jitter := randDuration(interval / 5)
	ticker := time.NewTicker(interval + jitter)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer ticker.Stop()

		if h.logger != nil {
			h.logger.Info().Dur("interval", interval).Dur("jitter", jitter).Msg("trust backend health checker started")
		}
		for {
			select {
			case <-h.ctx.Done():
				return
			case <-ticker.C:
				h.probeOpen()
			}
		}
	}()
}

// Stop ends the probe loop and waits for it. Safe to call more than once.
func (h *Checker) Stop() {
	h.cancel()
	h.wg.Wait()
}

func (h *Checker) probeOpen() {
	h.mu.RLock()
	probes := make([]Probe, 0, len(h.probes))
	for _, p := range h.probes {
		probes = append(probes, p)
	}
	h.mu.RUnlock()

	for _, p := range probes {
		backend := p.Backend()
		if h.tracker.State(backend) != StateOpen {
			continue
		}

		ctx, cancel := context.WithTimeout(h.ctx, h.config.GetProbeTimeout())
		err := p.Check(ctx)
		cancel()

		if err != nil {
			if h.logger != nil {
				h.logger.Debug().Str("backend", backend).Err(err).Msg("trust backend probe failed")
			}
			continue
		}
		if h.logger != nil {
			h.logger.Info().Str("backend", backend).Msg("trust backend reachable again")
		}
		h.tracker.RecordSuccess(backend)
	}
}

// randDuration returns a uniformly random duration in [0, maxDur).
func randDuration(maxDur time.Duration) time.Duration {
	if maxDur <= 0 {
		return 0
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	//nolint:gosec // maxDur is positive
	return time.Duration(binary.LittleEndian.Uint64(b[:]) % uint64(maxDur))
}
