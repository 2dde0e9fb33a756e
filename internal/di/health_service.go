package di

import (
	"sync"

	"github.com/samber/do/v2"

	"github.com/omarluq/transit-gate/internal/health"
)

// HealthTrackerService wraps the circuit breaker tracker.
type HealthTrackerService struct {
	Tracker *health.Tracker
}

// CheckerService wraps the trust backend prober.
type CheckerService struct {
	Checker *health.Checker
	mu      sync.Mutex
	started bool
}

// NewHealthTracker creates the tracker from trust.health.circuit_breaker.
func NewHealthTracker(i do.Injector) (*HealthTrackerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	loggerSvc := do.MustInvoke[*LoggerService](i)

	return &HealthTrackerService{
		Tracker: health.NewTracker(cfgSvc.Get().Trust.Health.CircuitBreaker, loggerSvc.Logger),
	}, nil
}

// NewChecker creates the checker and registers the remote backend's probe
// when there is one.
func NewChecker(i do.Injector) (*CheckerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	loggerSvc := do.MustInvoke[*LoggerService](i)
	trackerSvc := do.MustInvoke[*HealthTrackerService](i)
	trustSvc := do.MustInvoke[*TrustService](i)

	checker := health.NewChecker(trackerSvc.Tracker, cfgSvc.Get().Trust.Health.HealthCheck, loggerSvc.Logger)
	if probe, ok := trustSvc.Backend.Probe().Get(); ok {
		checker.Register(probe)
		loggerSvc.Logger.Debug().Str("backend", probe.Backend()).Msg("registered trust backend probe")
	}

	return &CheckerService{Checker: checker}, nil
}

// Start launches probing once.
func (c *CheckerService) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	c.Checker.Start()
}

// Shutdown implements do.Shutdowner.
func (c *CheckerService) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		c.Checker.Stop()
		c.started = false
	}
	return nil
}
