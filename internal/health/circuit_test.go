package health_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/omarluq/transit-gate/internal/health"
)

const testBackend = "remote"

func newBreaker(threshold, openMS, probes int) *health.CircuitBreaker {
	return health.NewCircuitBreaker(testBackend, health.CircuitBreakerConfig{
		FailureThreshold: threshold,
		OpenDurationMS:   openMS,
		HalfOpenProbes:   probes,
	}, nil)
}

func tripBreaker(t *testing.T, breaker *health.CircuitBreaker, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		done, err := breaker.Allow()
		if err != nil {
			t.Fatalf("failure %d: Allow rejected before threshold: %v", i, err)
		}
		done(errors.New("trust backend timeout"))
	}
}

func TestCircuitBreakerStartsClosed(t *testing.T) {
	t.Parallel()

	breaker := newBreaker(0, 0, 0)
	if breaker.Name() != testBackend {
		t.Errorf("Name() = %q, want %q", breaker.Name(), testBackend)
	}
	if breaker.State() != health.StateClosed {
		t.Errorf("initial state = %s, want closed", breaker.State())
	}
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	t.Parallel()

	breaker := newBreaker(3, 1000, 1)
	tripBreaker(t, breaker, 3)

	if breaker.State() != health.StateOpen {
		t.Fatalf("state = %s, want open", breaker.State())
	}
	if _, err := breaker.Allow(); !errors.Is(err, health.ErrCircuitOpen) {
		t.Errorf("Allow() error = %v, want ErrCircuitOpen", err)
	}
	if breaker.ReportFailure(errors.New("x")) {
		t.Error("ReportFailure recorded while open")
	}
	if breaker.ReportSuccess() {
		t.Error("ReportSuccess recorded while open")
	}
}

func TestCircuitBreakerCanceledIsNotFailure(t *testing.T) {
	t.Parallel()

	breaker := newBreaker(2, 1000, 1)
	for i := 0; i < 5; i++ {
		done, err := breaker.Allow()
		if err != nil {
			t.Fatalf("Allow rejected: %v", err)
		}
		done(context.Canceled)
	}
	if breaker.State() != health.StateClosed {
		t.Errorf("state = %s, want closed after canceled lookups", breaker.State())
	}
}

func TestCircuitBreakerRecovers(t *testing.T) {
	t.Parallel()

	breaker := newBreaker(2, 50, 1)
	tripBreaker(t, breaker, 2)

	time.Sleep(80 * time.Millisecond)
	if breaker.State() != health.StateHalfOpen {
		t.Fatalf("state = %s, want half-open after cooldown", breaker.State())
	}
	if !breaker.ReportSuccess() {
		t.Fatal("probe success not recorded in half-open")
	}
	if breaker.State() != health.StateClosed {
		t.Errorf("state = %s, want closed after probe success", breaker.State())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	breaker := newBreaker(1, 50, 1)
	tripBreaker(t, breaker, 1)

	time.Sleep(80 * time.Millisecond)
	if !breaker.ReportFailure(errors.New("still down")) {
		t.Fatal("half-open failure not recorded")
	}
	if breaker.State() != health.StateOpen {
		t.Errorf("state = %s, want open", breaker.State())
	}
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	var cb health.CircuitBreakerConfig
	if cb.GetFailureThreshold() != health.DefaultFailureThreshold {
		t.Errorf("threshold = %d", cb.GetFailureThreshold())
	}
	if cb.GetOpenDuration() != 30*time.Second {
		t.Errorf("open duration = %s", cb.GetOpenDuration())
	}
	if cb.GetHalfOpenProbes() != health.DefaultHalfOpenProbes {
		t.Errorf("probes = %d", cb.GetHalfOpenProbes())
	}

	var hc health.CheckConfig
	if !hc.IsEnabled() {
		t.Error("checks disabled by default")
	}
	if hc.GetInterval() != 10*time.Second {
		t.Errorf("interval = %s", hc.GetInterval())
	}
	if hc.GetProbeTimeout() != 5*time.Second {
		t.Errorf("probe timeout = %s", hc.GetProbeTimeout())
	}

	off := false
	hc = health.CheckConfig{Enabled: &off, IntervalMS: 250, ProbeTimeoutMS: 40}
	if hc.IsEnabled() {
		t.Error("explicitly disabled checks reported enabled")
	}
	if hc.GetInterval() != 250*time.Millisecond || hc.GetProbeTimeout() != 40*time.Millisecond {
		t.Errorf("unexpected durations %s %s", hc.GetInterval(), hc.GetProbeTimeout())
	}
}
