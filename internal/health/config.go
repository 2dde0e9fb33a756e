// Package health guards dynamic trust backends with circuit breakers and
// probes open circuits for recovery.
//
// A breaker moves CLOSED -> OPEN after consecutive lookup failures, stays
// open for a cooldown, then lets a few probe lookups through in HALF-OPEN.
package health

import "time"

// Defaults applied when a field is zero or negative.
const (
	DefaultFailureThreshold = 5
	DefaultOpenDurationMS   = 30000
	DefaultHalfOpenProbes   = 3
	DefaultHealthCheckMS    = 10000
	DefaultProbeTimeoutMS   = 5000
	DefaultHealthEnabled    = true
)

// CircuitBreakerConfig controls when a trust backend is considered down.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failed lookups that opens the circuit.
	FailureThreshold int `yaml:"failure_threshold" toml:"failure_threshold"`

	// OpenDurationMS is how long the circuit stays open before half-open.
	OpenDurationMS int `yaml:"open_duration_ms" toml:"open_duration_ms"`

	// HalfOpenProbes is the number of lookups admitted while half-open.
	HalfOpenProbes int `yaml:"half_open_probes" toml:"half_open_probes"`
}

// GetFailureThreshold returns FailureThreshold or DefaultFailureThreshold.
func (c *CircuitBreakerConfig) GetFailureThreshold() int {
	if c.FailureThreshold <= 0 {
		return DefaultFailureThreshold
	}
	return c.FailureThreshold
}

// GetOpenDuration returns OpenDurationMS as a duration, defaulting to 30s.
func (c *CircuitBreakerConfig) GetOpenDuration() time.Duration {
	if c.OpenDurationMS <= 0 {
		return time.Duration(DefaultOpenDurationMS) * time.Millisecond
	}
	return time.Duration(c.OpenDurationMS) * time.Millisecond
}

// GetHalfOpenProbes returns HalfOpenProbes or DefaultHalfOpenProbes.
func (c *CircuitBreakerConfig) GetHalfOpenProbes() int {
	if c.HalfOpenProbes <= 0 {
		return DefaultHalfOpenProbes
	}
	return c.HalfOpenProbes
}

// CheckConfig controls the background recovery probe.
type CheckConfig struct {
	Enabled        *bool `yaml:"enabled" toml:"enabled"`
	IntervalMS     int   `yaml:"interval_ms" toml:"interval_ms"`
	ProbeTimeoutMS int   `yaml:"probe_timeout_ms" toml:"probe_timeout_ms"`
}

// GetInterval returns IntervalMS as a duration, defaulting to 10s.
func (c *CheckConfig) GetInterval() time.Duration {
	if c.IntervalMS <= 0 {
		return time.Duration(DefaultHealthCheckMS) * time.Millisecond
	}
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// GetProbeTimeout returns ProbeTimeoutMS as a duration, defaulting to 5s.
func (c *CheckConfig) GetProbeTimeout() time.Duration {
	if c.ProbeTimeoutMS <= 0 {
		return time.Duration(DefaultProbeTimeoutMS) * time.Millisecond
	}
	return time.Duration(c.ProbeTimeoutMS) * time.Millisecond
}

// IsEnabled reports whether probing is on. Unset means on.
func (c *CheckConfig) IsEnabled() bool {
	if c.Enabled == nil {
		return DefaultHealthEnabled
	}
	return *c.Enabled
}

// Config groups breaker and probe settings for the trust backend.
type Config struct {
	HealthCheck    CheckConfig          `yaml:"health_check" toml:"health_check"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker" toml:"circuit_breaker"`
}
