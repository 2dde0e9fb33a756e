package config

import "sync/atomic"

// Runtime provides atomic access to configuration for hot-reload support.
// Readers see either the previous or the new configuration, never a mix.
type Runtime struct {
	ptr atomic.Pointer[Config]
}

// NewRuntime creates a new Runtime with the given initial configuration.
func NewRuntime(initial *Config) *Runtime {
	r := &Runtime{}
	r.ptr.Store(initial)
	return r
}

// Get returns the current configuration.
func (r *Runtime) Get() *Config {
	return r.ptr.Load()
}

// Store atomically replaces the configuration. Called from the watcher.
func (r *Runtime) Store(cfg *Config) {
	r.ptr.Store(cfg)
}
