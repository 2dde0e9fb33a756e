package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"github.com/omarluq/transit-gate/internal/config"
)

// ConfigService holds the live configuration and the file watcher that
// hot-reloads it.
type ConfigService struct {
	runtime *config.Runtime
	watcher *config.Watcher
	path    string
}

// Get returns the current configuration.
func (c *ConfigService) Get() *config.Config {
	return c.runtime.Get()
}

// Path returns the loaded config file path.
func (c *ConfigService) Path() string {
	return c.path
}

// OnReload registers cb to run after the file changed and validated.
// It is a no-op when hot reload is unavailable.
func (c *ConfigService) OnReload(cb config.ReloadCallback) {
	if c.watcher == nil {
		return
	}
	c.watcher.OnReload(cb)
}

// Reload re-reads the file immediately. It reports whether a valid config
// was published.
func (c *ConfigService) Reload() bool {
	if c.watcher == nil {
		return false
	}
	return c.watcher.Reload()
}

// StartWatching starts publishing file changes until ctx ends.
// Call it after every service that registers OnReload has been resolved.
func (c *ConfigService) StartWatching(ctx context.Context) {
	if c.watcher == nil {
		return
	}

	go func() {
		if err := c.watcher.Watch(ctx); err != nil {
			log.Error().Err(err).Msg("config watcher error")
		}
	}()

	log.Info().Str("path", c.path).Msg("config file watcher started")
}

// Shutdown implements do.Shutdowner.
func (c *ConfigService) Shutdown() error {
	if c.watcher == nil {
		return nil
	}
	return c.watcher.Close()
}

// NewConfig loads and validates the configuration and creates its watcher.
// The first callback it registers swaps the runtime snapshot.
func NewConfig(i do.Injector) (*ConfigService, error) {
	path := do.MustInvokeNamed[string](i, ConfigPathKey)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	svc := &ConfigService{
		runtime: config.NewRuntime(cfg),
		path:    path,
	}

	watcher, err := config.NewWatcher(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("config watcher creation failed, hot-reload disabled")
		return svc, nil
	}
	svc.watcher = watcher
	watcher.OnReload(func(next *config.Config) error {
		svc.runtime.Store(next)
		return nil
	})

	return svc, nil
}
