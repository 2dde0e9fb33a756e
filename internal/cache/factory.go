package cache

import (
	"context"
	"fmt"
	"time"
)

// New validates cfg and starts the selected backend. ctx bounds Olric startup.
func New(ctx context.Context, cfg *Config) (Cache, error) {
	log := logger().With().Str("mode", string(cfg.Mode)).Logger()
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		c   Cache
		err error
	)
	switch cfg.Mode {
	case ModeSingle:
		c, err = newRistrettoCache(cfg.Ristretto)
	case ModeHA:
		c, err = newOlricCache(ctx, &cfg.Olric)
	case ModeDisabled:
		c = newNoopCache()
	default:
		return nil, fmt.Errorf("cache: unknown mode %q", cfg.Mode)
	}
	if err != nil {
		log.Error().Err(err).Msg("trust cache initialization failed")
		return nil, err
	}

	log.Info().Dur("init_time", time.Since(start)).Msg("trust cache ready")
	return c, nil
}
