package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog"
)

type ristrettoCache struct {
	cache *ristretto.Cache[string, []byte]
	log   zerolog.Logger
	guard
}

var (
	_ Cache         = (*ristrettoCache)(nil)
	_ StatsProvider = (*ristrettoCache)(nil)
)

func newRistrettoCache(cfg RistrettoConfig) (*ristrettoCache, error) {
	log := logger().With().Str("backend", "ristretto").Logger()

	bufferItems := cfg.BufferItems
	if bufferItems <= 0 {
		bufferItems = 64
	}

	rc, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: bufferItems,
		Metrics:     true,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create ristretto cache")
		return nil, err
	}

	log.Info().
		Int64("num_counters", cfg.NumCounters).
		Int64("max_cost", cfg.MaxCost).
		Msg("ristretto trust cache created")

	return &ristrettoCache{cache: rc, log: log}, nil
}

func (r *ristrettoCache) Get(ctx context.Context, key string) ([]byte, error) {
	release, err := r.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	value, found := r.cache.Get(key)
	r.log.Debug().Bool("hit", found).Msg("trust cache get")
	if !found {
		return nil, ErrNotFound
	}
	return cloneBytes(value), nil
}

// SetWithTTL waits for the write buffer to drain so a following Get sees
// the entry.
func (r *ristrettoCache) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	release, err := r.enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	admitted := r.cache.SetWithTTL(key, cloneBytes(value), int64(len(value)), ttl)
	r.cache.Wait()
	r.log.Debug().Bool("admitted", admitted).Dur("ttl", ttl).Msg("trust cache set")
	return nil
}

func (r *ristrettoCache) Delete(ctx context.Context, key string) error {
	release, err := r.enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	r.cache.Del(key)
	return nil
}

func (r *ristrettoCache) Close() error {
	r.shut(func() {
		r.cache.Wait()
		r.cache.Close()
		r.log.Info().Msg("ristretto trust cache closed")
	})
	return nil
}

func (r *ristrettoCache) Stats() Stats {
	release, err := r.enter(context.Background())
	if err != nil {
		return Stats{}
	}
	defer release()

	m := r.cache.Metrics
	return Stats{
		Hits:      m.Hits(),
		Misses:    m.Misses(),
		Evictions: m.KeysEvicted(),
	}
}
