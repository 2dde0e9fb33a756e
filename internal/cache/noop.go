package cache

import (
	"context"
	"sync/atomic"
	"time"
)

// noopCache never stores anything; every Get misses.
type noopCache struct {
	closed atomic.Bool
}

var _ Cache = (*noopCache)(nil)

func newNoopCache() *noopCache {
	log := logger()
	log.Debug().Str("backend", "noop").Msg("trust caching disabled")
	return &noopCache{}
}

func (c *noopCache) Get(context.Context, string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return nil, ErrNotFound
}

func (c *noopCache) SetWithTTL(context.Context, string, []byte, time.Duration) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (c *noopCache) Delete(context.Context, string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (c *noopCache) Close() error {
	c.closed.Store(true)
	return nil
}
