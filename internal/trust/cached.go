package trust

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/omarluq/transit-gate/internal/auth"
	"github.com/omarluq/transit-gate/internal/cache"
)

const cacheKeyPrefix = "trust:"

// Cached serves repeat lookups from a cache.Cache. Only found entries are
// cached; misses and failures always reach the inner store. A cache error
// degrades to an inner lookup.
type Cached struct {
	inner auth.TrustStore
	cache cache.Cache
	log   zerolog.Logger
	ttl   time.Duration
}

// NewCached wraps inner with c, keeping entries for ttl.
func NewCached(inner auth.TrustStore, c cache.Cache, ttl time.Duration, log zerolog.Logger) *Cached {
	return &Cached{inner: inner, cache: c, ttl: ttl, log: log}
}

// Lookup returns the cached entry for key or fetches and caches it.
func (c *Cached) Lookup(ctx context.Context, key string) (auth.TrustEntry, error) {
	ck := cacheKeyPrefix + key

	raw, err := c.cache.Get(ctx, ck)
	switch {
	case err == nil:
		entry, decodeErr := DecodeEntry(raw)
		if decodeErr == nil {
			return entry, nil
		}
		c.log.Warn().Err(decodeErr).Str("key", key).Msg("dropping undecodable cached trust entry")
		if delErr := c.cache.Delete(ctx, ck); delErr != nil {
			c.log.Debug().Err(delErr).Msg("trust cache delete failed")
		}
	case !errors.Is(err, cache.ErrNotFound):
		c.log.Debug().Err(err).Str("key", key).Msg("trust cache get failed")
	}

	entry, err := c.inner.Lookup(ctx, key)
	if err != nil {
		return auth.TrustEntry{}, err
	}

	doc, err := EncodeEntry(entry)
	if err != nil {
		c.log.Debug().Err(err).Msg("trust entry encode failed")
		return entry, nil
	}
	if err := c.cache.SetWithTTL(ctx, ck, doc, c.ttl); err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("trust cache set failed")
	}
	return entry, nil
}

// Invalidate drops key from the cache.
func (c *Cached) Invalidate(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, cacheKeyPrefix+key)
}
