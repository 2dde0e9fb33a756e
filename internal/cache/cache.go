// Package cache holds resolved trust entries between remote lookups.
//
// Three backends sit behind one interface:
//   - single: a process-local Ristretto cache
//   - ha: an Olric distributed map shared by every gate replica
//   - disabled: a noop that never hits
//
// Values are opaque bytes; the trust package owns their encoding.
package cache

import (
	"context"
	"time"
)

// Cache stores encoded trust entries keyed by trust key.
// Implementations are safe for concurrent use.
type Cache interface {
	// Get returns ErrNotFound on a miss and ErrClosed after Close.
	Get(ctx context.Context, key string) ([]byte, error)

	// SetWithTTL stores value until ttl elapses.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete is idempotent.
	Delete(ctx context.Context, key string) error

	// Close is idempotent. Later calls return ErrClosed.
	Close() error
}

// Pinger is implemented by backends whose reachability can change at runtime.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Stats is a point-in-time hit/miss snapshot.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// StatsProvider is implemented by backends that count hits locally.
type StatsProvider interface {
	Stats() Stats
}
