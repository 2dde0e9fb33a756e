package trust

import (
	"context"
	"time"

	"github.com/omarluq/transit-gate/internal/auth"
)

// Observer receives the latency of every lookup against a backend.
type Observer interface {
	ObserveLookup(backend string, elapsed time.Duration)
}

// Instrument reports each lookup on store to obs under backend.
// A nil obs returns store unchanged.
func Instrument(store auth.TrustStore, backend string, obs Observer) auth.TrustStore {
	if obs == nil {
		return store
	}
	return auth.TrustStoreFunc(func(ctx context.Context, key string) (auth.TrustEntry, error) {
		start := time.Now()
		entry, err := store.Lookup(ctx, key)
		obs.ObserveLookup(backend, time.Since(start))
		return entry, err
	})
}
