package trust

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/mo"

	"github.com/omarluq/transit-gate/internal/auth"
	"github.com/omarluq/transit-gate/internal/cache"
	"github.com/omarluq/transit-gate/internal/config"
	"github.com/omarluq/transit-gate/internal/health"
)

// StateStatic is reported by Backend.State for the static backend, which
// has no breaker.
const StateStatic = "static"

// Backend is the composed TrustStore selected by configuration:
// live for static, and remote -> guarded -> cached for remote.
type Backend struct {
	store   auth.TrustStore
	live    *Live
	remote  *Remote
	guarded *Guarded
	cache   cache.Cache
	obs     Observer
	kind    string
}

// Open builds the backend described by cfg.Trust. tracker supplies the
// remote breaker; obs may be nil.
func Open(
	ctx context.Context, cfg *config.Config, tracker *health.Tracker, obs Observer, log zerolog.Logger,
) (*Backend, error) {
	kind := cfg.Trust.GetBackend()
	log = log.With().Str("component", "trust").Str("backend", kind).Logger()

	if !cfg.Trust.IsRemote() {
		live := NewLive(StaticFromConfig(&cfg.Auth))
		log.Info().Strs("keys", live.Current().Keys()).Msg("static trust backend ready")
		return &Backend{
			store: Instrument(live, kind, obs),
			live:  live,
			obs:   obs,
			kind:  kind,
		}, nil
	}

	remote, err := NewRemote(ctx, &cfg.Trust.Remote, WithLogger(log))
	if err != nil {
		return nil, err
	}

	c, err := cache.New(ctx, &cfg.Trust.Cache)
	if err != nil {
		return nil, fmt.Errorf("trust: open cache: %w", err)
	}

	guarded := NewGuarded(Instrument(remote, kind, obs), tracker.Circuit(kind))
	return &Backend{
		store:   NewCached(guarded, c, cfg.Trust.GetCacheTTL(), log),
		remote:  remote,
		guarded: guarded,
		cache:   c,
		obs:     obs,
		kind:    kind,
	}, nil
}

// Lookup delegates to the composed store.
func (b *Backend) Lookup(ctx context.Context, key string) (auth.TrustEntry, error) {
	return b.store.Lookup(ctx, key)
}

// Kind returns static or remote.
func (b *Backend) Kind() string {
	return b.kind
}

// State returns StateStatic, or the remote breaker state
// (closed, open, half-open).
func (b *Backend) State() string {
	if b.guarded == nil {
		return StateStatic
	}
	return b.guarded.State().String()
}

// Snapshot returns the store a gate built for cfg reads from. The static
// backend yields a new immutable store holding cfg's material, so a gate and
// the entries it checks are installed together. The remote chain is shared.
func (b *Backend) Snapshot(cfg *config.Config) auth.TrustStore {
	if b.live == nil {
		return b.store
	}
	return Instrument(StaticFromConfig(&cfg.Auth), b.kind, b.obs)
}

// Reload installs the trust material from cfg. Only the static backend
// holds local material; the remote backend is unaffected.
func (b *Backend) Reload(cfg *config.Config) {
	if b.live != nil {
		b.live.Replace(StaticFromConfig(&cfg.Auth))
	}
}

// Probe returns a reachability probe for the remote backend.
func (b *Backend) Probe() mo.Option[health.Probe] {
	if b.remote == nil {
		return mo.None[health.Probe]()
	}
	return mo.Some(health.ProbeFunc(b.kind, b.remote.Ping))
}

// Close releases the cache, if any.
func (b *Backend) Close() error {
	if b.cache == nil {
		return nil
	}
	return b.cache.Close()
}
