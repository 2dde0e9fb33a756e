package trust

import (
	"context"
	"sync/atomic"

	"github.com/omarluq/transit-gate/internal/auth"
	"github.com/omarluq/transit-gate/internal/config"
)

// Live serves lookups from the current static snapshot. Replace swaps the
// snapshot atomically, so a lookup sees either the old or the new one.
type Live struct {
	ptr atomic.Pointer[auth.StaticStore]
}

// NewLive creates a Live store holding initial.
func NewLive(initial *auth.StaticStore) *Live {
	l := &Live{}
	l.ptr.Store(initial)
	return l
}

// Lookup reads from the current snapshot.
func (l *Live) Lookup(ctx context.Context, key string) (auth.TrustEntry, error) {
	return l.ptr.Load().Lookup(ctx, key)
}

// Replace installs a new snapshot.
func (l *Live) Replace(store *auth.StaticStore) {
	l.ptr.Store(store)
}

// Current returns the snapshot in use.
func (l *Live) Current() *auth.StaticStore {
	return l.ptr.Load()
}

// StaticFromConfig builds the snapshot of every scheme's trust entry from
// the auth section. Keys are scheme names plus auth.TrustKeyOAuth2Grant.
func StaticFromConfig(a *config.AuthConfig) *auth.StaticStore {
	return auth.NewStaticStore(map[string]auth.TrustEntry{
		string(auth.SchemeBasic):          auth.NewPairEntry(a.Basic.GetSubject(), a.Basic.Username, a.Basic.Password),
		string(auth.SchemeBearer):         auth.NewTokenEntry(a.Bearer.Subject, a.Bearer.Token),
		string(auth.SchemeAPIKeyHeader):   auth.NewTokenEntry(a.APIKeyHeader.Subject, a.APIKeyHeader.Token),
		string(auth.SchemeAPIKeyCookie):   auth.NewTokenEntry(a.Session.Subject, a.Session.Token),
		string(auth.SchemeOAuth2Password): auth.NewTokenEntry(a.OAuth2.Subject, a.OAuth2.Token),
		auth.TrustKeyOAuth2Grant:          auth.NewPairEntry(a.OAuth2.Subject, a.OAuth2.Username, a.OAuth2.Password),
	})
}
