package server

import (
	"fmt"
	"sync/atomic"

	"github.com/samber/lo"

	"github.com/omarluq/transit-gate/internal/auth"
	"github.com/omarluq/transit-gate/internal/config"
)

// Gate is every strategy and issuer built from one auth configuration.
// A Gate is immutable; hot reload builds a new one.
type Gate struct {
	strategies map[auth.Scheme]*auth.Strategy
	hybrid     *auth.Hybrid
	tokens     *auth.TokenIssuer
	sessions   *auth.SessionIssuer
}

// NewGate builds the strategies, the hybrid combinator and the issuers for
// cfg, all looking up trust entries in store.
func NewGate(cfg *config.AuthConfig, store auth.TrustStore) (*Gate, error) {
	var challenge []auth.ChallengeOption
	if cfg.Realm != "" {
		challenge = append(challenge, auth.WithRealm(cfg.Realm))
	}
	bearerChallenge := challenge
	if cfg.BearerErrorCodes {
		bearerChallenge = append(append([]auth.ChallengeOption(nil), challenge...), auth.WithErrorCodes())
	}

	strategies := map[auth.Scheme]*auth.Strategy{
		auth.SchemeBasic:          auth.NewBasicStrategy(store, challenge...),
		auth.SchemeBearer:         auth.NewBearerStrategy(store, bearerChallenge...),
		auth.SchemeAPIKeyHeader:   auth.NewAPIKeyHeaderStrategy(store, cfg.APIKeyHeader.Name),
		auth.SchemeAPIKeyCookie:   auth.NewAPIKeyCookieStrategy(store, cfg.Session.Name),
		auth.SchemeOAuth2Password: auth.NewOAuth2PasswordStrategy(store, bearerChallenge...),
	}

	order := cfg.Hybrid.GetOrder()
	members := make([]auth.Authenticator, 0, len(order))
	for _, scheme := range order {
		s, ok := strategies[scheme]
		if !ok {
			return nil, fmt.Errorf("server: hybrid: unknown scheme %q", scheme)
		}
		members = append(members, s)
	}

	return &Gate{
		strategies: strategies,
		hybrid:     auth.NewHybrid(cfg.Hybrid.GetPolicy(), lo.Uniq(members)...),
		tokens:     auth.NewTokenIssuer(store, cfg.OAuth2.Token),
		sessions:   auth.NewSessionIssuer(store, cfg.Session.Name, cfg.Session.Token),
	}, nil
}

// Strategy returns the strategy for scheme, or nil if unknown.
func (g *Gate) Strategy(scheme auth.Scheme) *auth.Strategy {
	return g.strategies[scheme]
}

// Hybrid returns the configured combinator.
func (g *Gate) Hybrid() *auth.Hybrid {
	return g.hybrid
}

// Tokens returns the password-grant token issuer.
func (g *Gate) Tokens() *auth.TokenIssuer {
	return g.tokens
}

// Sessions returns the session cookie issuer.
func (g *Gate) Sessions() *auth.SessionIssuer {
	return g.sessions
}

// LiveGate holds the current Gate. Requests load it once, so each sees
// either the old or the new configuration.
type LiveGate struct {
	current atomic.Pointer[Gate]
}

// NewLiveGate wraps g.
func NewLiveGate(g *Gate) *LiveGate {
	l := &LiveGate{}
	l.current.Store(g)
	return l
}

// Load returns the current gate.
func (l *LiveGate) Load() *Gate {
	return l.current.Load()
}

// Store installs g.
func (l *LiveGate) Store(g *Gate) {
	l.current.Store(g)
}

// Rebuild builds a gate for cfg and installs it. The previous gate stays in
// place on error.
func (l *LiveGate) Rebuild(cfg *config.AuthConfig, store auth.TrustStore) error {
	g, err := NewGate(cfg, store)
	if err != nil {
		return err
	}
	l.Store(g)
	return nil
}
