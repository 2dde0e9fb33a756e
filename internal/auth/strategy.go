package auth

import (
	"fmt"
	"net/http"

	"github.com/samber/mo"
)

// Strategy binds an extractor, a verifier and a challenge builder into one
// named scheme. It holds no per-request state and is safe for concurrent use.
type Strategy struct {
	extractor Extractor
	verifier  Verifier
	challenge ChallengeBuilder
	scheme    Scheme
}

// NewStrategy composes a strategy from its parts.
func NewStrategy(scheme Scheme, extractor Extractor, verifier Verifier, challenge ChallengeBuilder) *Strategy {
	return &Strategy{
		scheme:    scheme,
		extractor: extractor,
		verifier:  verifier,
		challenge: challenge,
	}
}

// NewBasicStrategy authenticates Authorization: Basic against the basic entry.
func NewBasicStrategy(store TrustStore, opts ...ChallengeOption) *Strategy {
	return NewStrategy(SchemeBasic, BasicExtractor(), NewBasicVerifier(store), BasicChallenge(opts...))
}

// NewBearerStrategy authenticates Authorization: Bearer against the bearer entry.
func NewBearerStrategy(store TrustStore, opts ...ChallengeOption) *Strategy {
	return NewStrategy(SchemeBearer, BearerExtractor(), NewTokenVerifier(SchemeBearer, store), BearerChallenge(opts...))
}

// NewAPIKeyHeaderStrategy authenticates an API key header. An empty header
// name selects x-api-key.
func NewAPIKeyHeaderStrategy(store TrustStore, header string) *Strategy {
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	return NewStrategy(
		SchemeAPIKeyHeader,
		HeaderExtractor(header),
		NewTokenVerifier(SchemeAPIKeyHeader, store),
		ForbiddenChallenge(SchemeAPIKeyHeader, header+" header"),
	)
}

// NewAPIKeyCookieStrategy authenticates a session cookie. An empty cookie
// name selects session_token.
func NewAPIKeyCookieStrategy(store TrustStore, cookie string) *Strategy {
	if cookie == "" {
		cookie = DefaultSessionCookie
	}
	return NewStrategy(
		SchemeAPIKeyCookie,
		CookieExtractor(cookie),
		NewTokenVerifier(SchemeAPIKeyCookie, store),
		ForbiddenChallenge(SchemeAPIKeyCookie, cookie+" cookie"),
	)
}

// NewOAuth2PasswordStrategy authenticates a password-grant access token
// against the oauth2_password entry.
func NewOAuth2PasswordStrategy(store TrustStore, opts ...ChallengeOption) *Strategy {
	return NewStrategy(
		SchemeOAuth2Password,
		OAuth2Extractor(),
		NewTokenVerifier(SchemeOAuth2Password, store),
		OAuth2Challenge(opts...),
	)
}

// Name returns the scheme name.
func (s *Strategy) Name() string {
	return string(s.scheme)
}

// Scheme returns the strategy's scheme.
func (s *Strategy) Scheme() Scheme {
	return s.scheme
}

// Authenticate runs extract, verify and, on failure, the challenge builder.
func (s *Strategy) Authenticate(r *http.Request) mo.Result[Principal] {
	cred, ok := s.extractor.Extract(r).Get()
	if !ok {
		return mo.Err[Principal](s.challenge.Fail(ReasonMissing, nil))
	}

	principal, err := s.verifier.Verify(r.Context(), cred).Get()
	if err != nil {
		return mo.Err[Principal](s.challenge.Fail(classify(err), err))
	}
	return mo.Ok(principal)
}

// String describes the strategy without exposing trust material.
func (s *Strategy) String() string {
	return fmt.Sprintf("Strategy(%s)", s.scheme)
}
