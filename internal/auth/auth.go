// Package auth implements per-scheme credential verification for transit-gate.
//
// Each scheme is a Strategy composed of an Extractor, a Verifier and a
// ChallengeBuilder. Strategies can be used on their own or combined in a
// Hybrid that accepts the first scheme that succeeds.
package auth

import (
	"net/http"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Scheme identifies an authentication scheme.
type Scheme string

// Supported schemes.
const (
	SchemeBasic          Scheme = "basic"
	SchemeBearer         Scheme = "bearer"
	SchemeAPIKeyHeader   Scheme = "api_key_header"
	SchemeAPIKeyCookie   Scheme = "api_key_cookie"
	SchemeOAuth2Password Scheme = "oauth2_password"
)

// TrustKeyOAuth2Grant is the trust entry checked by the OAuth2 password-grant
// token endpoint. It is separate from the basic entry.
const TrustKeyOAuth2Grant = "oauth2_password_grant"

// Default channel names.
const (
	DefaultAPIKeyHeader  = "x-api-key"
	DefaultSessionCookie = "session_token"
)

var allSchemes = []Scheme{
	SchemeBasic,
	SchemeBearer,
	SchemeAPIKeyHeader,
	SchemeAPIKeyCookie,
	SchemeOAuth2Password,
}

// Schemes returns every supported scheme in declaration order.
func Schemes() []Scheme {
	return append([]Scheme(nil), allSchemes...)
}

// Valid reports whether s is a supported scheme.
func (s Scheme) Valid() bool {
	return lo.Contains(allSchemes, s)
}

func (s Scheme) String() string {
	return string(s)
}

// Authenticator authenticates a single request.
// On failure the Result error is always a *Failure.
type Authenticator interface {
	Authenticate(r *http.Request) mo.Result[Principal]
	Name() string
}

// Principal is the identity produced by a successful verification.
// Only verifiers in this package construct one.
type Principal struct {
	subject string
	method  Scheme
}

func newPrincipal(subject string, method Scheme) Principal {
	return Principal{subject: subject, method: method}
}

// Subject returns the authenticated identifier.
func (p Principal) Subject() string {
	return p.subject
}

// AuthMethod returns the scheme that authenticated the request.
func (p Principal) AuthMethod() Scheme {
	return p.method
}

// IsZero reports whether p was not produced by a verifier.
func (p Principal) IsZero() bool {
	return p.method == ""
}
