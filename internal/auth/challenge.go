package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/mo"
)

// MessageUnavailable is reported when the trust store cannot be consulted.
const MessageUnavailable = "Credential store unavailable."

// ChallengeBuilder turns a failure reason into a response-ready Failure.
type ChallengeBuilder interface {
	Fail(reason Reason, cause error) *Failure
}

// ChallengeOption customizes a challenge builder.
type ChallengeOption func(*challengeBuilder)

// WithRealm adds a realm parameter to the challenge.
func WithRealm(realm string) ChallengeOption {
	return func(b *challengeBuilder) {
		b.realm = realm
	}
}

// WithErrorCodes adds error="invalid_token" to Bearer challenges for
// invalid tokens.
func WithErrorCodes() ChallengeOption {
	return func(b *challengeBuilder) {
		b.errorCodes = true
	}
}

type challengeBuilder struct {
	scheme     Scheme
	token      string // challenge scheme token; empty for none
	realm      string
	missing    string
	invalid    string
	status     int
	errorCodes bool
}

// BasicChallenge answers with 401 and a Basic challenge.
func BasicChallenge(opts ...ChallengeOption) ChallengeBuilder {
	return build(&challengeBuilder{
		scheme:  SchemeBasic,
		token:   "Basic",
		status:  http.StatusUnauthorized,
		missing: "Missing basic authentication credentials.",
		invalid: "Invalid basic authentication credentials.",
	}, opts)
}

// BearerChallenge answers with 401 and a Bearer challenge.
func BearerChallenge(opts ...ChallengeOption) ChallengeBuilder {
	return build(&challengeBuilder{
		scheme:  SchemeBearer,
		token:   "Bearer",
		status:  http.StatusUnauthorized,
		missing: "Missing bearer token.",
		invalid: "Invalid bearer token.",
	}, opts)
}

// OAuth2Challenge answers with 401 and a Bearer challenge for the
// password-grant token scheme.
func OAuth2Challenge(opts ...ChallengeOption) ChallengeBuilder {
	return build(&challengeBuilder{
		scheme:  SchemeOAuth2Password,
		token:   "Bearer",
		status:  http.StatusUnauthorized,
		missing: "Not authenticated.",
		invalid: "Invalid OAuth2 access token.",
	}, opts)
}

// ForbiddenChallenge answers with 403 and no challenge header. API key
// schemes use it because they have no standard challenge.
func ForbiddenChallenge(scheme Scheme, channel string, opts ...ChallengeOption) ChallengeBuilder {
	return build(&challengeBuilder{
		scheme:  scheme,
		status:  http.StatusForbidden,
		missing: fmt.Sprintf("Missing %s.", channel),
		invalid: fmt.Sprintf("Invalid %s.", channel),
	}, opts)
}

func build(b *challengeBuilder, opts []ChallengeOption) *challengeBuilder {
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *challengeBuilder) Fail(reason Reason, cause error) *Failure {
	f := &Failure{
		Scheme: b.scheme,
		Reason: reason,
		Status: b.status,
		cause:  cause,
	}
	switch reason {
	case ReasonUnavailable:
		f.Status = http.StatusServiceUnavailable
		f.Message = MessageUnavailable
		f.Challenge = mo.None[Challenge]()
		return f
	case ReasonInvalid:
		f.Message = b.invalid
	default:
		f.Message = b.missing
	}
	f.Challenge = b.challenge(reason)
	return f
}

func (b *challengeBuilder) challenge(reason Reason) mo.Option[Challenge] {
	if b.token == "" {
		return mo.None[Challenge]()
	}
	var params []string
	if b.realm != "" {
		params = append(params, fmt.Sprintf("realm=%q", b.realm))
	}
	if b.errorCodes && b.token == "Bearer" && reason == ReasonInvalid {
		params = append(params, `error="invalid_token"`)
	}
	value := b.token
	if len(params) > 0 {
		value += " " + strings.Join(params, ", ")
	}
	return mo.Some(Challenge{Header: HeaderWWWAuthenticate, Value: value})
}
