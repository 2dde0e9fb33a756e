package auth

import (
	"context"
	"net/http"

	"github.com/samber/mo"
)

// TokenTypeBearer is the token_type returned by the password-grant endpoint.
const TokenTypeBearer = "bearer"

// Token is the password-grant response body.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// TokenIssuer exchanges OAuth2 password-grant credentials for the configured
// access token. The token it hands out is the one the oauth2_password
// strategy accepts.
type TokenIssuer struct {
	store       TrustStore
	accessToken string
}

// NewTokenIssuer creates an issuer backed by the oauth2_password_grant entry.
func NewTokenIssuer(store TrustStore, accessToken string) *TokenIssuer {
	return &TokenIssuer{store: store, accessToken: accessToken}
}

// Issue checks username and password and returns a bearer token.
// The failure carries no challenge header.
func (i *TokenIssuer) Issue(ctx context.Context, username, password string) mo.Result[Token] {
	if err := checkPair(ctx, i.store, TrustKeyOAuth2Grant, username, password); err != nil {
		return mo.Err[Token](issueFailure(SchemeOAuth2Password, "Invalid OAuth username/password.", err))
	}
	return mo.Ok(Token{AccessToken: i.accessToken, TokenType: TokenTypeBearer})
}

// SessionIssuer exchanges basic credentials for a session cookie that the
// api_key_cookie strategy later accepts.
type SessionIssuer struct {
	store  TrustStore
	cookie string
	token  string
}

// NewSessionIssuer creates an issuer checked against the basic entry.
// An empty cookie name selects session_token.
func NewSessionIssuer(store TrustStore, cookie, token string) *SessionIssuer {
	if cookie == "" {
		cookie = DefaultSessionCookie
	}
	return &SessionIssuer{store: store, cookie: cookie, token: token}
}

// Issue checks username and password and returns an HttpOnly, SameSite=Lax
// session cookie without an expiry.
func (i *SessionIssuer) Issue(ctx context.Context, username, password string) mo.Result[*http.Cookie] {
	if err := checkPair(ctx, i.store, string(SchemeBasic), username, password); err != nil {
		return mo.Err[*http.Cookie](issueFailure(SchemeAPIKeyCookie, "Invalid credentials.", err))
	}
	return mo.Ok(&http.Cookie{
		Name:     i.cookie,
		Value:    i.token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func checkPair(ctx context.Context, store TrustStore, key, username, password string) error {
	entry, err := lookupEntry(ctx, store, key)
	matched := matchPair(entry, username, password)
	if err != nil {
		return err
	}
	if !matched {
		return ErrCredentialMismatch
	}
	return nil
}

func issueFailure(scheme Scheme, message string, cause error) *Failure {
	f := &Failure{
		Scheme:    scheme,
		Reason:    classify(cause),
		Status:    http.StatusUnauthorized,
		Message:   message,
		Challenge: mo.None[Challenge](),
		cause:     cause,
	}
	if f.Reason == ReasonUnavailable {
		f.Status = http.StatusServiceUnavailable
		f.Message = MessageUnavailable
	}
	return f
}
