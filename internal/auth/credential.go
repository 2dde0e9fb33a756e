package auth

const redacted = "[REDACTED]"

// Credential is raw credential material pulled from a request.
// It lives for one request and formats as redacted so it cannot leak into logs.
type Credential interface {
	Scheme() Scheme
	isCredential()
}

// BasicPair is a decoded Basic username and password.
type BasicPair struct {
	Username string
	Password string
}

// BearerToken is the token of an Authorization: Bearer header.
type BearerToken string

// APIKey is a key read from a request header.
type APIKey string

// SessionToken is a token read from the session cookie.
type SessionToken string

// OAuthToken is an access token previously issued by the password-grant endpoint.
type OAuthToken string

func (BasicPair) Scheme() Scheme    { return SchemeBasic }
func (BearerToken) Scheme() Scheme  { return SchemeBearer }
func (APIKey) Scheme() Scheme       { return SchemeAPIKeyHeader }
func (SessionToken) Scheme() Scheme { return SchemeAPIKeyCookie }
func (OAuthToken) Scheme() Scheme   { return SchemeOAuth2Password }

func (BasicPair) isCredential()    {}
func (BearerToken) isCredential()  {}
func (APIKey) isCredential()       {}
func (SessionToken) isCredential() {}
func (OAuthToken) isCredential()   {}

func (BasicPair) String() string    { return "BasicPair{" + redacted + "}" }
func (BearerToken) String() string  { return redacted }
func (APIKey) String() string       { return redacted }
func (SessionToken) String() string { return redacted }
func (OAuthToken) String() string   { return redacted }

func (p BasicPair) GoString() string    { return p.String() }
func (t BearerToken) GoString() string  { return t.String() }
func (k APIKey) GoString() string       { return k.String() }
func (t SessionToken) GoString() string { return t.String() }
func (t OAuthToken) GoString() string   { return t.String() }

// tokenValue returns the secret carried by single-value credentials.
func tokenValue(c Credential) (string, bool) {
	switch v := c.(type) {
	case BearerToken:
		return string(v), true
	case APIKey:
		return string(v), true
	case SessionToken:
		return string(v), true
	case OAuthToken:
		return string(v), true
	default:
		return "", false
	}
}
