package auth

import (
	"net/http"
	"strings"

	"github.com/samber/mo"
)

// Extractor pulls credential material for one scheme out of a request.
// It never judges validity; a malformed or absent credential yields None.
type Extractor interface {
	Extract(r *http.Request) mo.Option[Credential]
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(r *http.Request) mo.Option[Credential]

// Extract calls f.
func (f ExtractorFunc) Extract(r *http.Request) mo.Option[Credential] {
	return f(r)
}

// BasicExtractor reads Authorization: Basic. Bad base64 or a missing colon
// count as absent.
func BasicExtractor() Extractor {
	return ExtractorFunc(func(r *http.Request) mo.Option[Credential] {
		username, password, ok := r.BasicAuth()
		if !ok {
			return mo.None[Credential]()
		}
		return mo.Some[Credential](BasicPair{Username: username, Password: password})
	})
}

// BearerExtractor reads Authorization: Bearer. The scheme token is
// case-insensitive.
func BearerExtractor() Extractor {
	return ExtractorFunc(func(r *http.Request) mo.Option[Credential] {
		tok, ok := bearerToken(r)
		if !ok {
			return mo.None[Credential]()
		}
		return mo.Some[Credential](BearerToken(tok))
	})
}

// OAuth2Extractor reads the same Authorization: Bearer channel as
// BearerExtractor but yields an OAuthToken.
func OAuth2Extractor() Extractor {
	return ExtractorFunc(func(r *http.Request) mo.Option[Credential] {
		tok, ok := bearerToken(r)
		if !ok {
			return mo.None[Credential]()
		}
		return mo.Some[Credential](OAuthToken(tok))
	})
}

// HeaderExtractor reads an API key from the named header.
func HeaderExtractor(name string) Extractor {
	return ExtractorFunc(func(r *http.Request) mo.Option[Credential] {
		key := r.Header.Get(name)
		if key == "" {
			return mo.None[Credential]()
		}
		return mo.Some[Credential](APIKey(key))
	})
}

// CookieExtractor reads a session token from the named cookie.
func CookieExtractor(name string) Extractor {
	return ExtractorFunc(func(r *http.Request) mo.Option[Credential] {
		c, err := r.Cookie(name)
		if err != nil || c.Value == "" {
			return mo.None[Credential]()
		}
		return mo.Some[Credential](SessionToken(c.Value))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, rest, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token := strings.TrimSpace(rest)
	if token == "" {
		return "", false
	}
	return token, true
}
