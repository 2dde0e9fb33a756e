// Package trust provides the TrustStore backends behind the auth verifiers:
// a hot-swappable static snapshot, an HTTP trust service, and the circuit
// breaker and cache layers composed in front of it.
package trust

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/omarluq/transit-gate/internal/auth"
)

// Field names of the trust entry document shared by the remote service and
// the cache.
const (
	fieldSubject  = "subject"
	fieldIdentity = "identity_sha256"
	fieldSecret   = "secret_sha256"
)

// ErrMalformedEntry is returned when a trust entry document cannot be decoded.
var ErrMalformedEntry = errors.New("trust: malformed trust entry")

// EncodeEntry renders entry as a JSON document carrying hex digests only.
func EncodeEntry(entry auth.TrustEntry) ([]byte, error) {
	doc, err := sjson.SetBytes(nil, fieldSubject, entry.Subject)
	if err != nil {
		return nil, err
	}
	if !entry.Identity.IsZero() {
		if doc, err = sjson.SetBytes(doc, fieldIdentity, entry.Identity.Hex()); err != nil {
			return nil, err
		}
	}
	return sjson.SetBytes(doc, fieldSecret, entry.Secret.Hex())
}

// DecodeEntry parses a trust entry document. subject and secret_sha256 are
// required; identity_sha256 is present only for username/password schemes.
func DecodeEntry(doc []byte) (auth.TrustEntry, error) {
	if !gjson.ValidBytes(doc) {
		return auth.TrustEntry{}, fmt.Errorf("%w: invalid JSON", ErrMalformedEntry)
	}

	fields := gjson.GetManyBytes(doc, fieldSubject, fieldIdentity, fieldSecret)
	subject, identity, secret := fields[0], fields[1], fields[2]

	if subject.Type != gjson.String || subject.Str == "" {
		return auth.TrustEntry{}, fmt.Errorf("%w: missing %s", ErrMalformedEntry, fieldSubject)
	}
	if secret.Type != gjson.String {
		return auth.TrustEntry{}, fmt.Errorf("%w: missing %s", ErrMalformedEntry, fieldSecret)
	}

	entry := auth.TrustEntry{Subject: subject.Str}
	var err error
	if entry.Secret, err = auth.ParseSecret(secret.Str); err != nil {
		return auth.TrustEntry{}, fmt.Errorf("%w: %w", ErrMalformedEntry, err)
	}
	if identity.Exists() {
		if entry.Identity, err = auth.ParseSecret(identity.String()); err != nil {
			return auth.TrustEntry{}, fmt.Errorf("%w: %w", ErrMalformedEntry, err)
		}
	}
	return entry, nil
}
