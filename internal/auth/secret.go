package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Secret is the SHA-256 digest of a trusted credential value.
// Candidates are hashed before comparison, so the comparison takes the same
// time whatever the candidate's length or the position of a mismatch.
type Secret [sha256.Size]byte

// NewSecret digests a plaintext secret.
func NewSecret(plain string) Secret {
	return sha256.Sum256([]byte(plain))
}

// ParseSecret decodes a hex-encoded SHA-256 digest.
func ParseSecret(digest string) (Secret, error) {
	var s Secret
	raw, err := hex.DecodeString(digest)
	if err != nil {
		return s, fmt.Errorf("auth: decode secret digest: %w", err)
	}
	if len(raw) != sha256.Size {
		return s, fmt.Errorf("auth: secret digest is %d bytes, want %d", len(raw), sha256.Size)
	}
	copy(s[:], raw)
	return s, nil
}

// Hex returns the digest hex-encoded.
func (s Secret) Hex() string {
	return hex.EncodeToString(s[:])
}

// IsZero reports whether s holds no digest.
func (s Secret) IsZero() bool {
	return s == Secret{}
}

// Matches reports whether candidate hashes to s, in constant time.
func (s Secret) Matches(candidate string) bool {
	return s.compare(candidate) == 1
}

// compare returns 1 on match and 0 otherwise so callers can combine
// several checks without branching.
func (s Secret) compare(candidate string) int {
	digest := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(s[:], digest[:])
}

func (Secret) String() string {
	return redacted
}

// matchPair checks a username and password against an entry. Both comparisons
// always run and are combined before the verdict.
func matchPair(entry TrustEntry, username, password string) bool {
	user := entry.Identity.compare(username)
	pass := entry.Secret.compare(password)
	return user&pass == 1
}
