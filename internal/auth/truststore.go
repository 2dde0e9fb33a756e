package auth

import (
	"context"
	"errors"
	"sort"

	"github.com/samber/lo"
)

var (
	// ErrEntryNotFound means the store has no entry for a key.
	// Verifiers treat it as an invalid credential.
	ErrEntryNotFound = errors.New("auth: trust entry not found")

	// ErrStoreUnavailable means the store could not answer.
	// Verifiers report it as ReasonUnavailable, never as an invalid credential.
	ErrStoreUnavailable = errors.New("auth: trust store unavailable")

	// ErrCredentialMismatch means the presented credential did not match.
	ErrCredentialMismatch = errors.New("auth: credential mismatch")

	// ErrCredentialKind means a verifier received a credential of the wrong shape.
	ErrCredentialKind = errors.New("auth: unexpected credential kind")
)

// TrustEntry is the expected credential material for one scheme.
// Token schemes only use Secret; pair schemes compare Identity too.
type TrustEntry struct {
	Subject  string
	Identity Secret
	Secret   Secret
}

// NewTokenEntry builds an entry for a single-value credential.
func NewTokenEntry(subject, token string) TrustEntry {
	return TrustEntry{Subject: subject, Secret: NewSecret(token)}
}

// NewPairEntry builds an entry for a username and password.
func NewPairEntry(subject, username, password string) TrustEntry {
	return TrustEntry{
		Subject:  subject,
		Identity: NewSecret(username),
		Secret:   NewSecret(password),
	}
}

// TrustStore is the authority verifiers consult.
// Lookup returns ErrEntryNotFound when the key is unknown. Any other error
// means the store could not be consulted.
type TrustStore interface {
	Lookup(ctx context.Context, key string) (TrustEntry, error)
}

// TrustStoreFunc adapts a function to TrustStore.
type TrustStoreFunc func(ctx context.Context, key string) (TrustEntry, error)

// Lookup calls f.
func (f TrustStoreFunc) Lookup(ctx context.Context, key string) (TrustEntry, error) {
	return f(ctx, key)
}

// StaticStore is an immutable in-memory TrustStore.
type StaticStore struct {
	entries map[string]TrustEntry
}

// NewStaticStore copies entries into a new store.
func NewStaticStore(entries map[string]TrustEntry) *StaticStore {
	return &StaticStore{entries: lo.Assign(entries)}
}

// Lookup returns the entry for key.
func (s *StaticStore) Lookup(_ context.Context, key string) (TrustEntry, error) {
	entry, ok := s.entries[key]
	if !ok {
		return TrustEntry{}, ErrEntryNotFound
	}
	return entry, nil
}

// Keys returns the stored keys in sorted order.
func (s *StaticStore) Keys() []string {
	keys := lo.Keys(s.entries)
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (s *StaticStore) Len() int {
	return len(s.entries)
}
