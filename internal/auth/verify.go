package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/mo"
)

// Verifier checks an extracted credential against the trust store.
// On rejection the Result error wraps ErrCredentialMismatch, ErrCredentialKind,
// ErrEntryNotFound or a store failure.
type Verifier interface {
	Verify(ctx context.Context, cred Credential) mo.Result[Principal]
}

// NewBasicVerifier compares username and password against the basic entry.
func NewBasicVerifier(store TrustStore) Verifier {
	return &pairVerifier{store: store, scheme: SchemeBasic, key: string(SchemeBasic)}
}

// NewTokenVerifier compares a single-value credential against the entry
// stored under the scheme's name.
func NewTokenVerifier(scheme Scheme, store TrustStore) Verifier {
	return &tokenVerifier{store: store, scheme: scheme, key: string(scheme)}
}

type pairVerifier struct {
	store  TrustStore
	scheme Scheme
	key    string
}

func (v *pairVerifier) Verify(ctx context.Context, cred Credential) mo.Result[Principal] {
	pair, ok := cred.(BasicPair)
	if !ok {
		return mo.Err[Principal](fmt.Errorf("%w: %T for %s", ErrCredentialKind, cred, v.scheme))
	}
	entry, err := lookupEntry(ctx, v.store, v.key)
	matched := matchPair(entry, pair.Username, pair.Password)
	if err != nil {
		return mo.Err[Principal](err)
	}
	if !matched {
		return mo.Err[Principal](ErrCredentialMismatch)
	}
	return mo.Ok(newPrincipal(entry.Subject, v.scheme))
}

type tokenVerifier struct {
	store  TrustStore
	scheme Scheme
	key    string
}

func (v *tokenVerifier) Verify(ctx context.Context, cred Credential) mo.Result[Principal] {
	token, ok := tokenValue(cred)
	if !ok || cred.Scheme() != v.scheme && !sameChannel(cred.Scheme(), v.scheme) {
		return mo.Err[Principal](fmt.Errorf("%w: %T for %s", ErrCredentialKind, cred, v.scheme))
	}
	entry, err := lookupEntry(ctx, v.store, v.key)
	matched := entry.Secret.Matches(token)
	if err != nil {
		return mo.Err[Principal](err)
	}
	if !matched {
		return mo.Err[Principal](ErrCredentialMismatch)
	}
	return mo.Ok(newPrincipal(entry.Subject, v.scheme))
}

// lookupEntry consults the store. An unknown key still yields a zero entry
// so the caller runs its comparison before reporting the miss.
func lookupEntry(ctx context.Context, store TrustStore, key string) (TrustEntry, error) {
	if err := ctx.Err(); err != nil {
		return TrustEntry{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	entry, err := store.Lookup(ctx, key)
	switch {
	case err == nil:
		return entry, nil
	case errors.Is(err, ErrEntryNotFound):
		return TrustEntry{}, err
	case errors.Is(err, ErrStoreUnavailable):
		return TrustEntry{}, err
	default:
		return TrustEntry{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}

// sameChannel allows bearer and oauth2 tokens, which share the Authorization
// header, to be checked by either verifier.
func sameChannel(a, b Scheme) bool {
	isBearer := func(s Scheme) bool { return s == SchemeBearer || s == SchemeOAuth2Password }
	return isBearer(a) && isBearer(b)
}
