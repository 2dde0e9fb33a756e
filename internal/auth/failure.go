package auth

import (
	"errors"
	"fmt"

	"github.com/samber/mo"
)

// Reason classifies an authentication failure.
type Reason int

// Failure reasons.
const (
	// ReasonMissing means no credential material was presented for the scheme.
	ReasonMissing Reason = iota + 1
	// ReasonInvalid means material was presented but did not verify.
	ReasonInvalid
	// ReasonUnavailable means the trust store could not be consulted.
	ReasonUnavailable
)

func (r Reason) String() string {
	switch r {
	case ReasonMissing:
		return "missing"
	case ReasonInvalid:
		return "invalid"
	case ReasonUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// HeaderWWWAuthenticate is the challenge header name.
const HeaderWWWAuthenticate = "WWW-Authenticate"

// Challenge is a response header telling the client how to authenticate.
type Challenge struct {
	Header string
	Value  string
}

// Failure describes a rejected request with enough detail to shape a response.
// It never carries the rejected credential.
type Failure struct {
	cause     error
	Challenge mo.Option[Challenge]
	Scheme    Scheme
	Message   string
	Reason    Reason
	Status    int
}

// Error implements error.
func (f *Failure) Error() string {
	return fmt.Sprintf("auth: %s %s: %s", f.Scheme, f.Reason, f.Message)
}

// Unwrap exposes the underlying cause, for example a trust store error.
func (f *Failure) Unwrap() error {
	return f.cause
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// classify maps a verifier error to a failure reason.
func classify(err error) Reason {
	switch {
	case errors.Is(err, ErrCredentialMismatch),
		errors.Is(err, ErrCredentialKind),
		errors.Is(err, ErrEntryNotFound):
		return ReasonInvalid
	default:
		return ReasonUnavailable
	}
}
