package auth

import (
	"fmt"
	"net/http"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// FailurePolicy selects which attempted strategy's challenge a Hybrid
// reports when every strategy fails.
type FailurePolicy string

// Failure policies.
const (
	// PolicyFirst reports the first-tried strategy's challenge.
	PolicyFirst FailurePolicy = "first"
	// PolicyLast reports the last-tried strategy's challenge.
	PolicyLast FailurePolicy = "last"
)

// Valid reports whether p is a known policy.
func (p FailurePolicy) Valid() bool {
	return p == PolicyFirst || p == PolicyLast
}

// MessageHybridFailed is the aggregated failure message. It does not name
// the configured schemes.
const MessageHybridFailed = "Authentication required."

// NameHybrid is the Authenticator name of a Hybrid.
const NameHybrid = "hybrid"

// Hybrid tries strategies in order and accepts the first success.
type Hybrid struct {
	policy     FailurePolicy
	strategies []Authenticator
}

// NewHybrid builds a combinator over strategies, tried in the given order.
// An unknown policy falls back to PolicyFirst.
func NewHybrid(policy FailurePolicy, strategies ...Authenticator) *Hybrid {
	if !policy.Valid() {
		policy = PolicyFirst
	}
	return &Hybrid{
		policy:     policy,
		strategies: append([]Authenticator(nil), strategies...),
	}
}

// Name returns "hybrid".
func (h *Hybrid) Name() string {
	return NameHybrid
}

// Order returns the strategy names in the order they are tried.
func (h *Hybrid) Order() []string {
	return lo.Map(h.strategies, func(a Authenticator, _ int) string {
		return a.Name()
	})
}

// Policy returns the failure policy.
func (h *Hybrid) Policy() FailurePolicy {
	return h.policy
}

type hybridState struct {
	principal mo.Option[Principal]
	failures  []*Failure
}

// Authenticate tries each strategy until one succeeds. The returned
// Principal's AuthMethod names the winning scheme.
func (h *Hybrid) Authenticate(r *http.Request) mo.Result[Principal] {
	if len(h.strategies) == 0 {
		return mo.Err[Principal](&Failure{
			Reason:    ReasonMissing,
			Status:    http.StatusUnauthorized,
			Message:   "no authentication configured",
			Challenge: mo.None[Challenge](),
		})
	}

	state := lo.Reduce(h.strategies, func(acc hybridState, a Authenticator, _ int) hybridState {
		// Stop trying once a strategy has succeeded.
		if acc.principal.IsPresent() {
			return acc
		}
		principal, err := a.Authenticate(r).Get()
		if err == nil {
			acc.principal = mo.Some(principal)
			return acc
		}
		acc.failures = append(acc.failures, asStrategyFailure(a, err))
		return acc
	}, hybridState{principal: mo.None[Principal]()})

	if principal, ok := state.principal.Get(); ok {
		return mo.Ok(principal)
	}
	return mo.Err[Principal](h.aggregate(state.failures))
}

func (h *Hybrid) aggregate(failures []*Failure) *Failure {
	if unavailable, ok := lo.Find(failures, func(f *Failure) bool {
		return f.Reason == ReasonUnavailable
	}); ok {
		return unavailable
	}

	chosen := failures[0]
	if h.policy == PolicyLast {
		chosen = failures[len(failures)-1]
	}
	return &Failure{
		Scheme:    chosen.Scheme,
		Reason:    chosen.Reason,
		Status:    chosen.Status,
		Challenge: chosen.Challenge,
		Message:   MessageHybridFailed,
		cause:     chosen.cause,
	}
}

// asStrategyFailure normalizes a non-Failure error from a custom
// Authenticator into an unavailable failure.
func asStrategyFailure(a Authenticator, err error) *Failure {
	if f, ok := AsFailure(err); ok {
		return f
	}
	return &Failure{
		Scheme:    Scheme(a.Name()),
		Reason:    ReasonUnavailable,
		Status:    http.StatusServiceUnavailable,
		Message:   MessageUnavailable,
		Challenge: mo.None[Challenge](),
		cause:     fmt.Errorf("%w: %w", ErrStoreUnavailable, err),
	}
}
