package di

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/omarluq/transit-gate/internal/config"
	"github.com/omarluq/transit-gate/internal/server"
)

// AuthService holds the live gate: every strategy, the hybrid combinator
// and the issuers.
type AuthService struct {
	Gates *server.LiveGate
}

// NewAuth builds the gate over a trust snapshot and rebuilds it on config
// changes. Each gate carries its own snapshot, so installing the gate swaps
// strategies, issuers and trust entries in one step.
func NewAuth(i do.Injector) (*AuthService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	trustSvc := do.MustInvoke[*TrustService](i)

	gate, err := server.NewGate(&cfgSvc.Get().Auth, trustSvc.Backend.Snapshot(cfgSvc.Get()))
	if err != nil {
		return nil, fmt.Errorf("failed to build auth gate: %w", err)
	}

	svc := &AuthService{Gates: server.NewLiveGate(gate)}
	cfgSvc.OnReload(func(next *config.Config) error {
		return svc.Gates.Rebuild(&next.Auth, trustSvc.Backend.Snapshot(next))
	})
	return svc, nil
}
