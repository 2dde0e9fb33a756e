package di

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/do/v2"

	"github.com/omarluq/transit-gate/internal/config"
	"github.com/omarluq/transit-gate/internal/trust"
)

// trustOpenTimeout bounds backend setup, which may start an embedded
// Olric node or load AWS credentials.
const trustOpenTimeout = 30 * time.Second

// TrustService owns the composed trust backend and its cache.
type TrustService struct {
	Backend *trust.Backend
}

// NewTrust opens the backend selected by trust.backend and reloads its
// static material on config changes.
func NewTrust(i do.Injector) (*TrustService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	loggerSvc := do.MustInvoke[*LoggerService](i)
	trackerSvc := do.MustInvoke[*HealthTrackerService](i)
	metricsSvc := do.MustInvoke[*MetricsService](i)

	ctx, cancel := context.WithTimeout(context.Background(), trustOpenTimeout)
	defer cancel()

	backend, err := trust.Open(ctx, cfgSvc.Get(), trackerSvc.Tracker, metricsSvc.Metrics, *loggerSvc.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open trust backend: %w", err)
	}

	cfgSvc.OnReload(func(next *config.Config) error {
		backend.Reload(next)
		return nil
	})

	return &TrustService{Backend: backend}, nil
}

// Shutdown implements do.Shutdowner and releases the cache.
func (t *TrustService) Shutdown() error {
	return t.Backend.Close()
}
