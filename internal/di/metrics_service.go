package di

import (
	"github.com/samber/do/v2"

	"github.com/omarluq/transit-gate/internal/metrics"
)

// MetricsService wraps the Prometheus collectors.
type MetricsService struct {
	Metrics *metrics.Metrics
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics(_ do.Injector) (*MetricsService, error) {
	return &MetricsService{Metrics: metrics.New()}, nil
}
