// Package metrics exposes Prometheus counters for authentication outcomes,
// trust lookups and HTTP traffic on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omarluq/transit-gate/internal/auth"
)

const namespace = "transit_gate"

// Outcome labels for auth attempts.
const (
	OutcomeSuccess = "success"
)

// MethodOther labels requests whose method is not a standard one.
const MethodOther = "other"

// knownMethods bounds the method label; any other client-supplied method is
// counted as MethodOther.
var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// LookupBuckets spans in-memory hits up to slow remote lookups.
var LookupBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics holds the gate's collectors and the registry serving them.
type Metrics struct {
	registry     *prometheus.Registry
	authAttempts *prometheus.CounterVec
	trustLookup  *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		authAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Authentication attempts by scheme and outcome.",
			},
			[]string{"scheme", "outcome"},
		),
		trustLookup: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "trust_lookup_seconds",
				Help:      "Trust entry lookup latency by backend.",
				Buckets:   LookupBuckets,
			},
			[]string{"backend"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method and status code.",
			},
			[]string{"method", "status"},
		),
	}
	m.registry.MustRegister(m.authAttempts, m.trustLookup, m.httpRequests)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveAuth records one attempt. name is the strategy or combinator name;
// err is nil on success and otherwise classified by its auth.Failure reason.
func (m *Metrics) ObserveAuth(name string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = auth.ReasonUnavailable.String()
		if f, ok := auth.AsFailure(err); ok {
			outcome = f.Reason.String()
		}
	}
	m.authAttempts.WithLabelValues(name, outcome).Inc()
}

// ObserveLookup records a trust lookup's latency.
func (m *Metrics) ObserveLookup(backend string, elapsed time.Duration) {
	m.trustLookup.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// ObserveRequest counts one served request.
func (m *Metrics) ObserveRequest(method string, status int) {
	if !knownMethods[method] {
		method = MethodOther
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
