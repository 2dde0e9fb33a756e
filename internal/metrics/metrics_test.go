package metrics_test

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarluq/transit-gate/internal/auth"
	"github.com/omarluq/transit-gate/internal/metrics"
)

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestObserveAuth_Outcomes(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	store := auth.NewStaticStore(map[string]auth.TrustEntry{
		"bearer": auth.NewTokenEntry("operator-41", "demo-bearer-token"),
	})
	bearer := auth.NewBearerStrategy(store)

	request := func(token string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/bearer/operators/me", http.NoBody)
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		return r
	}

	m.ObserveAuth(bearer.Name(), bearer.Authenticate(request("demo-bearer-token")).Error())
	m.ObserveAuth(bearer.Name(), bearer.Authenticate(request("")).Error())
	m.ObserveAuth(bearer.Name(), bearer.Authenticate(request("wrong")).Error())
	m.ObserveAuth(bearer.Name(), errors.New("not a failure"))

	body := scrape(t, m)
	assert.Contains(t, body, `transit_gate_auth_attempts_total{outcome="success",scheme="bearer"} 1`)
	assert.Contains(t, body, `transit_gate_auth_attempts_total{outcome="missing",scheme="bearer"} 1`)
	assert.Contains(t, body, `transit_gate_auth_attempts_total{outcome="invalid",scheme="bearer"} 1`)
	assert.Contains(t, body, `transit_gate_auth_attempts_total{outcome="unavailable",scheme="bearer"} 1`)
}

func TestObserveLookup(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.ObserveLookup("remote", 3*time.Millisecond)
	m.ObserveLookup("remote", 40*time.Millisecond)
	m.ObserveLookup("static", time.Microsecond)

	count, err := testutil.GatherAndCount(m.Registry(), "transit_gate_trust_lookup_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	body := scrape(t, m)
	assert.Contains(t, body, `transit_gate_trust_lookup_seconds_count{backend="remote"} 2`)
	assert.Contains(t, body, `transit_gate_trust_lookup_seconds_count{backend="static"} 1`)
}

func TestMiddleware_CountsStatus(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ok", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /denied", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.WriteHeader(http.StatusInternalServerError)
	})
	h := m.Middleware(mux)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/ok"},
		{http.MethodGet, "/ok"},
		{http.MethodPost, "/denied"},
		{http.MethodGet, "/missing"},
	} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.path, http.NoBody))
	}

	body := scrape(t, m)
	assert.Contains(t, body, `transit_gate_http_requests_total{method="GET",status="200"} 2`)
	assert.Contains(t, body, `transit_gate_http_requests_total{method="POST",status="401"} 1`)
	assert.Contains(t, body, `transit_gate_http_requests_total{method="GET",status="404"} 1`)
}

func TestMiddleware_BoundsMethodLabel(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ok", func(w http.ResponseWriter, _ *http.Request) {})
	h := m.Middleware(mux)

	for i := range 500 {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(fmt.Sprintf("X%d", i), "/ok", http.NoBody))
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", http.NoBody))

	count, err := testutil.GatherAndCount(m.Registry(), "transit_gate_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	body := scrape(t, m)
	assert.Contains(t, body, `transit_gate_http_requests_total{method="other",status="405"} 500`)
	assert.Contains(t, body, `transit_gate_http_requests_total{method="GET",status="200"} 1`)
}
