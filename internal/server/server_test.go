package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/omarluq/transit-gate/internal/auth"
	"github.com/omarluq/transit-gate/internal/config"
	"github.com/omarluq/transit-gate/internal/metrics"
	"github.com/omarluq/transit-gate/internal/server"
	"github.com/omarluq/transit-gate/internal/trust"
)

type fakeTrust struct{ state string }

func (f fakeTrust) Kind() string  { return "static" }
func (f fakeTrust) State() string { return f.state }

type testEnv struct {
	srv     *httptest.Server
	gates   *server.LiveGate
	metrics *metrics.Metrics
	cfg     *config.Config
}

func newTestEnv(t *testing.T, store auth.TrustStore) *testEnv {
	t.Helper()

	cfg := config.Default()
	if store == nil {
		store = trust.NewLive(trust.StaticFromConfig(&cfg.Auth))
	}
	gate, err := server.NewGate(&cfg.Auth, store)
	require.NoError(t, err)

	env := &testEnv{
		gates:   server.NewLiveGate(gate),
		metrics: metrics.New(),
		cfg:     cfg,
	}
	env.srv = httptest.NewServer(server.SetupRoutes(server.RouteDeps{
		Gates:   env.gates,
		Routes:  server.NewMemoryRouteStore(server.SeedRoutes()...),
		Trust:   fakeTrust{state: trust.StateStatic},
		Metrics: env.metrics,
		Config:  &cfg.Server,
		Logger:  zerolog.Nop(),
	}))
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, e.srv.URL+path, body)
	require.NoError(t, err)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func header(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Add(kv[i], kv[i+1])
	}
	return h
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	resp := env.do(t, http.MethodGet, "/public/health", nil, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(server.HeaderRequestID))
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "static", body["trust_backend"])
	assert.NotEmpty(t, body["time"])
}

func TestRequestID_Echoed(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	resp := env.do(t, http.MethodGet, "/public/health", nil, header(server.HeaderRequestID, "trace-123"))
	assert.Equal(t, "trace-123", resp.Header.Get(server.HeaderRequestID))
}

func TestListRoutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     string
		wantIDs   []string
		wantTotal int
		wantCode  int
	}{
		{name: "all", query: "", wantTotal: 2, wantIDs: []string{"route-1", "route-2"}, wantCode: 200},
		{name: "city case-insensitive", query: "?city=helsinki", wantTotal: 2, wantIDs: []string{"route-1", "route-2"}, wantCode: 200},
		{name: "other city", query: "?city=Tampere", wantTotal: 0, wantIDs: []string{}, wantCode: 200},
		{name: "transport type", query: "?transport_type=tram", wantTotal: 1, wantIDs: []string{"route-1"}, wantCode: 200},
		{name: "paged", query: "?limit=1&offset=1", wantTotal: 2, wantIDs: []string{"route-2"}, wantCode: 200},
		{name: "offset past end", query: "?offset=5", wantTotal: 2, wantIDs: []string{}, wantCode: 200},
		{name: "limit zero", query: "?limit=0", wantCode: 422},
		{name: "limit too large", query: "?limit=101", wantCode: 422},
		{name: "negative offset", query: "?offset=-1", wantCode: 422},
		{name: "non-integer limit", query: "?limit=ten", wantCode: 422},
		{name: "unknown transport", query: "?transport_type=ferry", wantCode: 422},
	}

	env := newTestEnv(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := env.do(t, http.MethodGet, "/public/routes"+tt.query, nil, nil)
			require.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantCode != http.StatusOK {
				body := decodeBody[server.ErrorResponse](t, resp)
				assert.Equal(t, server.ErrTypeInvalidRequest, body.Error.Type)
				return
			}

			body := decodeBody[server.RouteSearchResponse](t, resp)
			assert.Equal(t, tt.wantTotal, body.Total)
			ids := make([]string, 0, len(body.Items))
			for _, r := range body.Items {
				ids = append(ids, r.RouteID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestGetRoute(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodGet, "/public/routes/route-2", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	route := decodeBody[server.Route](t, resp)
	assert.Equal(t, "Airport Express", route.Name)
	assert.Equal(t, server.TransportBus, route.TransportType)
	assert.Equal(t, 7, route.ActiveStops)

	resp = env.do(t, http.MethodGet, "/public/routes/route-9", nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Route not found.", decodeBody[server.ErrorResponse](t, resp).Error.Message)
}

func basicHeader(user, pass string) http.Header {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.SetBasicAuth(user, pass)
	return req.Header
}

func TestProtectedRoutes_Challenges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header        http.Header
		name          string
		method        string
		path          string
		wantChallenge string
		wantMessage   string
		wantCode      int
	}{
		{
			name: "basic missing", method: http.MethodPost, path: "/basic/admin/depots",
			wantCode: 401, wantChallenge: "Basic", wantMessage: "Missing basic authentication credentials.",
		},
		{
			name: "basic wrong password", method: http.MethodPost, path: "/basic/admin/depots",
			header:   basicHeader("admin", "nope"),
			wantCode: 401, wantChallenge: "Basic", wantMessage: "Invalid basic authentication credentials.",
		},
		{
			name: "bearer missing", method: http.MethodGet, path: "/bearer/operators/me",
			wantCode: 401, wantChallenge: "Bearer", wantMessage: "Missing bearer token.",
		},
		{
			name: "bearer invalid", method: http.MethodGet, path: "/bearer/operators/me",
			header:   header("Authorization", "Bearer nope"),
			wantCode: 401, wantChallenge: "Bearer", wantMessage: "Invalid bearer token.",
		},
		{
			name: "api key header missing", method: http.MethodGet, path: "/apikey-header/system-metrics",
			wantCode: 403, wantMessage: "Missing x-api-key header.",
		},
		{
			name: "api key header invalid", method: http.MethodGet, path: "/apikey-header/system-metrics",
			header:   header("x-api-key", "nope"),
			wantCode: 403, wantMessage: "Invalid x-api-key header.",
		},
		{
			name: "cookie missing", method: http.MethodGet, path: "/apikey-cookie/incidents",
			wantCode: 403, wantMessage: "Missing session_token cookie.",
		},
		{
			name: "oauth2 invalid", method: http.MethodGet, path: "/oauth/profile",
			header:   header("Authorization", "Bearer demo-bearer-token"),
			wantCode: 401, wantChallenge: "Bearer", wantMessage: "Invalid OAuth2 access token.",
		},
		{
			name: "hybrid nothing", method: http.MethodGet, path: "/hybrid/alerts",
			wantCode: 401, wantChallenge: "Bearer", wantMessage: auth.MessageHybridFailed,
		},
	}

	env := newTestEnv(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := env.do(t, tt.method, tt.path, strings.NewReader(`{}`), tt.header)
			require.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Equal(t, tt.wantChallenge, resp.Header.Get(auth.HeaderWWWAuthenticate))
			body := decodeBody[server.ErrorResponse](t, resp)
			assert.Equal(t, "error", body.Type)
			assert.Equal(t, tt.wantMessage, body.Error.Message)
		})
	}
}

func TestBasic_CreateDepot(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	creds := basicHeader(config.DemoBasicUsername, config.DemoBasicPassword)

	resp := env.do(t, http.MethodPost, "/basic/admin/depots",
		strings.NewReader(`{"name":"East Yard","city":"Helsinki","max_vehicles":40}`), creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	depot := decodeBody[server.DepotResponse](t, resp)
	assert.Equal(t, server.DepotResponse{DepotID: "depot-1", Name: "East Yard", City: "Helsinki", MaxVehicles: 40}, depot)

	for _, payload := range []string{
		`{"name":"E","city":"Helsinki","max_vehicles":40}`,
		`{"name":"East Yard","city":"Helsinki","max_vehicles":501}`,
		`{"name":"East Yard","city":"Helsinki"}`,
		`not json`,
	} {
		resp := env.do(t, http.MethodPost, "/basic/admin/depots", strings.NewReader(payload), creds)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, payload)
	}
}

func TestBearer_Profile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	resp := env.do(t, http.MethodGet, "/bearer/operators/me", nil,
		header("Authorization", "bearer "+config.DemoBearerToken))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, server.ProfileResponse{Subject: "operator-41", AuthMethod: "bearer"},
		decodeBody[server.ProfileResponse](t, resp))
}

func TestAPIKeyHeader_SystemMetrics(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	resp := env.do(t, http.MethodGet, "/apikey-header/system-metrics", nil,
		header("X-API-Key", config.DemoHeaderAPIKey))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]int{"active_routes": 2, "active_vehicles": 112}, decodeBody[map[string]int](t, resp))
}

func TestSession_LoginThenIncidents(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPost, "/session/login",
		strings.NewReader(`{"username":"admin","password":"wrong"}`), nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(auth.HeaderWWWAuthenticate))
	assert.Empty(t, resp.Cookies())

	resp = env.do(t, http.MethodPost, "/session/login",
		strings.NewReader(`{"username":"admin","password":"admin-password"}`), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Session cookie issued.", decodeBody[server.LoginResponse](t, resp).Message)

	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, auth.DefaultSessionCookie, c.Name)
	assert.Equal(t, config.DemoSessionToken, c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Zero(t, c.MaxAge)
	assert.True(t, c.Expires.IsZero())

	resp = env.do(t, http.MethodGet, "/apikey-cookie/incidents", nil, header("Cookie", (&http.Cookie{Name: c.Name, Value: c.Value}).String()))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	incidents := decodeBody[[]server.Incident](t, resp)
	require.Len(t, incidents, 1)
	assert.Equal(t, "inc-1", incidents[0].IncidentID)
	assert.Equal(t, "2026-03-01T07:30:00Z", incidents[0].ReportedAt.Format("2006-01-02T15:04:05Z07:00"))
}

func TestSessionLogin_Payloads(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{name: "empty password", body: `{"username":"admin","password":""}`, status: http.StatusUnauthorized, message: "Invalid credentials."},
		{name: "empty username", body: `{"username":"","password":"admin-password"}`, status: http.StatusUnauthorized, message: "Invalid credentials."},
		{name: "missing password", body: `{"username":"admin"}`, status: http.StatusUnprocessableEntity, message: "password: field required"},
		{name: "wrong type", body: `{"username":"admin","password":42}`, status: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp := env.do(t, http.MethodPost, "/session/login", strings.NewReader(tt.body), nil)
			require.Equal(t, tt.status, resp.StatusCode)
			assert.Empty(t, resp.Cookies())
			if tt.message != "" {
				assert.Contains(t, decodeBody[server.ErrorResponse](t, resp).Error.Message, tt.message)
			}
		})
	}
}

func oauthConfig(env *testEnv) *oauth2.Config {
	return &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  env.srv.URL + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func TestOAuth2_PasswordGrantRoundTrip(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, env.srv.Client())
	conf := oauthConfig(env)

	tok, err := conf.PasswordCredentialsToken(ctx, config.DemoOAuthUsername, config.DemoOAuthPassword)
	require.NoError(t, err)
	assert.Equal(t, config.DemoOAuthToken, tok.AccessToken)
	assert.Equal(t, "Bearer", tok.Type())

	client := conf.Client(ctx, tok)

	resp, err := client.Get(env.srv.URL + "/oauth/profile")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, server.ProfileResponse{Subject: "dispatcher-7", AuthMethod: "oauth2_password"},
		decodeBody[server.ProfileResponse](t, resp))

	dispatch, err := client.Post(env.srv.URL+"/oauth/dispatches", "application/json", strings.NewReader(
		`{"vehicle_id":"veh-9","route_id":"route-1","departs_at":"2026-03-02T06:00:00Z"}`))
	require.NoError(t, err)
	defer dispatch.Body.Close()
	require.Equal(t, http.StatusCreated, dispatch.StatusCode)
	out := decodeBody[server.DispatchResponse](t, dispatch)
	assert.Equal(t, "dispatch-1", out.DispatchID)
	assert.Equal(t, "scheduled", out.Status)
	assert.Equal(t, "veh-9", out.VehicleID)
}

func TestOAuth2_TokenRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, env.srv.Client())

	// The basic pair is a different trust entry.
	_, err := oauthConfig(env).PasswordCredentialsToken(ctx, config.DemoBasicUsername, config.DemoBasicPassword)
	require.Error(t, err)
	var rerr *oauth2.RetrieveError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusUnauthorized, rerr.Response.StatusCode)
	assert.Empty(t, rerr.Response.Header.Get(auth.HeaderWWWAuthenticate))

	resp := env.do(t, http.MethodPost, "/oauth/token", strings.NewReader("grant_type=client_credentials&username=a&password=b"),
		header("Content-Type", "application/x-www-form-urlencoded"))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHybrid_Alerts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	tests := []struct {
		header http.Header
		want   string
	}{
		{header("Authorization", "Bearer "+config.DemoBearerToken), "Hybrid-authenticated via bearer."},
		{header("x-api-key", config.DemoHeaderAPIKey), "Hybrid-authenticated via api_key_header."},
		{header("Authorization", "Bearer nope", "x-api-key", config.DemoHeaderAPIKey), "Hybrid-authenticated via api_key_header."},
	}
	for _, tt := range tests {
		resp := env.do(t, http.MethodGet, "/hybrid/alerts", nil, tt.header)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		alert := decodeBody[server.Alert](t, resp)
		assert.Equal(t, "alert-1", alert.ID)
		assert.Equal(t, "low", alert.Level)
		assert.Equal(t, tt.want, alert.Message)
	}
}

func TestStoreUnavailable_Returns503WithoutChallenge(t *testing.T) {
	t.Parallel()

	down := auth.TrustStoreFunc(func(context.Context, string) (auth.TrustEntry, error) {
		return auth.TrustEntry{}, errors.New("connection refused")
	})
	env := newTestEnv(t, down)

	for _, tc := range []struct {
		header http.Header
		path   string
	}{
		{header("Authorization", "Bearer "+config.DemoBearerToken), "/bearer/operators/me"},
		{header("x-api-key", "anything"), "/apikey-header/system-metrics"},
		{header("Authorization", "Bearer x"), "/hybrid/alerts"},
	} {
		resp := env.do(t, http.MethodGet, tc.path, nil, tc.header)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, tc.path)
		assert.Empty(t, resp.Header.Get(auth.HeaderWWWAuthenticate), tc.path)
	}

	resp := env.do(t, http.MethodPost, "/oauth/token", strings.NewReader("username=a&password=b"),
		header("Content-Type", "application/x-www-form-urlencoded"))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestLiveGate_Rebuild(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	live := trust.NewLive(trust.StaticFromConfig(&env.cfg.Auth))

	next := config.Default()
	next.Auth.Bearer.Token = "rotated-token"
	live.Replace(trust.StaticFromConfig(&next.Auth))
	require.NoError(t, env.gates.Rebuild(&next.Auth, live))

	resp := env.do(t, http.MethodGet, "/bearer/operators/me", nil, header("Authorization", "Bearer "+config.DemoBearerToken))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/bearer/operators/me", nil, header("Authorization", "Bearer rotated-token"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	bad := config.Default()
	bad.Auth.Hybrid.Order = []string{"kerberos"}
	require.Error(t, env.gates.Rebuild(&bad.Auth, live))
	resp = env.do(t, http.MethodGet, "/bearer/operators/me", nil, header("Authorization", "Bearer rotated-token"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.do(t, http.MethodGet, "/bearer/operators/me", nil, nil)
	env.do(t, http.MethodGet, "/bearer/operators/me", nil, header("Authorization", "Bearer "+config.DemoBearerToken))

	resp := env.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, `transit_gate_auth_attempts_total{outcome="missing",scheme="bearer"} 1`)
	assert.Contains(t, body, `transit_gate_auth_attempts_total{outcome="success",scheme="bearer"} 1`)
	assert.Contains(t, body, `transit_gate_http_requests_total{method="GET",status="401"} 1`)
}
