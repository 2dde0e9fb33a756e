package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarluq/transit-gate/internal/auth"
	"github.com/omarluq/transit-gate/internal/config"
	"github.com/omarluq/transit-gate/internal/server"
	"github.com/omarluq/transit-gate/internal/trust"
)

func bearerRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/oauth/profile", http.NoBody)
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func TestGate_IssuerAndStrategiesShareSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	oldCfg := config.Default()
	oldGate, err := server.NewGate(&oldCfg.Auth, trust.StaticFromConfig(&oldCfg.Auth))
	require.NoError(t, err)

	newCfg := config.Default()
	newCfg.Auth.OAuth2.Token = "rotated-oauth-token"
	newCfg.Auth.Bearer.Token = "rotated-bearer-token"
	live := server.NewLiveGate(oldGate)
	require.NoError(t, live.Rebuild(&newCfg.Auth, trust.StaticFromConfig(&newCfg.Auth)))

	for name, tc := range map[string]struct {
		gate  *server.Gate
		other string
	}{
		"previous gate": {gate: oldGate, other: "rotated-oauth-token"},
		"current gate":  {gate: live.Load(), other: config.DemoOAuthToken},
	} {
		tok, err := tc.gate.Tokens().Issue(ctx, config.DemoOAuthUsername, config.DemoOAuthPassword).Get()
		require.NoError(t, err, name)

		strategy := tc.gate.Strategy(auth.SchemeOAuth2Password)
		assert.True(t, strategy.Authenticate(bearerRequest(tok.AccessToken)).IsOk(), name)
		assert.True(t, strategy.Authenticate(bearerRequest(tc.other)).IsError(), name)
	}

	// A hybrid member never sees entries from another snapshot.
	hybrid := live.Load().Hybrid()
	assert.True(t, hybrid.Authenticate(bearerRequest("rotated-bearer-token")).IsOk())
	assert.True(t, hybrid.Authenticate(bearerRequest(config.DemoBearerToken)).IsError())
	assert.True(t, oldGate.Hybrid().Authenticate(bearerRequest(config.DemoBearerToken)).IsOk())
}
