package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarluq/transit-gate/internal/config"
	"github.com/omarluq/transit-gate/internal/server"
	"github.com/omarluq/transit-gate/internal/trust"
)

func TestFindConfigIn(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	home := t.TempDir()

	assert.Equal(t, defaultConfigFile, findConfigIn(dir, home))

	homeCfg := homeConfigPath(home)
	require.NoError(t, os.MkdirAll(filepath.Dir(homeCfg), 0o750))
	require.NoError(t, os.WriteFile(homeCfg, []byte("server: {}\n"), 0o600))
	assert.Equal(t, homeCfg, findConfigIn(dir, home))

	local := filepath.Join(dir, defaultConfigFile)
	require.NoError(t, os.WriteFile(local, []byte("server: {}\n"), 0o600))
	assert.Equal(t, local, findConfigIn(dir, home))
}

func TestDialAddr(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		":8787":          "127.0.0.1:8787",
		"0.0.0.0:8787":   "127.0.0.1:8787",
		"10.0.0.5:9000":  "10.0.0.5:9000",
		"not-an-address": "not-an-address",
	}
	for in, want := range tests {
		assert.Equal(t, want, dialAddr(in), in)
	}
}

func newInitCmd(output string, force bool) (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{Use: "init"}
	cmd.Flags().StringP("output", "o", "", "")
	cmd.Flags().Bool("force", false, "")
	_ = cmd.Flags().Set("output", output)
	if force {
		_ = cmd.Flags().Set("force", "true")
	}
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	return cmd, out
}

func TestRunConfigInit_WritesValidConfig(t *testing.T) {
	t.Parallel()

	output := filepath.Join(t.TempDir(), "nested", "transit-gate.yaml")
	cmd, out := newInitCmd(output, false)
	require.NoError(t, runConfigInit(cmd, nil))
	assert.Contains(t, out.String(), "Config file created at "+output)

	cfg, err := config.Load(output)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, config.DemoBearerToken, cfg.Auth.Bearer.Token)
	assert.Equal(t, "dispatcher-7", cfg.Auth.OAuth2.Subject)

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRunConfigInit_RefusesOverwrite(t *testing.T) {
	t.Parallel()

	output := filepath.Join(t.TempDir(), "transit-gate.yaml")
	require.NoError(t, os.WriteFile(output, []byte("existing: content"), 0o600))

	cmd, _ := newInitCmd(output, false)
	err := runConfigInit(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	cmd, _ = newInitCmd(output, true)
	require.NoError(t, runConfigInit(cmd, nil))
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "transit-gate configuration")
}

// TestRunConfigValidate mutates the --config flag variable and is not parallel.
func TestRunConfigValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(good, []byte(exampleConfig), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte("auth:\n  bearer:\n    token: \"\"\n"), 0o600))

	prev := cfgFile
	t.Cleanup(func() { cfgFile = prev })

	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	cfgFile = good
	require.NoError(t, runConfigValidate(cmd, nil))
	assert.Contains(t, out.String(), "is valid (trust backend: static)")

	out.Reset()
	cfgFile = bad
	err := runConfigValidate(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, out.String(), "auth.bearer.token is required")
}

func newGateway(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	gate, err := server.NewGate(&cfg.Auth, trust.NewLive(trust.StaticFromConfig(&cfg.Auth)))
	require.NoError(t, err)
	srv := httptest.NewServer(server.SetupRoutes(server.RouteDeps{
		Gates:  server.NewLiveGate(gate),
		Routes: server.NewMemoryRouteStore(server.SeedRoutes()...),
		Trust:  fakeTrust{},
		Config: &cfg.Server,
		Logger: zerolog.Nop(),
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fakeTrust struct{}

func (fakeTrust) Kind() string  { return config.BackendStatic }
func (fakeTrust) State() string { return trust.StateStatic }

func TestFetchHealth(t *testing.T) {
	t.Parallel()

	srv := newGateway(t)
	health, err := fetchHealth(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, trust.StateStatic, health.TrustBackend)

	srv.Close()
	_, err = fetchHealth(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchToken(t *testing.T) {
	t.Parallel()

	srv := newGateway(t)

	tok, err := fetchToken(context.Background(), srv.URL+"/", config.DemoOAuthUsername, config.DemoOAuthPassword)
	require.NoError(t, err)
	assert.Equal(t, config.DemoOAuthToken, tok.AccessToken)

	_, err = fetchToken(context.Background(), srv.URL, config.DemoOAuthUsername, "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	versionCmd.Run(cmd, nil)
	assert.Contains(t, out.String(), "transit-gate dev")
}
