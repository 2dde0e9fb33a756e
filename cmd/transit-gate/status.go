package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/omarluq/transit-gate/internal/config"
	"github.com/omarluq/transit-gate/internal/server"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check if transit-gate is running",
	Long: `Query /public/health on the configured listen address and report the
trust backend state.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	health, err := fetchHealth(cmd.Context(), "http://"+dialAddr(cfg.Server.Listen))
	if err != nil {
		fmt.Fprintf(out, "✗ transit-gate is not running (%s)\n", cfg.Server.Listen)
		return err
	}

	fmt.Fprintf(out, "✓ transit-gate is running (%s, trust backend: %s)\n", cfg.Server.Listen, health.TrustBackend)
	return nil
}

// dialAddr turns a wildcard listen address into one a client can dial.
func dialAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func fetchHealth(ctx context.Context, baseURL string) (*server.HealthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/public/health", http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}

	var health server.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	return &health, nil
}
