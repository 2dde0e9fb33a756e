package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/omarluq/transit-gate/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the configuration file without starting the server.
Checks syntax, required secrets, the hybrid order and the trust backend.`,
	RunE: runConfigValidate,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default config file",
	Long:  `Write an example configuration carrying the demo credentials.`,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().StringP("output", "o", "", "output path (default: ~/.config/transit-gate/"+homeConfigFile+")")
	configInitCmd.Flags().Bool("force", false, "overwrite existing config file")

	configCmd.AddCommand(configValidateCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	path := configPath()
	out := cmd.OutOrStdout()

	cfg, err := config.Load(path)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(out, "✗ Config validation failed: %s\n", err)
		return err
	}

	fmt.Fprintf(out, "✓ %s is valid (trust backend: %s)\n", path, cfg.Trust.GetBackend())
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to get force flag: %w", err)
	}

	if output == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		output = homeConfigPath(home)
	}

	if _, err := os.Stat(output); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", output)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(output, []byte(exampleConfig), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Config file created at %s\n", output)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Replace the demo secrets, or point them at ${ENV_VARS}")
	fmt.Fprintln(out, "  2. Validate with: transit-gate config validate")
	fmt.Fprintln(out, "  3. Start the gateway: transit-gate serve")
	return nil
}

const exampleConfig = `# transit-gate configuration
server:
  listen: "127.0.0.1:8787"
  timeout_ms: 60000
  max_body_bytes: 1048576
  metrics_path: /metrics
  enable_http2: false

logging:
  level: info      # debug, info, warn, error
  format: console  # json, console, text, pretty
  output: stdout   # stdout, stderr or a file path

auth:
  # realm: transit
  bearer_error_codes: false
  basic:
    username: admin
    password: admin-password
  bearer:
    token: demo-bearer-token
    subject: operator-41
  api_key_header:
    name: x-api-key
    token: demo-header-api-key
    subject: metrics-agent
  session:
    name: session_token
    token: demo-session-token
    subject: admin
  oauth2:
    username: oauth-user
    password: oauth-password
    token: demo-oauth-token
    subject: dispatcher-7
  hybrid:
    policy: first
    order: [bearer, api_key_header]

trust:
  backend: static  # static, remote
  cache_ttl_ms: 30000
  # remote:
  #   url: https://trust.internal.example
  #   timeout_ms: 2000
  #   requests_per_second: 50
  #   burst: 10
  #   auth:
  #     type: oauth2  # none, oauth2, sigv4
  #     token_url: https://idp.internal.example/oauth/token
  #     client_id: transit-gate
  #     client_secret: ${TRUST_CLIENT_SECRET}
  cache:
    mode: single  # single, ha, disabled
  health:
    circuit_breaker:
      failure_threshold: 5
      open_duration_ms: 30000
      half_open_probes: 3
    health_check:
      interval_ms: 10000
      probe_timeout_ms: 5000
`
