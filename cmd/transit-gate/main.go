// Package main is the entry point for transit-gate.
package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang/v2"
	"github.com/spf13/cobra"

	"github.com/omarluq/transit-gate/internal/version"
)

const (
	defaultConfigFile = "transit-gate.yaml"
	homeConfigFile    = "config.yaml"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "transit-gate",
	Short: "Request authentication gateway for the City Transit Control API",
	Long: `transit-gate authenticates HTTP requests with basic, bearer, API key header,
session cookie and OAuth2 password-grant credentials, alone or combined, and
serves the City Transit Control endpoints behind them.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file path (default: ./"+defaultConfigFile+" or ~/.config/transit-gate/"+homeConfigFile+")")
}

func main() {
	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version.String())); err != nil {
		os.Exit(1)
	}
}

// configPath returns --config or the first existing default location.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	home, _ := os.UserHomeDir()
	return findConfigIn(wd, home)
}

// findConfigIn looks for the config in dir, then under home. It returns the
// default file name when neither exists so the caller reports a clear error.
func findConfigIn(dir, home string) string {
	candidates := []string{filepath.Join(dir, defaultConfigFile)}
	if home != "" {
		candidates = append(candidates, homeConfigPath(home))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return defaultConfigFile
}

func homeConfigPath(home string) string {
	return filepath.Join(home, ".config", "transit-gate", homeConfigFile)
}
