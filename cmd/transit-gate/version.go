package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omarluq/transit-gate/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version, git commit, and build date.`,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "transit-gate %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
