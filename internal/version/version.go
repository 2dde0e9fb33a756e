// Package version carries build metadata for transit-gate.
package version

import "fmt"

// Set at build time via -ldflags "-X".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// String returns the version, commit and build date.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// UserAgent identifies outbound requests, such as trust lookups.
func UserAgent() string {
	return "transit-gate/" + Version
}
