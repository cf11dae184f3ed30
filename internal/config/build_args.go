package config

import "fmt"

// ModuleName is the name of this module, kept in sync with go.mod.
const ModuleName = "github/safehost/go-provider"

// Build args, injected via -ldflags at compile time.
var (
	Commit    = "unknown"
	BuildDate = "unknown"
)

// GetFormattedBuildArgs returns "<module> @ <commit> (<build date>)".
func GetFormattedBuildArgs() string {
	return fmt.Sprintf("%v @ %v (%v)", ModuleName, Commit, BuildDate)
}
