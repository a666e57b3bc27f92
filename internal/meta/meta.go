// Package meta holds identity constants shared across CogniaLauncher's
// packages: the on-disk directory name, environment variable prefix, and
// version metadata set via ldflags at build time.
package meta

// AppName names the on-disk root directory, "<home>/.CogniaLauncher/",
// per spec.md §6.
const AppName = "CogniaLauncher"

// EnvPrefix is the prefix for environment variable overrides, e.g.
// COGNIALAUNCHER_OUTPUT.
const EnvPrefix = "COGNIALAUNCHER_"

// Version metadata, overridable via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)
