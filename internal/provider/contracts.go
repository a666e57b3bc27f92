package provider

import "context"

// Provider is the polymorphic contract every package-manager/version-
// manager adapter must satisfy. Concrete adapters (npm, apt, brew, ...)
// are out of scope per spec.md §1; this module specifies and exercises
// only the contract and its dispatch logic.
type Provider interface {
	ID() string
	DisplayName() string
	Capabilities() []Capability
	SupportedPlatforms() []Platform
	// Priority breaks ties among candidates; default 0, higher wins.
	Priority() int32

	IsAvailable(ctx context.Context) bool

	Search(ctx context.Context, query string, opts SearchOptions) ([]PackageSummary, error)
	GetPackageInfo(ctx context.Context, name string) (*PackageInfo, error)
	GetVersions(ctx context.Context, name string) ([]VersionInfo, error)
	// GetDependencies defaults to an empty list for adapters that do not
	// track a dependency graph.
	GetDependencies(ctx context.Context, name, version string) ([]string, error)

	Install(ctx context.Context, req InstallRequest) (*InstallReceipt, error)
	Uninstall(ctx context.Context, req UninstallRequest) error
	ListInstalled(ctx context.Context, filter InstalledFilter) ([]InstalledPackage, error)
	// CheckUpdates with an empty names slice means "check all installed
	// packages", per spec.md §9's explicit mandate.
	CheckUpdates(ctx context.Context, names []string) ([]UpdateInfo, error)
}

// EnvironmentProvider extends Provider for runtime version managers
// (fnm, pyenv, rustup, goenv, rbenv, ...). A value satisfying both
// contracts is indexed in the registry under both views — this is a
// capability-set relation, not an inheritance tree.
type EnvironmentProvider interface {
	Provider

	ListInstalledVersions(ctx context.Context) ([]InstalledVersion, error)
	GetCurrentVersion(ctx context.Context) (string, error)
	SetGlobalVersion(ctx context.Context, v string) error
	SetLocalVersion(ctx context.Context, projectPath, v string) error

	// DetectVersion walks from startPath toward the filesystem root,
	// applying the precedence of spec.md §4.1: within a directory, the
	// provider-specific version file wins over a unified .tool-versions
	// entry, which wins over a language manifest; across directories,
	// the deepest (closest to startPath) match wins.
	DetectVersion(ctx context.Context, startPath string) (*VersionDetection, error)

	GetEnvModifications(ctx context.Context, v string) (EnvModifications, error)
	VersionFileName() string
}

// BaseProvider is an embeddable struct implementing the parts of Provider
// that are pure data (id/display name/capabilities/platforms/priority),
// the way a concrete adapter would compose itself from shared scaffolding.
// Priority defaults to 0 as spec.md §3 mandates.
type BaseProvider struct {
	IDValue          string
	DisplayNameValue string
	CapabilitiesList []Capability
	PlatformsList    []Platform
	PriorityValue    int32
}

func (b BaseProvider) ID() string                      { return b.IDValue }
func (b BaseProvider) DisplayName() string              { return b.DisplayNameValue }
func (b BaseProvider) Capabilities() []Capability       { return b.CapabilitiesList }
func (b BaseProvider) SupportedPlatforms() []Platform   { return b.PlatformsList }
func (b BaseProvider) Priority() int32                  { return b.PriorityValue }

// HasCapability reports whether cap is among the provider's declared
// capabilities.
func (b BaseProvider) HasCapability(cap Capability) bool {
	for _, c := range b.CapabilitiesList {
		if c == cap {
			return true
		}
	}
	return false
}

// SupportsPlatform reports whether p is among the provider's declared
// supported platforms.
func (b BaseProvider) SupportsPlatform(p Platform) bool {
	for _, sp := range b.PlatformsList {
		if sp == p {
			return true
		}
	}
	return false
}
