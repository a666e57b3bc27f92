// Package provider implements the polymorphic Provider/EnvironmentProvider
// abstraction, the capability-indexed Registry, and the install/uninstall
// Orchestrator of spec.md §4.1.
package provider

import "time"

// Capability is a named operation a provider claims to support.
type Capability string

const (
	CapInstall       Capability = "install"
	CapUninstall     Capability = "uninstall"
	CapUpdate        Capability = "update"
	CapUpgrade       Capability = "upgrade"
	CapSearch        Capability = "search"
	CapList          Capability = "list"
	CapLockVersion   Capability = "lock_version"
	CapRollback      Capability = "rollback"
	CapVersionSwitch Capability = "version_switch"
	CapMultiVersion  Capability = "multi_version"
	CapProjectLocal  Capability = "project_local"
	CapUpdateIndex   Capability = "update_index"
)

// Platform identifies a target operating system for provider availability
// filtering.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformDarwin  Platform = "darwin"
	PlatformWindows Platform = "windows"
)

// PackageSummary is a lightweight search result.
type PackageSummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	ProviderID  string `json:"provider_id"`
}

// VersionInfo describes one published version of a package.
type VersionInfo struct {
	Version     string    `json:"version"`
	ReleasedAt  time.Time `json:"released_at,omitempty"`
	Prerelease  bool      `json:"prerelease"`
	Description string    `json:"description,omitempty"`
}

// PackageInfo is the detailed record returned by GetPackageInfo.
type PackageInfo struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Homepage    string        `json:"homepage,omitempty"`
	Versions    []VersionInfo `json:"versions"`
	ProviderID  string        `json:"provider_id"`
}

// InstalledPackage describes a package currently present on disk.
type InstalledPackage struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	ProviderID  string    `json:"provider_id"`
	InstallPath string    `json:"install_path"`
	InstalledAt time.Time `json:"installed_at"`
}

// InstallRequest carries the parameters for a single-package install.
type InstallRequest struct {
	Name       string            `json:"name"`
	Constraint string            `json:"constraint,omitempty"`
	Options    map[string]string `json:"options,omitempty"`
}

// InstallReceipt is the canonical record of a successful install, per
// spec.md §3: it must contain name/version/provider_id/install_path/
// files/installed_at.
type InstallReceipt struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	ProviderID  string    `json:"provider_id"`
	InstallPath string    `json:"install_path"`
	Files       []string  `json:"files"`
	InstalledAt time.Time `json:"installed_at"`
}

// UninstallRequest carries the parameters for a single-package uninstall.
type UninstallRequest struct {
	Name  string `json:"name"`
	Force bool   `json:"force,omitempty"`
}

// SearchOptions bounds a search call.
type SearchOptions struct {
	Limit int `json:"limit,omitempty"`
	Page  int `json:"page,omitempty"`
}

// InstalledFilter conjunctively filters ListInstalled results.
type InstalledFilter struct {
	NameContains string `json:"name_contains,omitempty"`
	ProviderID   string `json:"provider_id,omitempty"`
}

// UpdateInfo describes an available update for an installed package.
type UpdateInfo struct {
	Name             string `json:"name"`
	CurrentVersion   string `json:"current_version"`
	AvailableVersion string `json:"available_version"`
	ProviderID       string `json:"provider_id"`
}

// InstalledVersion describes one installed version of an environment
// (e.g. a Node or Ruby runtime) managed by an EnvironmentProvider.
type InstalledVersion struct {
	Version     string    `json:"version"`
	InstallPath string    `json:"install_path"`
	Size        int64     `json:"size,omitempty"`
	InstalledAt time.Time `json:"installed_at,omitempty"`
	IsCurrent   bool      `json:"is_current"`
}

// VersionSource identifies where a detected version constraint came from.
type VersionSource string

const (
	SourceLocalFile       VersionSource = "local_file"
	SourceManifest        VersionSource = "manifest"
	SourceGlobalFile      VersionSource = "global_file"
	SourceSystemDefault   VersionSource = "system_default"
	SourceSystemExecutable VersionSource = "system_executable"
)

// VersionDetection is the result of EnvironmentProvider.DetectVersion.
type VersionDetection struct {
	Version    string        `json:"version"`
	Source     VersionSource `json:"source"`
	SourcePath string        `json:"source_path,omitempty"`
}

// EnvModifications describes an environment transform needed to activate
// a given version; the caller composes it with the current process
// environment. Defined fully in internal/platformenv; referenced here by
// name to keep the Provider contract self-describing.
type EnvModifications struct {
	PathPrepend    []string          `json:"path_prepend,omitempty"`
	PathAppend     []string          `json:"path_append,omitempty"`
	SetVariables   map[string]string `json:"set_variables,omitempty"`
	UnsetVariables []string          `json:"unset_variables,omitempty"`
}

// ProviderInfo is a descriptive snapshot of a registered provider, used by
// registry introspection commands.
type ProviderInfo struct {
	ID                string     `json:"id"`
	DisplayName       string     `json:"display_name"`
	Capabilities      []Capability `json:"capabilities"`
	SupportedPlatforms []Platform `json:"supported_platforms"`
	Priority          int32      `json:"priority"`
	IsEnvironment     bool       `json:"is_environment"`
}
