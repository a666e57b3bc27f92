// Package wasmhost runs CogniaLauncher plugins as wazero-compiled WASM
// modules and dispatches their cognia_* host-function imports against
// the launcher's own subsystems, gated by the plugin's granted
// permissions (internal/plugin).
package wasmhost

import (
	"context"

	"github.com/cognia-dev/cognia-launcher/internal/plugin"
)

// ConfigStore is the subset of internal/config's Config the ABI's
// config group needs.
type ConfigStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// EnvironmentService answers the ABI's environment group by dispatching
// to the registered EnvironmentProvider(s) (internal/provider).
type EnvironmentService interface {
	ListProviders(ctx context.Context) ([]string, error)
	DetectVersion(ctx context.Context, providerID, startPath string) (string, error)
	GetCurrentVersion(ctx context.Context, providerID string) (string, error)
	ListInstalledVersions(ctx context.Context, providerID string) ([]string, error)
	InstallVersion(ctx context.Context, providerID, version string) error
	SetVersion(ctx context.Context, providerID, version string, global bool) error
}

// PackageService answers the ABI's package group by dispatching to the
// provider registry/orchestrator (internal/provider).
type PackageService interface {
	Search(ctx context.Context, query string) (any, error)
	Info(ctx context.Context, name string) (any, error)
	Versions(ctx context.Context, name string) (any, error)
	Dependencies(ctx context.Context, name, version string) (any, error)
	ListInstalled(ctx context.Context) (any, error)
	CheckUpdates(ctx context.Context, names []string) (any, error)
	Install(ctx context.Context, name, constraint string) (any, error)
	Uninstall(ctx context.Context, name, version string) error
}

// Clipboard answers the ABI's clipboard group.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// Notifier answers the ABI's notification group.
type Notifier interface {
	Send(title, body string) error
}

// ProcessRunner answers the ABI's process_exec call.
type ProcessRunner interface {
	Run(ctx context.Context, command string, args []string) (stdout string, exitCode int, err error)
}

// MetaService answers the ABI's ambient meta group: locale, i18n,
// platform info, cache stats, logging, and eventing.
type MetaService interface {
	Locale() string
	Translate(key, locale string) (string, error)
	AllTranslations(locale string) (map[string]string, error)
	PlatformInfo() any
	CacheInfo() any
	Log(pluginID, level, message string)
	EmitEvent(pluginID, eventName string, payload map[string]any)
}

// Dependencies bundles every subsystem the host ABI dispatches into,
// plus the permission manager that gates each call.
type Dependencies struct {
	Config      ConfigStore
	Environment EnvironmentService
	Packages    PackageService
	Clipboard   Clipboard
	Notifier    Notifier
	Process     ProcessRunner
	Meta        MetaService
	Permissions *plugin.Manager
}
