// Package plugin implements CogniaLauncher's WASM plugin lifecycle:
// manifest parsing, permission state, discovery, and install/enable/
// disable/reload/uninstall.
package plugin

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"github.com/cognia-dev/cognia-launcher/internal/cogniaerr"
)

// Permissions is the declared permission set from a plugin's
// plugin.toml. Safe permissions are plain booleans; allow-list
// permissions (fs_read/fs_write/http) are non-empty path/domain lists.
// Dangerous permissions (config_write/pkg_install/process_exec) are
// never auto-granted regardless of their declared value.
type Permissions struct {
	ConfigRead   bool     `toml:"config_read"`
	ConfigWrite  bool     `toml:"config_write"`
	EnvRead      bool     `toml:"env_read"`
	PkgSearch    bool     `toml:"pkg_search"`
	PkgInstall   bool     `toml:"pkg_install"`
	Clipboard    bool     `toml:"clipboard"`
	Notification bool     `toml:"notification"`
	ProcessExec  bool     `toml:"process_exec"`
	FsRead       []string `toml:"fs_read"`
	FsWrite      []string `toml:"fs_write"`
	HTTP         []string `toml:"http"`
}

// Tool is one invokable command a plugin exposes, per plugin.toml's
// [[tools]] array.
type Tool struct {
	ID     string `toml:"id"`
	Entry  string `toml:"entry"` // exported WASM function name
	NameEN string `toml:"name_en"`
	UIMode string `toml:"ui_mode"` // headless | inline | iframe
}

// Manifest is the parsed contents of a plugin's plugin.toml.
type Manifest struct {
	Name        string      `toml:"name"`
	Version     string      `toml:"version"`
	Description string      `toml:"description"`
	Author      string      `toml:"author"`
	Entry       string      `toml:"entry"`
	Permissions Permissions `toml:"permissions"`
	Tools       []Tool      `toml:"tools"`
}

// ParseManifest decodes plugin.toml content and validates that its
// version string is well-formed semver.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing plugin manifest", err)
	}

	if m.Name == "" {
		return nil, cogniaerr.New(cogniaerr.KindPlugin, "plugin manifest missing name")
	}
	if m.Version == "" {
		return nil, cogniaerr.New(cogniaerr.KindPlugin, "plugin manifest missing version")
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return nil, cogniaerr.Wrap(cogniaerr.KindPlugin, fmt.Sprintf("plugin %q has invalid version %q", m.Name, m.Version), err)
	}

	return &m, nil
}
