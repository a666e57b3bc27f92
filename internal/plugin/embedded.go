//go:build embed_plugins

package plugin

import "embed"

// EmbeddedPlugins contains the core plugins bundled with the launcher
// binary.
//
// To add an embedded plugin, drop its directory (plugin.toml + entry
// wasm) under internal/plugin/plugins/.
//
//go:embed plugins/*/plugin.toml plugins/*/*.wasm
var EmbeddedPlugins embed.FS
