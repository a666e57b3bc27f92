// Package cli implements CogniaLauncher's command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cognia-dev/cognia-launcher/internal/cache"
	"github.com/cognia-dev/cognia-launcher/internal/config"
	"github.com/cognia-dev/cognia-launcher/internal/download"
	pluginpkg "github.com/cognia-dev/cognia-launcher/internal/plugin"
	"github.com/cognia-dev/cognia-launcher/internal/shim"
	"github.com/cognia-dev/cognia-launcher/internal/wasmhost"
)

// NewRootCommand builds the top-level CLI command tree: static
// subcommands (version, completion, config, group, plugin, download,
// cache), plus one dynamically generated subcommand per installed,
// enabled plugin, nested under its configured groups or left at the
// top level.
//
// registry, discoverer, host, shimManager, downloadManager, and cacheDB
// may be nil (e.g. in tests that only exercise static commands); the
// corresponding command subtree is simply omitted in that case.
func NewRootCommand(ctx context.Context, cfg *config.Config, configPath string, registry *pluginpkg.Registry, discoverer *pluginpkg.Discoverer, host *wasmhost.Host, shimManager *shim.Manager, shimPathManager *shim.PathManager, downloadManager *download.Manager, cacheDB *cache.DB) *cobra.Command {
	var (
		outputFormat string
		verbose      bool
		quiet        bool
	)

	root := &cobra.Command{
		Use:   "cognia",
		Short: "Cross-platform developer environment and package orchestrator",
		Long: `CogniaLauncher orchestrates package managers, language runtimes, and
WASM plugins behind one consistent command-line interface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&outputFormat, "output", cfg.Output, "Output format: table, json, yaml, quiet")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging from plugins")
	root.PersistentFlags().BoolVar(&quiet, "quiet", cfg.Quiet, "Suppress output; exit code indicates result")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if quiet {
			outputFormat = "quiet"
		}
	}

	root.AddCommand(newCompletionCommand())
	root.AddCommand(newVersionCommand())
	root.AddCommand(newGroupCommand(cfg, configPath))
	root.AddCommand(newConfigCommand(cfg, configPath))

	if registry != nil {
		root.AddCommand(newPluginCommand(registry))
	}

	if shimManager != nil {
		root.AddCommand(newShimCommand(shimManager, shimPathManager))
	}

	if downloadManager != nil {
		root.AddCommand(newDownloadCommand(downloadManager))
	}

	if cacheDB != nil {
		root.AddCommand(newCacheCommand(cacheDB))
	}

	if discoverer != nil {
		if err := registerPluginCommands(ctx, root, cfg, registry, discoverer, host, &outputFormat); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: plugin discovery failed: %v\n", err)
		}
	}

	registerOutputFormatCompletion(root)

	if len(cfg.Aliases) > 0 {
		registerAliases(root, cfg.Aliases)
	}

	return root
}

// registerPluginCommands discovers every embedded and locally installed
// plugin and attaches a generated command for each enabled one, either
// nested under its configured group(s) or at the root level.
func registerPluginCommands(ctx context.Context, root *cobra.Command, cfg *config.Config, registry *pluginpkg.Registry, discoverer *pluginpkg.Discoverer, host *wasmhost.Host, outputFormat *string) error {
	discovered, err := discoverer.DiscoverAll(ctx)
	if err != nil {
		return err
	}
	discovered = filterEnabled(discovered, registry)

	generateFn := func(dp pluginpkg.DiscoveredPlugin) *cobra.Command {
		return generatePluginCommand(dp, host, outputFormat)
	}

	topPlugins := registerGroups(root, cfg.Groups, discovered, generateFn)
	grouped := groupedPluginNames(cfg.Groups)

	for _, dp := range discovered {
		name := dp.Manifest.Name
		if topPlugins[name] || !grouped[name] {
			root.AddCommand(generateFn(dp))
		}
	}

	return nil
}

// filterEnabled drops discovered plugins the registry marks disabled.
// A plugin the registry has never heard of (e.g. embedded, never
// explicitly installed) is treated as enabled by default.
func filterEnabled(discovered []pluginpkg.DiscoveredPlugin, registry *pluginpkg.Registry) []pluginpkg.DiscoveredPlugin {
	if registry == nil {
		return discovered
	}
	out := make([]pluginpkg.DiscoveredPlugin, 0, len(discovered))
	for _, dp := range discovered {
		if installed, ok := registry.Get(dp.Manifest.Name); ok && !installed.Enabled {
			continue
		}
		out = append(out, dp)
	}
	return out
}

// groupedPluginNames returns the set of plugin names referenced by any
// non-"top" group, used to decide which plugins default to the root
// level because no group claims them.
func groupedPluginNames(groups map[string]config.GroupConfig) map[string]bool {
	names := make(map[string]bool)
	for groupName, g := range groups {
		if groupName == "top" {
			continue
		}
		for _, name := range g.Plugins {
			names[name] = true
		}
	}
	return names
}
