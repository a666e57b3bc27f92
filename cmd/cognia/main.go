// Command cognia is CogniaLauncher's entry point: it wires config,
// logging, the provider registry, the download cache, the plugin
// registry, and the WASM plugin host together into the cobra command
// tree defined in internal/cli.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/cognia-dev/cognia-launcher/internal/cache"
	internalcli "github.com/cognia-dev/cognia-launcher/internal/cli"
	"github.com/cognia-dev/cognia-launcher/internal/config"
	"github.com/cognia-dev/cognia-launcher/internal/download"
	"github.com/cognia-dev/cognia-launcher/internal/logging"
	"github.com/cognia-dev/cognia-launcher/internal/meta"
	"github.com/cognia-dev/cognia-launcher/internal/plugin"
	"github.com/cognia-dev/cognia-launcher/internal/provider"
	"github.com/cognia-dev/cognia-launcher/internal/shim"
	"github.com/cognia-dev/cognia-launcher/internal/wasmhost"
	"github.com/spf13/cobra"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	configPath := config.DefaultConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.ValidateGroups(); err != nil {
		return fmt.Errorf("validating config groups: %w", err)
	}

	logger := logging.New(false, cfg.Quiet)
	defer logger.Sync()

	rootDir := config.DefaultConfigDir()
	cacheDir := filepath.Join(rootDir, "cache")
	pluginsDir := filepath.Join(rootDir, "plugins")
	if err := os.MkdirAll(pluginsDir, 0o755); err != nil {
		return fmt.Errorf("creating plugins directory: %w", err)
	}

	db, err := cache.Open(cacheDir)
	if err != nil {
		return fmt.Errorf("opening download cache: %w", err)
	}

	resumer, err := cache.OpenResumer(cacheDir)
	if err != nil {
		return fmt.Errorf("opening download resumer: %w", err)
	}

	downloadEngine := download.NewEngine(
		download.WithWorkers(cfg.General.ParallelDownloads),
		download.WithLogger(logger),
	)
	downloadQueue := download.NewQueuePersistence(cacheDir)
	downloadManager := download.NewManager(downloadEngine, resumer, db, downloadQueue,
		download.WithManagerWorkers(cfg.General.ParallelDownloads),
		download.WithMaxCacheSize(cfg.General.CacheMaxSize),
		download.WithManagerLogger(logger),
	)
	if err := downloadManager.Start(ctx); err != nil {
		return fmt.Errorf("starting download manager: %w", err)
	}
	defer func() { _ = downloadManager.Shutdown() }()

	registry := provider.NewRegistry()
	orchestrator := provider.NewOrchestrator(registry)

	permManager := plugin.NewManager(pluginsDir)
	discoverer := plugin.NewDiscoverer(plugin.EmbeddedPlugins, pluginsDir)
	pluginRegistry := plugin.NewRegistry(pluginsDir, discoverer, permManager)

	shimDir := filepath.Join(rootDir, "shims")
	shimManager, err := shim.NewManager(shimDir)
	if err != nil {
		return fmt.Errorf("initializing shim manager: %w", err)
	}
	shimPathManager := shim.NewPathManager(shimDir)

	deps := wasmhost.Dependencies{
		Config:      cfg,
		Environment: wasmhost.NewProviderAdapter(registry, orchestrator),
		Packages:    wasmhost.NewProviderAdapter(registry, orchestrator),
		Clipboard:   wasmhost.SystemClipboard{},
		Notifier:    wasmhost.LogNotifier{Logger: logger},
		Process:     wasmhost.ExecProcessRunner{},
		Meta: wasmhost.LocalMetaService{
			Logger:       logger,
			CacheDir:     cacheDir,
			CacheEntries: func() int { return len(db.List()) },
			CacheBytes:   func() int64 { return db.Stats().TotalSize },
		},
		Permissions: permManager,
	}

	host, err := wasmhost.NewHost(ctx, deps)
	if err != nil {
		return fmt.Errorf("starting plugin host: %w", err)
	}
	defer func() { _ = host.Close(ctx) }()

	root := internalcli.NewRootCommand(ctx, cfg, configPath, pluginRegistry, discoverer, host, shimManager, shimPathManager, downloadManager, db)

	if err := root.ExecuteContext(ctx); err != nil {
		reportExecError(root, err)
		os.Exit(1)
	}
	return nil
}

// reportExecError prints a plugin-install hint when the failure looks
// like cobra's "unknown command" for a plugin name that isn't installed.
func reportExecError(root *cobra.Command, err error) {
	msg := err.Error()
	if !strings.Contains(msg, "unknown command") {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		return
	}

	parts := strings.Split(msg, "\"")
	if len(parts) < 2 {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		return
	}
	unknownCmd := parts[1]
	fmt.Fprintf(os.Stderr, "Error: plugin %q not found\n", unknownCmd)

	var installed []string
	for _, cmd := range root.Commands() {
		switch cmd.Name() {
		case "completion", "help", "plugin", "version", "group", "config", "shim", "download", "cache":
			continue
		}
		installed = append(installed, cmd.Name())
	}
	if len(installed) > 0 {
		fmt.Fprintf(os.Stderr, "  Installed plugins: %s\n", strings.Join(installed, ", "))
	}
	fmt.Fprintf(os.Stderr, "  To install: %s plugin install <path-or-url>\n", meta.AppName)
}
