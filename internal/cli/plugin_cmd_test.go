package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognia-dev/cognia-launcher/internal/plugin"
)

func newTestRegistry(t *testing.T) *plugin.Registry {
	t.Helper()
	pluginsDir := t.TempDir()
	perms := plugin.NewManager(pluginsDir)
	disc := plugin.NewDiscoverer(plugin.EmbeddedPlugins, pluginsDir)
	return plugin.NewRegistry(pluginsDir, disc, perms)
}

func writeTestPlugin(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	manifest := "name = \"" + name + "\"\nversion = \"1.0.0\"\nentry = \"plugin.wasm\"\n"
	if err := os.WriteFile(filepath.Join(dir, "plugin.toml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plugin.wasm"), []byte("fake wasm"), 0o644); err != nil {
		t.Fatalf("writing entry module: %v", err)
	}
	return dir
}

func TestPluginCommand_ListEmpty(t *testing.T) {
	registry := newTestRegistry(t)

	cmd := newPluginListCommand(registry)
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "No plugins installed") {
		t.Errorf("expected empty list message, got: %s", output)
	}
}

func TestPluginCommand_InstallLocal(t *testing.T) {
	registry := newTestRegistry(t)
	srcDir := writeTestPlugin(t, "testplugin")

	cmd := newPluginInstallCommand(registry)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--yes", srcDir})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if _, ok := registry.Get("testplugin"); !ok {
		t.Error("expected testplugin to be registered")
	}
}

func TestPluginCommand_Uninstall(t *testing.T) {
	registry := newTestRegistry(t)
	srcDir := writeTestPlugin(t, "testplugin")

	installCmd := newPluginInstallCommand(registry)
	installCmd.SetArgs([]string{"--yes", srcDir})
	if err := installCmd.Execute(); err != nil {
		t.Fatalf("failed to install for uninstall test: %v", err)
	}

	cmd := newPluginUninstallCommand(registry)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"testplugin"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if _, ok := registry.Get("testplugin"); ok {
		t.Error("expected testplugin to be removed from the registry")
	}
}

func TestPluginCommand_EnableDisable(t *testing.T) {
	registry := newTestRegistry(t)
	srcDir := writeTestPlugin(t, "testplugin")

	installCmd := newPluginInstallCommand(registry)
	installCmd.SetArgs([]string{"--yes", srcDir})
	if err := installCmd.Execute(); err != nil {
		t.Fatalf("failed to install: %v", err)
	}

	disableCmd := newPluginDisableCommand(registry)
	disableCmd.SetArgs([]string{"testplugin"})
	if err := disableCmd.Execute(); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if p, _ := registry.Get("testplugin"); p.Enabled {
		t.Error("expected plugin to be disabled")
	}

	enableCmd := newPluginEnableCommand(registry)
	enableCmd.SetArgs([]string{"testplugin"})
	if err := enableCmd.Execute(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if p, _ := registry.Get("testplugin"); !p.Enabled {
		t.Error("expected plugin to be enabled")
	}
}

func TestConfirmDangerousPermissions_NoneRequested(t *testing.T) {
	manifest := &plugin.Manifest{Name: "safe", Permissions: plugin.Permissions{ConfigRead: true}}
	if err := confirmDangerousPermissions(manifest); err != nil {
		t.Errorf("expected no prompt for non-dangerous permissions, got: %v", err)
	}
}
