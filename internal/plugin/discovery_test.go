package plugin

import (
	"context"
	"embed"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPlugin(t *testing.T, dir, name, version string) {
	t.Helper()
	pluginDir := filepath.Join(dir, name)
	if err := os.MkdirAll(pluginDir, 0o755); err != nil {
		t.Fatal(err)
	}
	toml := "name = \"" + name + "\"\nversion = \"" + version + "\"\nentry = \"entry.wasm\"\n"
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "entry.wasm"), []byte("\x00asm"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverAllFindsLocalPlugins(t *testing.T) {
	dir := t.TempDir()
	writeTestPlugin(t, dir, "greet", "1.0.0")

	var emptyFS embed.FS
	d := NewDiscoverer(emptyFS, dir)
	d.cachePath = filepath.Join(dir, "cache.json")

	found, err := d.DiscoverAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].Manifest.Name != "greet" {
		t.Fatalf("expected to discover greet, got %+v", found)
	}
	if found[0].Source != "local" {
		t.Errorf("expected local source, got %s", found[0].Source)
	}
}

func TestDiscoverAllUsesCacheOnSecondRun(t *testing.T) {
	dir := t.TempDir()
	writeTestPlugin(t, dir, "greet", "1.0.0")

	var emptyFS embed.FS
	d := NewDiscoverer(emptyFS, dir)
	d.cachePath = filepath.Join(dir, "cache.json")

	if _, err := d.DiscoverAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	d2 := NewDiscoverer(emptyFS, dir)
	d2.cachePath = d.cachePath
	found, err := d2.DiscoverAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].Manifest.Version != "1.0.0" {
		t.Fatalf("expected cached manifest reused, got %+v", found)
	}
}

func TestLoadByNameNotFound(t *testing.T) {
	dir := t.TempDir()
	var emptyFS embed.FS
	d := NewDiscoverer(emptyFS, dir)
	if _, err := d.LoadByName(context.Background(), "nope"); err == nil {
		t.Error("expected not-found error")
	}
}

func TestParseNameVersion(t *testing.T) {
	name, version := ParseNameVersion("aws@1.2.0")
	if name != "aws" || version != "1.2.0" {
		t.Errorf("got name=%q version=%q", name, version)
	}
	name, version = ParseNameVersion("aws")
	if name != "aws" || version != "" {
		t.Errorf("got name=%q version=%q", name, version)
	}
}
