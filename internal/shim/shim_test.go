package shim

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestManager_CreateShim_Unix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shim format only")
	}

	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	cfg := Config{EnvType: "node", BinaryName: "node", Version: "18.0.0"}
	if err := m.CreateShim(cfg); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "node")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "../versions/node/18.0.0/node") {
		t.Errorf("expected shim to reference versioned target, got: %s", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Error("expected shim to be executable")
	}
}

func TestManager_CreateShim_DefaultsToCurrent(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	cfg := Config{EnvType: "python", BinaryName: "python"}
	if err := m.CreateShim(cfg); err != nil {
		t.Fatal(err)
	}

	got := m.configs["python"]
	if got.versionComponent() != "current" {
		t.Errorf("expected unpinned shim to target current, got %q", got.versionComponent())
	}
}

func TestManager_UpdateShimVersion(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.CreateShim(Config{EnvType: "node", BinaryName: "node", Version: "18.0.0"}); err != nil {
		t.Fatal(err)
	}
	if err := m.UpdateShimVersion("node", "20.0.0"); err != nil {
		t.Fatal(err)
	}

	if got := m.configs["node"].Version; got != "20.0.0" {
		t.Errorf("expected version 20.0.0, got %q", got)
	}
}

func TestManager_RemoveShim(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.CreateShim(Config{EnvType: "node", BinaryName: "node"}); err != nil {
		t.Fatal(err)
	}
	if err := m.RemoveShim("node"); err != nil {
		t.Fatal(err)
	}

	if _, ok := m.configs["node"]; ok {
		t.Error("expected shim config to be removed")
	}
	for _, path := range m.scriptPaths("node") {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("expected %s to be removed", path)
		}
	}
}

func TestManager_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	m1, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := m1.CreateShim(Config{EnvType: "node", BinaryName: "node", Version: "18.0.0"}); err != nil {
		t.Fatal(err)
	}

	m2, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	shims := m2.ListShims()
	if len(shims) != 1 || shims[0].BinaryName != "node" {
		t.Errorf("expected reloaded config to contain node shim, got %+v", shims)
	}
}
