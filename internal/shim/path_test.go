package shim

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestPathManager_IsInPath(t *testing.T) {
	shimDir := "/fake/shim/dir"
	t.Setenv("PATH", shimDir+string(os.PathListSeparator)+"/usr/bin")

	pm := NewPathManager(shimDir)
	if !pm.IsInPath() {
		t.Error("expected shim dir to be detected on PATH")
	}

	pm2 := NewPathManager("/other/dir")
	if pm2.IsInPath() {
		t.Error("expected unrelated dir to not be on PATH")
	}
}

func TestPathManager_AddToPath_Unix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix rc file handling only")
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SHELL", "/bin/bash")

	shimDir := filepath.Join(home, ".cognia", "shims")
	pm := NewPathManager(shimDir)

	if err := pm.AddToPath(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(home, ".bashrc"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), shimDir) {
		t.Errorf("expected .bashrc to reference shim dir, got: %s", data)
	}

	// Re-running should not duplicate the entry.
	if err := pm.AddToPath(); err != nil {
		t.Fatal(err)
	}
	data2, err := os.ReadFile(filepath.Join(home, ".bashrc"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(data2), shimDir) != 1 {
		t.Errorf("expected exactly one reference to shim dir, got %d in: %s", strings.Count(string(data2), shimDir), data2)
	}
}

func TestPathManager_RemoveFromPath_Unix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix rc file handling only")
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SHELL", "/bin/bash")

	shimDir := filepath.Join(home, ".cognia", "shims")
	pm := NewPathManager(shimDir)

	if err := pm.AddToPath(); err != nil {
		t.Fatal(err)
	}
	if err := pm.RemoveFromPath(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(home, ".bashrc"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), shimDir) {
		t.Errorf("expected shim dir reference to be removed, got: %s", data)
	}
}

func TestPathManager_AddToPathCommand(t *testing.T) {
	pm := NewPathManager("/home/user/.cognia/shims")
	cmd := pm.AddToPathCommand()
	if cmd == "" {
		t.Error("expected a non-empty command")
	}
}
