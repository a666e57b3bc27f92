// Package shim generates and maintains the small wrapper executables that
// let a globally-installed binary name (e.g. "node") resolve to whichever
// version of a provider's runtime is currently active, without requiring
// PATH to be rewritten every time the active version changes.
//
// A shim is a thin launcher placed in a single shim directory that is
// added to PATH once; it forwards to
// versions/<env>/<version-or-"current">/<binary>.
package shim

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"text/template"

	"github.com/cognia-dev/cognia-launcher/internal/atomicfile"
	"github.com/cognia-dev/cognia-launcher/internal/cogniaerr"
)

const configFileName = "shims.json"

// Config records how a single shim was generated, so it can be
// regenerated (e.g. after a version switch) without the caller supplying
// the original arguments again.
type Config struct {
	EnvType    string `json:"env_type"`
	BinaryName string `json:"binary_name"`
	Version    string `json:"version,omitempty"`
	TargetPath string `json:"target_path"`
}

// versionComponent is "current" when Config.Version is empty, meaning the
// shim always follows whatever version is currently active rather than
// being pinned.
func (c Config) versionComponent() string {
	if c.Version == "" {
		return "current"
	}
	return c.Version
}

// Manager creates, removes, and regenerates shim scripts in shimDir, and
// persists their configuration so they survive process restarts.
type Manager struct {
	shimDir    string
	configPath string
	configs    map[string]Config
}

// NewManager returns a Manager rooted at shimDir, loading any
// previously-persisted shim configuration found there.
func NewManager(shimDir string) (*Manager, error) {
	m := &Manager{
		shimDir:    shimDir,
		configPath: filepath.Join(shimDir, configFileName),
		configs:    make(map[string]Config),
	}
	if err := os.MkdirAll(shimDir, 0o755); err != nil {
		return nil, cogniaerr.Wrap(cogniaerr.KindIO, "creating shim directory", err)
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, "reading shim config", err)
	}
	if err := json.Unmarshal(data, &m.configs); err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, "parsing shim config", err)
	}
	return nil
}

func (m *Manager) save() error {
	data, err := json.MarshalIndent(m.configs, "", "  ")
	if err != nil {
		return cogniaerr.Wrap(cogniaerr.KindInternal, "encoding shim config", err)
	}
	if err := atomicfile.Write(m.configPath, data, 0o644); err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, "writing shim config", err)
	}
	return nil
}

// CreateShim writes the wrapper script(s) for cfg and records its
// configuration. On Windows this produces a .cmd and a .ps1 launcher; on
// other platforms it produces one executable shell script.
func (m *Manager) CreateShim(cfg Config) error {
	var err error
	if runtime.GOOS == "windows" {
		err = m.createWindowsShim(cfg)
	} else {
		err = m.createUnixShim(cfg)
	}
	if err != nil {
		return err
	}

	m.configs[cfg.BinaryName] = cfg
	return m.save()
}

// RemoveShim deletes binaryName's wrapper script(s) and forgets its
// configuration.
func (m *Manager) RemoveShim(binaryName string) error {
	for _, path := range m.scriptPaths(binaryName) {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return cogniaerr.Wrap(cogniaerr.KindIO, fmt.Sprintf("removing shim %s", path), err)
		}
	}
	delete(m.configs, binaryName)
	return m.save()
}

// UpdateShimVersion repoints an existing shim at a different version and
// regenerates its script. Passing an empty version pins it back to
// "current".
func (m *Manager) UpdateShimVersion(binaryName, version string) error {
	cfg, ok := m.configs[binaryName]
	if !ok {
		return cogniaerr.Newf(cogniaerr.KindInternal, "no shim registered for %s", binaryName)
	}
	cfg.Version = version
	return m.CreateShim(cfg)
}

// Get returns binaryName's stored shim configuration, if any.
func (m *Manager) Get(binaryName string) (Config, bool) {
	cfg, ok := m.configs[binaryName]
	return cfg, ok
}

// ListShims returns every shim's configuration.
func (m *Manager) ListShims() []Config {
	out := make([]Config, 0, len(m.configs))
	for _, cfg := range m.configs {
		out = append(out, cfg)
	}
	return out
}

// RegenerateAll rewrites every known shim's script(s) from its stored
// configuration, without altering which version each one targets. Useful
// after moving the shim directory or upgrading CogniaLauncher itself.
func (m *Manager) RegenerateAll() error {
	for _, cfg := range m.configs {
		var err error
		if runtime.GOOS == "windows" {
			err = m.createWindowsShim(cfg)
		} else {
			err = m.createUnixShim(cfg)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) scriptPaths(binaryName string) []string {
	if runtime.GOOS == "windows" {
		return []string{
			filepath.Join(m.shimDir, binaryName+".cmd"),
			filepath.Join(m.shimDir, binaryName+".ps1"),
		}
	}
	return []string{filepath.Join(m.shimDir, binaryName)}
}

// targetPath resolves the relative path (from the shim directory) to the
// real binary a shim forwards to.
func (cfg Config) targetPath() string {
	return filepath.ToSlash(filepath.Join("..", "versions", cfg.EnvType, cfg.versionComponent(), cfg.BinaryName))
}

var unixShimTemplate = template.Must(template.New("unix-shim").Parse(
	`#!/usr/bin/env bash
exec "${BASH_SOURCE%/*}/{{.Target}}" "$@"
`))

func (m *Manager) createUnixShim(cfg Config) error {
	var buf bytes.Buffer
	if err := unixShimTemplate.Execute(&buf, struct{ Target string }{Target: cfg.targetPath()}); err != nil {
		return cogniaerr.Wrap(cogniaerr.KindInternal, "rendering shim script", err)
	}

	path := filepath.Join(m.shimDir, cfg.BinaryName)
	if err := atomicfile.Write(path, buf.Bytes(), 0o755); err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, fmt.Sprintf("writing shim %s", path), err)
	}
	return os.Chmod(path, 0o755)
}

var windowsCmdShimTemplate = template.Must(template.New("windows-cmd-shim").Parse(
	`@echo off
"%~dp0{{.Target}}" %*
`))

var windowsPS1ShimTemplate = template.Must(template.New("windows-ps1-shim").Parse(
	`& "$PSScriptRoot/{{.Target}}" @args
exit $LASTEXITCODE
`))

func (m *Manager) createWindowsShim(cfg Config) error {
	target := struct{ Target string }{Target: filepath.FromSlash(cfg.targetPath())}

	var cmdBuf bytes.Buffer
	if err := windowsCmdShimTemplate.Execute(&cmdBuf, target); err != nil {
		return cogniaerr.Wrap(cogniaerr.KindInternal, "rendering .cmd shim", err)
	}
	cmdPath := filepath.Join(m.shimDir, cfg.BinaryName+".cmd")
	if err := atomicfile.Write(cmdPath, cmdBuf.Bytes(), 0o644); err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, fmt.Sprintf("writing shim %s", cmdPath), err)
	}

	var ps1Buf bytes.Buffer
	if err := windowsPS1ShimTemplate.Execute(&ps1Buf, target); err != nil {
		return cogniaerr.Wrap(cogniaerr.KindInternal, "rendering .ps1 shim", err)
	}
	ps1Path := filepath.Join(m.shimDir, cfg.BinaryName+".ps1")
	if err := atomicfile.Write(ps1Path, ps1Buf.Bytes(), 0o644); err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, fmt.Sprintf("writing shim %s", ps1Path), err)
	}

	return nil
}
