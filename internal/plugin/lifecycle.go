package plugin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	urlpath "path"
	"path/filepath"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/cognia-dev/cognia-launcher/internal/atomicfile"
	"github.com/cognia-dev/cognia-launcher/internal/cogniaerr"
)

// InstalledPlugin records how a plugin came to be installed, so it can
// be reloaded, checked for updates, or uninstalled later.
type InstalledPlugin struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Dir     string `json:"dir"`
	Origin  string `json:"origin"` // "path" or "url"
	Source  string `json:"source"` // the original path or URL
	Enabled bool   `json:"enabled"`
}

// registryState is the on-disk shape of the install registry.
type registryState struct {
	Version int                        `json:"version"`
	Plugins map[string]InstalledPlugin `json:"plugins"`
}

// Registry tracks installed plugins and drives their lifecycle:
// install, enable, disable, reload, uninstall.
type Registry struct {
	mu         sync.Mutex
	pluginsDir string
	statePath  string
	state      registryState
	discoverer *Discoverer
	perms      *Manager
	httpClient *http.Client
}

// NewRegistry creates a Registry rooted at pluginsDir, loading any
// previously persisted install state (or starting empty).
func NewRegistry(pluginsDir string, discoverer *Discoverer, perms *Manager) *Registry {
	r := &Registry{
		pluginsDir: pluginsDir,
		statePath:  filepath.Join(pluginsDir, "installed.json"),
		discoverer: discoverer,
		perms:      perms,
		httpClient: http.DefaultClient,
	}
	r.state = r.load()
	return r
}

func (r *Registry) load() registryState {
	data, err := os.ReadFile(r.statePath)
	if err != nil {
		return registryState{Version: 1, Plugins: map[string]InstalledPlugin{}}
	}
	var s registryState
	if err := json.Unmarshal(data, &s); err != nil || s.Plugins == nil {
		return registryState{Version: 1, Plugins: map[string]InstalledPlugin{}}
	}
	return s
}

func (r *Registry) save() error {
	data, err := json.MarshalIndent(r.state, "", "  ")
	if err != nil {
		return cogniaerr.Wrap(cogniaerr.KindInternal, "marshalling plugin registry", err)
	}
	return atomicfile.Write(r.statePath, data, 0o644)
}

// InstallFromPath installs a plugin from a local directory containing
// a plugin.toml and its WASM entry module, copying it into the
// managed plugins directory.
func (r *Registry) InstallFromPath(ctx context.Context, path string) (*InstalledPlugin, error) {
	manifestPath := filepath.Join(path, "plugin.toml")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, cogniaerr.Wrap(cogniaerr.KindPlugin, "reading plugin.toml at source path", err)
	}
	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}

	destDir := filepath.Join(r.pluginsDir, manifest.Name)
	if err := copyDir(path, destDir); err != nil {
		return nil, cogniaerr.Wrap(cogniaerr.KindIO, "copying plugin into plugins directory", err)
	}

	return r.register(manifest, destDir, "path", path)
}

// InstallFromURL downloads a single-file resource (the plugin.toml
// manifest and its entry module are expected to already exist
// together at the source — this fetches a packaged manifest the
// caller resolved separately) and registers it.
//
// CogniaLauncher does not invent an archive format: install_from_url
// expects url to point directly at a plugin.toml, with the entry
// module fetched relative to it.
func (r *Registry) InstallFromURL(ctx context.Context, manifestURL string) (*InstalledPlugin, error) {
	data, err := r.fetch(ctx, manifestURL)
	if err != nil {
		return nil, cogniaerr.Wrap(cogniaerr.KindNetwork, "fetching plugin manifest", err)
	}
	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}

	destDir := filepath.Join(r.pluginsDir, manifest.Name)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, cogniaerr.Wrap(cogniaerr.KindIO, "creating plugin directory", err)
	}
	if err := os.WriteFile(filepath.Join(destDir, "plugin.toml"), data, 0o644); err != nil {
		return nil, cogniaerr.Wrap(cogniaerr.KindIO, "writing plugin manifest", err)
	}

	entryURL := resolveRelative(manifestURL, manifest.Entry)
	entryData, err := r.fetch(ctx, entryURL)
	if err != nil {
		return nil, cogniaerr.Wrap(cogniaerr.KindNetwork, "fetching plugin entry module", err)
	}
	if err := os.WriteFile(filepath.Join(destDir, manifest.Entry), entryData, 0o644); err != nil {
		return nil, cogniaerr.Wrap(cogniaerr.KindIO, "writing plugin entry module", err)
	}

	return r.register(manifest, destDir, "url", manifestURL)
}

func (r *Registry) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, cogniaerr.HTTPError(resp.StatusCode, "fetching "+url)
	}
	return io.ReadAll(resp.Body)
}

func (r *Registry) register(manifest *Manifest, destDir, origin, source string) (*InstalledPlugin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	installed := InstalledPlugin{
		ID:      manifest.Name,
		Name:    manifest.Name,
		Version: manifest.Version,
		Dir:     destDir,
		Origin:  origin,
		Source:  source,
		Enabled: true,
	}
	r.state.Plugins[manifest.Name] = installed
	if err := r.save(); err != nil {
		return nil, err
	}

	r.perms.RegisterPlugin(manifest.Name, manifest.Permissions)
	return &installed, nil
}

// Uninstall removes a plugin's files and registry entry.
func (r *Registry) Uninstall(pluginID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	installed, ok := r.state.Plugins[pluginID]
	if !ok {
		return cogniaerr.Newf(cogniaerr.KindPlugin, "plugin %q is not installed", pluginID)
	}
	if err := os.RemoveAll(installed.Dir); err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, "removing plugin directory", err)
	}
	delete(r.state.Plugins, pluginID)
	r.perms.UnregisterPlugin(pluginID)
	return r.save()
}

// Enable marks an installed plugin enabled.
func (r *Registry) Enable(pluginID string) error {
	return r.setEnabled(pluginID, true)
}

// Disable marks an installed plugin disabled; it stays installed but
// is skipped by discovery-driven invocation.
func (r *Registry) Disable(pluginID string) error {
	return r.setEnabled(pluginID, false)
}

func (r *Registry) setEnabled(pluginID string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	installed, ok := r.state.Plugins[pluginID]
	if !ok {
		return cogniaerr.Newf(cogniaerr.KindPlugin, "plugin %q is not installed", pluginID)
	}
	installed.Enabled = enabled
	r.state.Plugins[pluginID] = installed
	return r.save()
}

// Reload re-reads a plugin's manifest from disk, re-registering its
// permission state (picking up any manifest edits since install).
func (r *Registry) Reload(ctx context.Context, pluginID string) (*InstalledPlugin, error) {
	r.mu.Lock()
	installed, ok := r.state.Plugins[pluginID]
	r.mu.Unlock()
	if !ok {
		return nil, cogniaerr.Newf(cogniaerr.KindPlugin, "plugin %q is not installed", pluginID)
	}

	data, err := os.ReadFile(filepath.Join(installed.Dir, "plugin.toml"))
	if err != nil {
		return nil, cogniaerr.Wrap(cogniaerr.KindPlugin, "re-reading plugin manifest", err)
	}
	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	installed.Version = manifest.Version
	r.state.Plugins[pluginID] = installed
	err = r.save()
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	r.perms.RegisterPlugin(pluginID, manifest.Permissions)
	return &installed, nil
}

// List returns every installed plugin.
func (r *Registry) List() []InstalledPlugin {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]InstalledPlugin, 0, len(r.state.Plugins))
	for _, p := range r.state.Plugins {
		out = append(out, p)
	}
	return out
}

// Get returns a single installed plugin's record.
func (r *Registry) Get(pluginID string) (InstalledPlugin, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state.Plugins[pluginID]
	return p, ok
}

// PluginUpdateSource resolves the latest available version for an
// installed plugin without yet downloading it.
type PluginUpdateSource interface {
	LatestVersion(ctx context.Context, installed InstalledPlugin) (string, error)
}

// URLUpdateSource re-fetches an install_from_url plugin's manifest and
// reports its version, the only update-source protocol spec.md's Open
// Questions leave room for without inventing a registry wire format.
type URLUpdateSource struct {
	httpClient *http.Client
}

// NewURLUpdateSource creates a URLUpdateSource using http.DefaultClient.
func NewURLUpdateSource() *URLUpdateSource {
	return &URLUpdateSource{httpClient: http.DefaultClient}
}

// LatestVersion re-downloads installed.Source's manifest and returns
// its declared version.
func (u *URLUpdateSource) LatestVersion(ctx context.Context, installed InstalledPlugin) (string, error) {
	if installed.Origin != "url" {
		return "", cogniaerr.Newf(cogniaerr.KindPlugin, "plugin %q was not installed from a URL", installed.ID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, installed.Source, nil)
	if err != nil {
		return "", err
	}
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindNetwork, "checking plugin update", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", cogniaerr.HTTPError(resp.StatusCode, "checking plugin update")
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	manifest, err := ParseManifest(data)
	if err != nil {
		return "", err
	}
	return manifest.Version, nil
}

// CheckUpdate reports whether src has a newer version of pluginID than
// is currently installed, using semver ordering.
func (r *Registry) CheckUpdate(ctx context.Context, pluginID string, src PluginUpdateSource) (hasUpdate bool, latest string, err error) {
	installed, ok := r.Get(pluginID)
	if !ok {
		return false, "", cogniaerr.Newf(cogniaerr.KindPlugin, "plugin %q is not installed", pluginID)
	}

	latest, err = src.LatestVersion(ctx, installed)
	if err != nil {
		return false, "", err
	}

	current, err := semver.NewVersion(installed.Version)
	if err != nil {
		return false, latest, cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing installed plugin version", err)
	}
	latestVer, err := semver.NewVersion(latest)
	if err != nil {
		return false, latest, cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing latest plugin version", err)
	}

	return latestVer.GreaterThan(current), latest, nil
}

// Update re-installs pluginID from its original URL if src reports a
// newer version available.
func (r *Registry) Update(ctx context.Context, pluginID string, src PluginUpdateSource) (*InstalledPlugin, error) {
	has, _, err := r.CheckUpdate(ctx, pluginID, src)
	if err != nil {
		return nil, err
	}
	if !has {
		installed, _ := r.Get(pluginID)
		return &installed, nil
	}

	installed, _ := r.Get(pluginID)
	return r.InstallFromURL(ctx, installed.Source)
}

func resolveRelative(base, rel string) string {
	u, err := url.Parse(base)
	if err != nil {
		return urlpath.Dir(base) + "/" + rel
	}
	u.Path = urlpath.Join(urlpath.Dir(u.Path), rel)
	return u.String()
}

func copyDir(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		data, err := os.ReadFile(srcPath)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dstPath, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
