package plugin

import (
	"context"
	"embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/cognia-dev/cognia-launcher/internal/cogniaerr"
)

// DiscoveredPlugin holds a plugin's manifest plus however its WASM
// entry module should be loaded.
type DiscoveredPlugin struct {
	Manifest Manifest
	Loader   func() ([]byte, error)
	Source   string // "embedded" or "local"
	Path     string // plugin.toml path (or embedded:// URL)
}

// Discoverer finds plugins bundled with the binary and installed
// locally under a plugins directory, each a subdirectory holding a
// plugin.toml next to its WASM entry module.
type Discoverer struct {
	embeddedFS embed.FS
	pluginsDir string
	cachePath  string
}

// NewDiscoverer creates a Discoverer rooted at pluginsDir.
func NewDiscoverer(embeddedFS embed.FS, pluginsDir string) *Discoverer {
	return &Discoverer{
		embeddedFS: embeddedFS,
		pluginsDir: pluginsDir,
		cachePath:  DefaultCachePath(),
	}
}

// DiscoverAll finds every embedded and locally installed plugin, local
// installs overriding an embedded plugin of the same name.
func (d *Discoverer) DiscoverAll(ctx context.Context) ([]DiscoveredPlugin, error) {
	cache := LoadCache(d.cachePath)
	plugins := make(map[string]DiscoveredPlugin)
	cacheUpdated := false

	embedded, updatedE := d.discoverEmbedded(cache)
	for _, p := range embedded {
		plugins[p.Manifest.Name] = p
	}
	cacheUpdated = cacheUpdated || updatedE

	local, updatedL, err := d.discoverLocal(cache)
	if err != nil && !os.IsNotExist(err) {
		return nil, cogniaerr.Wrap(cogniaerr.KindPlugin, "discovering local plugins", err)
	}
	for _, p := range local {
		plugins[p.Manifest.Name] = p
	}
	cacheUpdated = cacheUpdated || updatedL

	if cacheUpdated {
		_ = cache.Save(d.cachePath)
	}

	result := make([]DiscoveredPlugin, 0, len(plugins))
	for _, p := range plugins {
		result = append(result, p)
	}
	return result, nil
}

// LoadByName resolves a single plugin by name, preferring a local
// install over an embedded one.
func (d *Discoverer) LoadByName(ctx context.Context, name string) (*DiscoveredPlugin, error) {
	localManifest := filepath.Join(d.pluginsDir, name, "plugin.toml")
	if _, err := os.Stat(localManifest); err == nil {
		return d.loadLocalDir(filepath.Join(d.pluginsDir, name))
	}

	embeddedManifest := "plugins/" + name + "/plugin.toml"
	if _, err := d.embeddedFS.Open(embeddedManifest); err == nil {
		return d.loadEmbeddedDir(name)
	}

	return nil, cogniaerr.Newf(cogniaerr.KindPlugin, "plugin %q not found", name)
}

func (d *Discoverer) discoverEmbedded(cache *DiscoveryCache) ([]DiscoveredPlugin, bool) {
	entries, err := d.embeddedFS.ReadDir("plugins")
	if err != nil {
		return nil, false
	}

	var plugins []DiscoveredPlugin
	updated := false
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		p, err := d.loadEmbeddedDir(entry.Name())
		if err != nil {
			continue
		}
		cacheKey := "embedded://" + entry.Name()
		if _, ok := cache.Files[cacheKey]; !ok {
			cache.Files[cacheKey] = CacheEntry{Manifest: p.Manifest}
			updated = true
		}
		plugins = append(plugins, *p)
	}
	return plugins, updated
}

func (d *Discoverer) discoverLocal(cache *DiscoveryCache) ([]DiscoveredPlugin, bool, error) {
	entries, err := os.ReadDir(d.pluginsDir)
	if err != nil {
		return nil, false, err
	}

	var plugins []DiscoveredPlugin
	updated := false
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(d.pluginsDir, entry.Name())
		manifestPath := filepath.Join(dir, "plugin.toml")
		info, err := os.Stat(manifestPath)
		if err != nil {
			continue
		}

		if cached, ok := cache.Lookup(manifestPath, info); ok {
			manifest := cached
			entryPath := filepath.Join(dir, manifest.Entry)
			plugins = append(plugins, DiscoveredPlugin{
				Manifest: manifest,
				Loader:   func() ([]byte, error) { return os.ReadFile(entryPath) },
				Source:   "local",
				Path:     manifestPath,
			})
			continue
		}

		p, err := d.loadLocalDir(dir)
		if err != nil {
			continue
		}
		cache.Put(manifestPath, info, p.Manifest)
		updated = true
		plugins = append(plugins, *p)
	}
	return plugins, updated, nil
}

func (d *Discoverer) loadLocalDir(dir string) (*DiscoveredPlugin, error) {
	manifestPath := filepath.Join(dir, "plugin.toml")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, cogniaerr.Wrap(cogniaerr.KindPlugin, "reading plugin manifest", err)
	}
	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	entryPath := filepath.Join(dir, manifest.Entry)
	return &DiscoveredPlugin{
		Manifest: *manifest,
		Loader:   func() ([]byte, error) { return os.ReadFile(entryPath) },
		Source:   "local",
		Path:     manifestPath,
	}, nil
}

func (d *Discoverer) loadEmbeddedDir(name string) (*DiscoveredPlugin, error) {
	manifestPath := "plugins/" + name + "/plugin.toml"
	data, err := d.embeddedFS.ReadFile(manifestPath)
	if err != nil {
		return nil, cogniaerr.Wrap(cogniaerr.KindPlugin, "reading embedded plugin manifest", err)
	}
	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	entryPath := "plugins/" + name + "/" + manifest.Entry
	return &DiscoveredPlugin{
		Manifest: *manifest,
		Loader:   func() ([]byte, error) { return d.embeddedFS.ReadFile(entryPath) },
		Source:   "embedded",
		Path:     "embedded://" + manifestPath,
	}, nil
}

// Watch observes the plugins directory and invokes onChange once for
// every create, remove or rename event it reports; events are not
// batched or debounced. It blocks until ctx is cancelled.
func (d *Discoverer) Watch(ctx context.Context, onChange func()) error {
	if err := os.MkdirAll(d.pluginsDir, 0o755); err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, "creating plugins directory to watch", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return cogniaerr.Wrap(cogniaerr.KindInternal, "starting plugin directory watcher", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(d.pluginsDir); err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, "watching plugins directory", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 && onChange != nil {
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				return cogniaerr.Wrap(cogniaerr.KindIO, "watching plugins directory", err)
			}
		}
	}
}

// ParseNameVersion splits "aws@1.2.0" into ("aws", "1.2.0").
func ParseNameVersion(s string) (string, string) {
	if idx := strings.Index(s, "@"); idx >= 0 {
		return s[:idx], s[idx+1:]
	}
	return s, ""
}
