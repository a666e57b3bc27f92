package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// DiscoveryCache stores extracted manifests to speed up plugin
// discovery: an unchanged plugin directory is never re-parsed.
type DiscoveryCache struct {
	// Files maps plugin.toml paths to cached metadata.
	Files map[string]CacheEntry `json:"files"`
}

// CacheEntry holds metadata and manifest for a single plugin.toml.
type CacheEntry struct {
	ModTime  time.Time `json:"mod_time"`
	Size     int64     `json:"size"`
	Manifest Manifest  `json:"manifest"`
}

// NewDiscoveryCache creates a new, empty cache.
func NewDiscoveryCache() *DiscoveryCache {
	return &DiscoveryCache{
		Files: make(map[string]CacheEntry),
	}
}

// LoadCache reads the discovery cache from disk.
// Returns an empty cache if the file does not exist or is invalid.
func LoadCache(path string) *DiscoveryCache {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewDiscoveryCache()
	}

	var cache DiscoveryCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return NewDiscoveryCache()
	}

	if cache.Files == nil {
		cache.Files = make(map[string]CacheEntry)
	}

	return &cache
}

// Save writes the discovery cache to disk.
func (c *DiscoveryCache) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Lookup returns the cached manifest for path if its size and mtime
// still match what was recorded when it was last parsed.
func (c *DiscoveryCache) Lookup(path string, info os.FileInfo) (Manifest, bool) {
	entry, ok := c.Files[path]
	if !ok || entry.Size != info.Size() || !entry.ModTime.Equal(info.ModTime()) {
		return Manifest{}, false
	}
	return entry.Manifest, true
}

// Put records the manifest parsed from path at its current size/mtime.
func (c *DiscoveryCache) Put(path string, info os.FileInfo, m Manifest) {
	c.Files[path] = CacheEntry{
		ModTime:  info.ModTime(),
		Size:     info.Size(),
		Manifest: m,
	}
}

// DefaultCachePath returns the default location for the discovery cache.
// ~/.cognia/discovery_cache.json
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".cognia", "discovery_cache.json")
	}
	return filepath.Join(home, ".cognia", "discovery_cache.json")
}
