package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/cognia-dev/cognia-launcher/internal/atomicfile"
)

// PartialDownload tracks the resumable state of a single in-flight
// download, keyed by a hash of its URL.
type PartialDownload struct {
	URL               string    `json:"url"`
	FilePath          string    `json:"file_path"`
	ExpectedSize      *int64    `json:"expected_size,omitempty"`
	DownloadedSize    int64     `json:"downloaded_size"`
	ExpectedChecksum  string    `json:"expected_checksum,omitempty"`
	StartedAt         time.Time `json:"started_at"`
	LastUpdated       time.Time `json:"last_updated"`
	SupportsResume    bool      `json:"supports_resume"`
}

// Resumer persists the set of partial downloads under
// <cache-dir>/partials/partials.json, keyed by a deterministic,
// cross-process-stable hash of each download's URL (xxhash rather than
// a process-local hasher, so resumption survives process restarts).
type Resumer struct {
	mu        sync.Mutex
	dir       string
	indexPath string
	partials  map[string]PartialDownload
	trashFunc func(path string) error
}

// OpenResumer creates <cacheDir>/partials if needed and loads any
// existing index, starting clean on a torn file.
func OpenResumer(cacheDir string) (*Resumer, error) {
	dir := filepath.Join(cacheDir, "partials")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating partials dir: %w", err)
	}

	r := &Resumer{
		dir:       dir,
		indexPath: filepath.Join(dir, "partials.json"),
		partials:  map[string]PartialDownload{},
	}

	data, err := os.ReadFile(r.indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("reading partials index: %w", err)
	}

	var m map[string]PartialDownload
	if err := json.Unmarshal(data, &m); err != nil {
		return r, nil
	}
	r.partials = m
	return r, nil
}

func urlKey(url string) string {
	h := xxhash.Sum64String(url)
	return fmt.Sprintf("%016x", h)
}

func (r *Resumer) save() error {
	data, err := json.MarshalIndent(r.partials, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling partials index: %w", err)
	}
	return atomicfile.Write(r.indexPath, data, 0o644)
}

// GetOrCreate returns the existing partial for url if its file still
// exists on disk (refreshing DownloadedSize from the file's actual
// size), otherwise creates a fresh zero-progress partial.
func (r *Resumer) GetOrCreate(url string) (PartialDownload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := urlKey(url)
	now := time.Now()

	if existing, ok := r.partials[key]; ok {
		if info, err := os.Stat(existing.FilePath); err == nil {
			existing.DownloadedSize = info.Size()
			existing.LastUpdated = now
			r.partials[key] = existing
			if err := r.save(); err != nil {
				return PartialDownload{}, err
			}
			return existing, nil
		}
	}

	partial := PartialDownload{
		URL:            url,
		FilePath:       filepath.Join(r.dir, key+".partial"),
		DownloadedSize: 0,
		StartedAt:      now,
		LastUpdated:    now,
		SupportsResume: false,
	}
	r.partials[key] = partial
	if err := r.save(); err != nil {
		return PartialDownload{}, err
	}
	return partial, nil
}

// Update records downloaded-byte progress for url.
func (r *Resumer) Update(url string, downloadedSize int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := urlKey(url)
	if p, ok := r.partials[key]; ok {
		p.DownloadedSize = downloadedSize
		p.LastUpdated = time.Now()
		r.partials[key] = p
	}
	return r.save()
}

// Complete removes url's partial-download bookkeeping (the caller has
// already moved the finished file into the cache).
func (r *Resumer) Complete(url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.partials, urlKey(url))
	return r.save()
}

// Cancel removes url's partial and deletes its on-disk file.
func (r *Resumer) Cancel(url string) error {
	return r.CancelWithOption(url, false)
}

// CancelWithOption removes url's partial, optionally routing the file
// through the platform trash instead of a hard delete. Trash semantics
// are provided by the caller via trashFunc; when nil, the file is
// removed directly.
func (r *Resumer) CancelWithOption(url string, useTrash bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := urlKey(url)
	if p, ok := r.partials[key]; ok {
		delete(r.partials, key)
		if _, err := os.Stat(p.FilePath); err == nil {
			if useTrash && r.trashFunc != nil {
				_ = r.trashFunc(p.FilePath)
			} else {
				_ = os.Remove(p.FilePath)
			}
		}
	}
	return r.save()
}

// SetTrashFunc installs the platform trash implementation used by
// CancelWithOption(url, true).
func (r *Resumer) SetTrashFunc(f func(path string) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trashFunc = f
}

// GetStale returns every partial whose LastUpdated is older than maxAge.
func (r *Resumer) GetStale(maxAge time.Duration) []PartialDownload {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var out []PartialDownload
	for _, p := range r.partials {
		if now.Sub(p.LastUpdated) > maxAge {
			out = append(out, p)
		}
	}
	return out
}

// CleanStale cancels every partial older than maxAge and returns the
// count cleaned.
func (r *Resumer) CleanStale(maxAge time.Duration) (int, error) {
	return r.CleanStaleWithOption(maxAge, false)
}

// CleanStaleWithOption is CleanStale with trash routing.
func (r *Resumer) CleanStaleWithOption(maxAge time.Duration, useTrash bool) (int, error) {
	stale := r.GetStale(maxAge)
	for _, p := range stale {
		if err := r.CancelWithOption(p.URL, useTrash); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}
