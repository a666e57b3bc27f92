// Package cache implements the content-addressed download cache index,
// the partial-download resumer, and the cleanup audit log of spec.md §3
// and §4.2.
package cache

import "time"

// EntryType discriminates what a CacheEntry represents.
type EntryType string

const (
	EntryDownload EntryType = "download"
	EntryMetadata EntryType = "metadata"
	EntryIndex    EntryType = "index"
	EntryPartial  EntryType = "partial"
)

// Entry is one record in the cache index. Key is unique across the
// index; Checksum is a hex digest (SHA-256, per spec.md §9); Size equals
// the byte length of FilePath at insertion time.
type Entry struct {
	Key          string     `json:"key"`
	FilePath     string     `json:"file_path"`
	Size         int64      `json:"size"`
	Checksum     string     `json:"checksum"`
	CreatedAt    time.Time  `json:"created_at"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	HitCount     uint64     `json:"hit_count"`
	EntryType    EntryType  `json:"entry_type"`
}

// NewEntry constructs an Entry with CreatedAt set to now.
func NewEntry(key, filePath string, size int64, checksum string, entryType EntryType) Entry {
	return Entry{
		Key:       key,
		FilePath:  filePath,
		Size:      size,
		Checksum:  checksum,
		CreatedAt: time.Now(),
		EntryType: entryType,
	}
}

// WithExpiry returns a copy of e with ExpiresAt set.
func (e Entry) WithExpiry(t time.Time) Entry {
	e.ExpiresAt = &t
	return e
}

// WithTTL returns a copy of e with ExpiresAt set to now+ttl.
func (e Entry) WithTTL(ttl time.Duration) Entry {
	t := time.Now().Add(ttl)
	e.ExpiresAt = &t
	return e
}

// IsExpired reports whether e's ExpiresAt is in the past relative to now.
func (e Entry) IsExpired(now time.Time) bool {
	return e.ExpiresAt != nil && e.ExpiresAt.Before(now)
}

// effectiveAccessTime is last_accessed if set, else created_at — the
// ordering key used by LRU eviction and get_lru, per spec.md §4.2.
func (e Entry) effectiveAccessTime() time.Time {
	if e.LastAccessed != nil {
		return *e.LastAccessed
	}
	return e.CreatedAt
}

// Index is the on-disk JSON document persisted at
// <cache-dir>/cache-index.json.
type Index struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// Stats summarizes the cache index.
type Stats struct {
	TotalSize      int64      `json:"total_size"`
	EntryCount     int        `json:"entry_count"`
	DownloadCount  int        `json:"download_count"`
	MetadataCount  int        `json:"metadata_count"`
	OldestEntry    *time.Time `json:"oldest_entry,omitempty"`
	NewestEntry    *time.Time `json:"newest_entry,omitempty"`
}
