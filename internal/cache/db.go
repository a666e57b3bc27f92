package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cognia-dev/cognia-launcher/internal/atomicfile"
)

const currentIndexVersion = 1

// DB is the on-disk-backed cache index, guarded by a single mutex held
// only while mutating the in-memory structure and issuing the
// persistence write, per spec.md §5.
type DB struct {
	mu        sync.Mutex
	indexPath string
	index     Index
}

// Open loads (or initializes) the cache index at <cacheDir>/cache-index.json.
// A torn (unparseable) index file is replaced in memory with an empty
// index of the current version rather than failing the open, per
// spec.md §4.2's availability-over-strictness design note. The
// replacement is silent: Open returns no error and logs nothing.
func Open(cacheDir string) (*DB, error) {
	indexPath := filepath.Join(cacheDir, "cache-index.json")

	db := &DB{
		indexPath: indexPath,
		index:     Index{Version: currentIndexVersion},
	}

	data, err := os.ReadFile(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return db, nil
		}
		return nil, fmt.Errorf("reading cache index: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		// Torn/corrupt file: start clean, matching original behavior.
		db.index = Index{Version: currentIndexVersion}
		return db, nil
	}
	db.index = idx
	return db, nil
}

// save persists the index via atomic temp-file + rename. Caller must
// hold mu.
func (db *DB) save() error {
	data, err := json.MarshalIndent(db.index, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache index: %w", err)
	}
	if err := atomicfile.Write(db.indexPath, data, 0o644); err != nil {
		return fmt.Errorf("writing cache index: %w", err)
	}
	return nil
}

// Get returns the entry for key, or (Entry{}, false).
func (db *DB) Get(key string) (Entry, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, e := range db.index.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// GetByChecksum returns the first entry whose Checksum matches cs.
func (db *DB) GetByChecksum(cs string) (Entry, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, e := range db.index.Entries {
		if e.Checksum == cs {
			return e, true
		}
	}
	return Entry{}, false
}

// Insert replaces the entry with the same key in place, or appends it.
// Always persists.
func (db *DB) Insert(e Entry) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i, existing := range db.index.Entries {
		if existing.Key == e.Key {
			db.index.Entries[i] = e
			return db.save()
		}
	}
	db.index.Entries = append(db.index.Entries, e)
	return db.save()
}

// Touch sets last_accessed=now and increments hit_count, then persists.
func (db *DB) Touch(key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i := range db.index.Entries {
		if db.index.Entries[i].Key == key {
			now := time.Now()
			db.index.Entries[i].LastAccessed = &now
			db.index.Entries[i].HitCount++
			return db.save()
		}
	}
	return nil
}

// Remove deletes the entry for key, persisting only if it changed.
// Returns whether an entry was removed.
func (db *DB) Remove(key string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i, e := range db.index.Entries {
		if e.Key == key {
			db.index.Entries = append(db.index.Entries[:i], db.index.Entries[i+1:]...)
			return true, db.save()
		}
	}
	return false, nil
}

// Stats summarizes the index.
func (db *DB) Stats() Stats {
	db.mu.Lock()
	defer db.mu.Unlock()

	var s Stats
	s.EntryCount = len(db.index.Entries)
	for _, e := range db.index.Entries {
		s.TotalSize += e.Size
		switch e.EntryType {
		case EntryDownload:
			s.DownloadCount++
		case EntryMetadata:
			s.MetadataCount++
		}
		if s.OldestEntry == nil || e.CreatedAt.Before(*s.OldestEntry) {
			t := e.CreatedAt
			s.OldestEntry = &t
		}
		if s.NewestEntry == nil || e.CreatedAt.After(*s.NewestEntry) {
			t := e.CreatedAt
			s.NewestEntry = &t
		}
	}
	return s
}

// GetExpired returns entries whose ExpiresAt is before now.
func (db *DB) GetExpired(now time.Time) []Entry {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []Entry
	for _, e := range db.index.Entries {
		if e.IsExpired(now) {
			out = append(out, e)
		}
	}
	return out
}

// RemoveExpired deletes every entry whose ExpiresAt is before now,
// returning the count removed. Persists only if anything changed.
func (db *DB) RemoveExpired(now time.Time) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	kept := db.index.Entries[:0:0]
	removed := 0
	for _, e := range db.index.Entries {
		if e.IsExpired(now) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed == 0 {
		return 0, nil
	}
	db.index.Entries = kept
	return removed, db.save()
}

// GetLRU returns the count entries with the smallest effective access
// time (ascending), for external cleanup UIs.
func (db *DB) GetLRU(count int) []Entry {
	db.mu.Lock()
	defer db.mu.Unlock()

	sorted := make([]Entry, len(db.index.Entries))
	copy(sorted, db.index.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].effectiveAccessTime().Before(sorted[j].effectiveAccessTime())
	})
	if count < len(sorted) {
		sorted = sorted[:count]
	}
	return sorted
}

// EvictToSize enforces a size budget: if total size <= max, it is a
// no-op. Otherwise entries are sorted by effective access time
// descending (most recent first) and kept while the cumulative size
// stays <= max; the first entry that does not fit and every older one
// after it are evicted. Returns the evicted entries (the
// caller is responsible for deleting their files, optionally via trash)
// and persists the retained set.
func (db *DB) EvictToSize(max int64) ([]Entry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var total int64
	for _, e := range db.index.Entries {
		total += e.Size
	}
	if total <= max {
		return nil, nil
	}

	all := make([]Entry, len(db.index.Entries))
	copy(all, db.index.Entries)
	sort.Slice(all, func(i, j int) bool {
		return all[i].effectiveAccessTime().After(all[j].effectiveAccessTime())
	})

	var kept []Entry
	var evicted []Entry
	var keptSize int64
	full := false
	for _, e := range all {
		if !full && keptSize+e.Size <= max {
			kept = append(kept, e)
			keptSize += e.Size
		} else {
			full = true
			evicted = append(evicted, e)
		}
	}

	if len(evicted) == 0 {
		return nil, nil
	}
	db.index.Entries = kept
	return evicted, db.save()
}

// Clear removes every entry and persists the now-empty index.
func (db *DB) Clear() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.index.Entries = nil
	return db.save()
}

// List returns a snapshot of every entry.
func (db *DB) List() []Entry {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]Entry, len(db.index.Entries))
	copy(out, db.index.Entries)
	return out
}
