package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/cognia-dev/cognia-launcher/internal/cache"
)

func newTestCacheDB(t *testing.T) *cache.DB {
	t.Helper()
	db, err := cache.Open(t.TempDir())
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	return db
}

func TestCacheListCommand_Empty(t *testing.T) {
	cmd := newCacheListCommand(newTestCacheDB(t))
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if buf.String() != "Cache is empty.\n" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestCacheListCommand_ShowsEntries(t *testing.T) {
	db := newTestCacheDB(t)
	if err := db.Insert(cache.NewEntry("pkg-a", "/cache/pkg-a", 2048, "abc123", cache.EntryDownload)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	cmd := newCacheListCommand(db)
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("pkg-a")) || !bytes.Contains(buf.Bytes(), []byte("download")) {
		t.Errorf("expected pkg-a download entry in output, got: %s", buf.String())
	}
}

func TestCacheStatsCommand(t *testing.T) {
	db := newTestCacheDB(t)
	if err := db.Insert(cache.NewEntry("pkg-a", "/cache/pkg-a", 1024, "abc", cache.EntryDownload)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := db.Insert(cache.NewEntry("meta-a", "/cache/meta-a", 256, "def", cache.EntryMetadata)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	cmd := newCacheStatsCommand(db)
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := buf.String()
	if !bytes.Contains([]byte(out), []byte("Entries:   2 (1 downloads, 1 metadata)")) {
		t.Errorf("unexpected stats output: %q", out)
	}
}

func TestCacheCleanCommand_RemovesExpiredOnly(t *testing.T) {
	db := newTestCacheDB(t)
	expired := cache.NewEntry("old", "/cache/old", 512, "abc", cache.EntryDownload).WithExpiry(time.Now().Add(-time.Hour))
	fresh := cache.NewEntry("new", "/cache/new", 512, "def", cache.EntryDownload)
	if err := db.Insert(expired); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := db.Insert(fresh); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	cmd := newCacheCleanCommand(db)
	cmd.SetArgs([]string{"--expired-only"})
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("Removed 1 expired entries.")) {
		t.Errorf("unexpected output: %s", buf.String())
	}

	entries := db.List()
	if len(entries) != 1 || entries[0].Key != "new" {
		t.Fatalf("expected only the fresh entry to remain, got %+v", entries)
	}
}

func TestCacheCleanCommand_EvictsToSize(t *testing.T) {
	db := newTestCacheDB(t)
	if err := db.Insert(cache.NewEntry("big", "/cache/big", 1000, "abc", cache.EntryDownload)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := db.Insert(cache.NewEntry("small", "/cache/small", 10, "def", cache.EntryDownload)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	cmd := newCacheCleanCommand(db)
	cmd.SetArgs([]string{"--max-size", "500"})
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("Evicted")) {
		t.Errorf("expected eviction message, got: %s", buf.String())
	}

	stats := db.Stats()
	if stats.TotalSize > 500 {
		t.Errorf("expected total size at or under budget, got %d", stats.TotalSize)
	}
}
