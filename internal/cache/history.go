package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cognia-dev/cognia-launcher/internal/atomicfile"
)

const (
	maxHistoryRecords  = 100
	maxFilesPerRecord  = 50
)

// CleanedFileInfo describes one file a cleanup operation removed.
type CleanedFileInfo struct {
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	SizeHuman string `json:"size_human"`
	EntryType string `json:"entry_type"`
}

// CleanupRecord is one audited cleanup operation.
type CleanupRecord struct {
	ID             string            `json:"id"`
	Timestamp      time.Time         `json:"timestamp"`
	CleanType      string            `json:"clean_type"`
	UseTrash       bool              `json:"use_trash"`
	FreedBytes     int64             `json:"freed_bytes"`
	FreedHuman     string            `json:"freed_human"`
	FileCount      int               `json:"file_count"`
	Files          []CleanedFileInfo `json:"files"`
	FilesTruncated bool              `json:"files_truncated"`
}

type historyIndex struct {
	Version int             `json:"version"`
	Records []CleanupRecord `json:"records"`
}

// History persists an audit trail of cleanup operations to
// <cache-dir>/cleanup-history.json, capped at maxHistoryRecords entries
// (oldest dropped first) with each record's file list capped at
// maxFilesPerRecord.
type History struct {
	mu   sync.Mutex
	path string
	idx  historyIndex
}

// OpenHistory loads (or initializes) the cleanup history for cacheDir,
// starting clean on a torn file.
func OpenHistory(cacheDir string) (*History, error) {
	path := filepath.Join(cacheDir, "cleanup-history.json")
	h := &History{path: path, idx: historyIndex{Version: 1}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return nil, fmt.Errorf("reading cleanup history: %w", err)
	}

	var idx historyIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return h, nil
	}
	h.idx = idx
	return h, nil
}

func (h *History) save() error {
	data, err := json.MarshalIndent(h.idx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cleanup history: %w", err)
	}
	return atomicfile.Write(h.path, data, 0o644)
}

// Add inserts record at the front (most recent first), truncating its
// file list if oversized and dropping the oldest records past the cap.
func (h *History) Add(record CleanupRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(record.Files) > maxFilesPerRecord {
		record.Files = record.Files[:maxFilesPerRecord]
		record.FilesTruncated = true
	}

	h.idx.Records = append([]CleanupRecord{record}, h.idx.Records...)
	if len(h.idx.Records) > maxHistoryRecords {
		h.idx.Records = h.idx.Records[:maxHistoryRecords]
	}

	return h.save()
}

// List returns up to limit records, most recent first. limit<0 means
// unlimited.
func (h *History) List(limit int) []CleanupRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.idx.Records)
	if limit >= 0 && limit < n {
		n = limit
	}
	out := make([]CleanupRecord, n)
	copy(out, h.idx.Records[:n])
	return out
}

// Get returns the record with the given id, if any.
func (h *History) Get(id string) (CleanupRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.idx.Records {
		if r.ID == id {
			return r, true
		}
	}
	return CleanupRecord{}, false
}

// Count returns the number of records currently retained.
func (h *History) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.idx.Records)
}

// Summary aggregates statistics across all retained records.
type Summary struct {
	TotalCleanups     int    `json:"total_cleanups"`
	TotalFreedBytes   int64  `json:"total_freed_bytes"`
	TotalFreedHuman   string `json:"total_freed_human"`
	TotalFilesCleaned int    `json:"total_files_cleaned"`
	TrashCleanups     int    `json:"trash_cleanups"`
	PermanentCleanups int    `json:"permanent_cleanups"`
}

// Summary computes aggregate statistics over all retained records.
func (h *History) Summary() Summary {
	h.mu.Lock()
	defer h.mu.Unlock()

	var s Summary
	s.TotalCleanups = len(h.idx.Records)
	var trashed int
	for _, r := range h.idx.Records {
		s.TotalFreedBytes += r.FreedBytes
		s.TotalFilesCleaned += r.FileCount
		if r.UseTrash {
			trashed++
		}
	}
	s.TrashCleanups = trashed
	s.PermanentCleanups = s.TotalCleanups - trashed
	s.TotalFreedHuman = FormatSize(uint64(s.TotalFreedBytes))
	return s
}

// Clear removes every record and returns how many were removed.
func (h *History) Clear() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.idx.Records)
	h.idx.Records = nil
	return n, h.save()
}

// RecordBuilder accumulates CleanedFileInfo entries for a single
// cleanup operation before producing its CleanupRecord.
type RecordBuilder struct {
	cleanType string
	useTrash  bool
	freed     int64
	files     []CleanedFileInfo
}

// NewRecordBuilder starts a builder for a cleanup of the given type
// ("downloads", "metadata", "expired", "all").
func NewRecordBuilder(cleanType string, useTrash bool) *RecordBuilder {
	return &RecordBuilder{cleanType: cleanType, useTrash: useTrash}
}

// AddFile records one removed file.
func (b *RecordBuilder) AddFile(path string, size int64, entryType string) *RecordBuilder {
	b.freed += size
	b.files = append(b.files, CleanedFileInfo{
		Path:      path,
		Size:      size,
		SizeHuman: FormatSize(uint64(size)),
		EntryType: entryType,
	})
	return b
}

// Build produces the finished CleanupRecord, stamping a fresh ID and
// timestamp.
func (b *RecordBuilder) Build() CleanupRecord {
	return CleanupRecord{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		CleanType:  b.cleanType,
		UseTrash:   b.useTrash,
		FreedBytes: b.freed,
		FreedHuman: FormatSize(uint64(b.freed)),
		FileCount:  len(b.files),
		Files:      b.files,
	}
}
