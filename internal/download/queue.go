package download

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cognia-dev/cognia-launcher/internal/atomicfile"
)

// QueuePersistence saves the set of non-terminal download tasks to
// <dir>/download_queue.json so an interrupted process can resume its
// queue on the next launch. Terminal tasks are not persisted here.
type QueuePersistence struct {
	mu        sync.Mutex
	path      string
	lastWrite time.Time
	debounce  time.Duration
}

// NewQueuePersistence returns a persistence manager writing to
// <dir>/download_queue.json.
func NewQueuePersistence(dir string) *QueuePersistence {
	return &QueuePersistence{
		path:      filepath.Join(dir, "download_queue.json"),
		lastWrite: time.Now().Add(-time.Minute),
		debounce:  500 * time.Millisecond,
	}
}

// Save persists every non-terminal task in tasks. Writes within
// debounce of the previous write are skipped unless force is set.
func (q *QueuePersistence) Save(tasks []Task, force bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !force && time.Since(q.lastWrite) < q.debounce {
		return nil
	}

	var persistable []Task
	for _, t := range tasks {
		if !t.State.IsTerminal() {
			persistable = append(persistable, t)
		}
	}

	data, err := json.MarshalIndent(persistable, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing download queue: %w", err)
	}
	if err := atomicfile.Write(q.path, data, 0o644); err != nil {
		return fmt.Errorf("writing download queue: %w", err)
	}

	q.lastWrite = time.Now()
	return nil
}

// Load reads the persisted queue, resetting every task to Queued — any
// Downloading task was interrupted by the process exiting, and
// Paused/Queued tasks simply resume from the front of the queue.
// Returns an empty slice if the file is absent or empty.
func (q *QueuePersistence) Load() ([]Task, error) {
	data, err := os.ReadFile(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading download queue: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("deserializing download queue: %w", err)
	}

	for i := range tasks {
		tasks[i].State = StateQueued
		tasks[i].Error = ""
		tasks[i].Recoverable = false
	}
	return tasks, nil
}

// Clear removes the persistence file, e.g. once every task is done.
func (q *QueuePersistence) Clear() error {
	if err := os.Remove(q.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing download queue file: %w", err)
	}
	return nil
}
