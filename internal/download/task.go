// Package download implements the resumable, rate-limited,
// checksum-verifying download engine behind package installation and
// update (spec.md §3).
package download

import (
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a DownloadTask.
type State string

const (
	StateQueued      State = "queued"
	StateDownloading State = "downloading"
	StatePaused      State = "paused"
	StateCancelled   State = "cancelled"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// IsTerminal reports whether s is a final state the task will not leave
// on its own.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Task tracks one download's progress and state. Recoverable is only
// meaningful when State == StateFailed.
type Task struct {
	ID             string    `json:"id"`
	URL            string    `json:"url"`
	DestPath       string    `json:"dest_path"`
	Name           string    `json:"name"`
	State          State     `json:"state"`
	Error          string    `json:"error,omitempty"`
	Recoverable    bool      `json:"recoverable,omitempty"`
	ExpectedChecksum string  `json:"expected_checksum,omitempty"`
	TotalBytes     int64     `json:"total_bytes,omitempty"`
	DownloadedBytes int64    `json:"downloaded_bytes"`
	Retries        int       `json:"retries"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewTask creates a fresh, Queued task.
func NewTask(url, destPath, name string) Task {
	now := time.Now()
	return Task{
		ID:        uuid.NewString(),
		URL:       url,
		DestPath:  destPath,
		Name:      name,
		State:     StateQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (t *Task) touch() { t.UpdatedAt = time.Now() }

// CanResume reports whether the task may transition back to Downloading.
func (t *Task) CanResume() bool {
	return t.State == StatePaused || (t.State == StateFailed && t.Recoverable)
}

// CanPause reports whether the task may transition to Paused.
func (t *Task) CanPause() bool {
	return t.State == StateDownloading || t.State == StateQueued
}

// IsActive reports whether the task is queued or actively downloading.
func (t *Task) IsActive() bool {
	return t.State == StateDownloading || t.State == StateQueued
}

func (t *Task) MarkStarted() {
	t.State = StateDownloading
	t.Error = ""
	t.touch()
}

func (t *Task) MarkPaused() {
	t.State = StatePaused
	t.touch()
}

func (t *Task) MarkCancelled() {
	t.State = StateCancelled
	t.touch()
}

func (t *Task) MarkCompleted() {
	t.State = StateCompleted
	t.touch()
}

func (t *Task) MarkFailed(err error, recoverable bool) {
	t.State = StateFailed
	t.Error = err.Error()
	t.Recoverable = recoverable
	t.touch()
}

func (t *Task) MarkProgress(downloaded, total int64) {
	t.DownloadedBytes = downloaded
	if total > 0 {
		t.TotalBytes = total
	}
	t.touch()
}
