package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cognia-dev/cognia-launcher/internal/cache"
	"github.com/cognia-dev/cognia-launcher/internal/cogniaerr"
	"github.com/cognia-dev/cognia-launcher/internal/logging"
)

// TaskEventKind identifies the variant of a TaskEvent, mirroring the
// download task's state-machine transitions plus the Progress tick that
// has no corresponding state change.
type TaskEventKind string

const (
	EventEnqueued  TaskEventKind = "enqueued"
	EventStarted   TaskEventKind = "started"
	EventProgress  TaskEventKind = "progress"
	EventPaused    TaskEventKind = "paused"
	EventResumed   TaskEventKind = "resumed"
	EventCompleted TaskEventKind = "completed"
	EventFailed    TaskEventKind = "failed"
	EventCancelled TaskEventKind = "cancelled"
)

// TaskEvent is one entry in the stream a Manager subscriber receives.
// Task is a snapshot taken at the moment the event was produced.
type TaskEvent struct {
	Kind        TaskEventKind
	Task        Task
	Downloaded  int64
	Total       int64
	Speed       int64 // bytes/sec, Progress only
	Error       string
	Recoverable bool
}

const progressFlushInterval = 500 * time.Millisecond

// subscriberBuffer bounds how many undelivered events a slow subscriber
// may accumulate before further events are dropped for it, matching the
// teacher's websocket hub's slow-client handling.
const subscriberBuffer = 64

// Manager is the stateful FIFO download scheduler the engine, queue
// persistence, partials resumer, and cache index sit behind. It is the
// §4.2 public contract: add_task/pause/resume/cancel/list/subscribe.
type Manager struct {
	mu          sync.Mutex
	tasks       map[string]*Task
	order       []string
	cancels     map[string]context.CancelFunc
	subscribers map[chan TaskEvent]struct{}

	engine      *Engine
	resumer     *cache.Resumer
	cacheDB     *cache.DB
	persistence *QueuePersistence
	log         *logging.Logger

	workers      int
	maxCacheSize int64

	wake chan struct{}
	wg   sync.WaitGroup
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerWorkers sets the worker-pool concurrency (default 4).
func WithManagerWorkers(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithMaxCacheSize bounds the cache index enforced after every
// completed download; 0 disables eviction.
func WithMaxCacheSize(max int64) ManagerOption {
	return func(m *Manager) { m.maxCacheSize = max }
}

// WithManagerLogger attaches a structured logger.
func WithManagerLogger(log *logging.Logger) ManagerOption {
	return func(m *Manager) { m.log = log }
}

// NewManager builds a Manager around an already-constructed engine,
// partials resumer, cache index, and queue persistence. Call Start to
// load the persisted queue and begin processing it.
func NewManager(engine *Engine, resumer *cache.Resumer, cacheDB *cache.DB, persistence *QueuePersistence, opts ...ManagerOption) *Manager {
	m := &Manager{
		tasks:       map[string]*Task{},
		cancels:     map[string]context.CancelFunc{},
		subscribers: map[chan TaskEvent]struct{}{},
		engine:      engine,
		resumer:     resumer,
		cacheDB:     cacheDB,
		persistence: persistence,
		log:         logging.Nop(),
		workers:     4,
		wake:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start reloads any persisted non-terminal tasks (forced back to Queued
// per spec.md §4.2's restart semantics) and spawns the worker pool.
func (m *Manager) Start(ctx context.Context) error {
	persisted, err := m.persistence.Load()
	if err != nil {
		return err
	}

	m.mu.Lock()
	for i := range persisted {
		t := persisted[i]
		m.tasks[t.ID] = &t
		m.order = append(m.order, t.ID)
	}
	m.mu.Unlock()

	for i := 0; i < m.workers; i++ {
		m.wg.Add(1)
		go m.workerLoop(ctx)
	}
	return nil
}

// Wait blocks until every worker goroutine has exited (i.e. the context
// passed to Start has been cancelled).
func (m *Manager) Wait() { m.wg.Wait() }

// Shutdown force-flushes the queue, bypassing the normal write
// debounce, per spec.md §4.2's persistence lifecycle. It does not wait
// for the worker pool — callers that need a clean drain should cancel
// the context passed to Start and call Wait first.
func (m *Manager) Shutdown() error {
	return m.persist(true)
}

// AddTask enqueues a new download and returns its task id.
func (m *Manager) AddTask(url, destPath, name string) (string, error) {
	return m.AddTaskWithChecksum(url, destPath, name, "")
}

// AddTaskWithChecksum is AddTask with an expected sha256 hex checksum
// verified on completion (spec.md §4.2 Integrity); pass "" to skip.
func (m *Manager) AddTaskWithChecksum(url, destPath, name, expectedChecksum string) (string, error) {
	task := NewTask(url, destPath, name)
	task.ExpectedChecksum = expectedChecksum

	m.mu.Lock()
	m.tasks[task.ID] = &task
	m.order = append(m.order, task.ID)
	m.mu.Unlock()

	m.publish(TaskEvent{Kind: EventEnqueued, Task: task})
	if err := m.persist(false); err != nil {
		return task.ID, err
	}
	m.signalWake()
	return task.ID, nil
}

// Pause transitions a Queued or Downloading task to Paused, cancelling
// its in-flight chunk reader if one is active.
func (m *Manager) Pause(id string) error {
	m.mu.Lock()
	task, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return cogniaerr.Newf(cogniaerr.KindDownload, "no such download task %q", id)
	}
	if !task.CanPause() {
		m.mu.Unlock()
		return cogniaerr.Newf(cogniaerr.KindDownload, "task %q cannot be paused from state %s", id, task.State)
	}
	task.MarkPaused()
	snapshot := *task
	cancel, hasCancel := m.cancels[id]
	m.mu.Unlock()

	if hasCancel {
		cancel()
	}
	m.publish(TaskEvent{Kind: EventPaused, Task: snapshot})
	return m.persist(false)
}

// Resume transitions a Paused or recoverable-Failed task back to
// Queued, where the FIFO worker loop will pick it up again.
func (m *Manager) Resume(id string) error {
	m.mu.Lock()
	task, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return cogniaerr.Newf(cogniaerr.KindDownload, "no such download task %q", id)
	}
	if !task.CanResume() {
		m.mu.Unlock()
		return cogniaerr.Newf(cogniaerr.KindDownload, "task %q cannot be resumed from state %s", id, task.State)
	}
	task.State = StateQueued
	task.Error = ""
	task.Recoverable = false
	snapshot := *task
	m.mu.Unlock()

	m.publish(TaskEvent{Kind: EventResumed, Task: snapshot})
	if err := m.persist(false); err != nil {
		return err
	}
	m.signalWake()
	return nil
}

// Cancel transitions a task to the terminal Cancelled state, cancelling
// any in-flight fetch and discarding its partial-download bookkeeping.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	task, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return cogniaerr.Newf(cogniaerr.KindDownload, "no such download task %q", id)
	}
	if task.State.IsTerminal() {
		m.mu.Unlock()
		return cogniaerr.Newf(cogniaerr.KindDownload, "task %q is already %s", id, task.State)
	}
	task.MarkCancelled()
	snapshot := *task
	cancel, hasCancel := m.cancels[id]
	m.mu.Unlock()

	if hasCancel {
		cancel()
	}
	if m.resumer != nil {
		_ = m.resumer.Cancel(snapshot.URL)
	}
	m.publish(TaskEvent{Kind: EventCancelled, Task: snapshot})
	return m.persist(true)
}

// List returns a snapshot of every known task, in FIFO order.
func (m *Manager) List() []Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Task, 0, len(m.order))
	for _, id := range m.order {
		if t, ok := m.tasks[id]; ok {
			out = append(out, *t)
		}
	}
	return out
}

// Get returns a snapshot of a single task.
func (m *Manager) Get(id string) (Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Subscribe returns a channel of every TaskEvent the manager produces
// from this point forward. The channel is buffered; if a subscriber
// falls behind, further events are dropped for it rather than blocking
// the worker pool.
func (m *Manager) Subscribe() <-chan TaskEvent {
	ch := make(chan TaskEvent, subscriberBuffer)
	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	m.mu.Unlock()
	return ch
}

// Unsubscribe stops delivery to a channel previously returned by
// Subscribe and closes it.
func (m *Manager) Unsubscribe(ch <-chan TaskEvent) {
	m.mu.Lock()
	for c := range m.subscribers {
		if c == ch {
			delete(m.subscribers, c)
			close(c)
			break
		}
	}
	m.mu.Unlock()
}

func (m *Manager) publish(evt TaskEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.subscribers {
		select {
		case ch <- evt:
		default:
			m.log.Warnw("dropping task event for slow subscriber", "task_id", evt.Task.ID, "kind", evt.Kind)
		}
	}
}

func (m *Manager) signalWake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Manager) persist(force bool) error {
	return m.persistence.Save(m.List(), force)
}

// claimNext finds the first Queued task in FIFO order and transitions
// it to Downloading, returning nil if none is runnable.
func (m *Manager) claimNext() *Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		t := m.tasks[id]
		if t != nil && t.State == StateQueued {
			t.MarkStarted()
			snapshot := *t
			return &snapshot
		}
	}
	return nil
}

func (m *Manager) workerLoop(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		claimed := m.claimNext()
		if claimed == nil {
			select {
			case <-ctx.Done():
				return
			case <-m.wake:
			case <-time.After(time.Second):
			}
			continue
		}
		m.runTask(ctx, claimed.ID)
	}
}

// runTask drives a single claimed task's download to completion,
// failure, or interruption (pause/cancel), then records the result.
func (m *Manager) runTask(ctx context.Context, id string) {
	m.mu.Lock()
	task := m.tasks[id]
	if task == nil {
		m.mu.Unlock()
		return
	}
	snapshot := *task
	m.mu.Unlock()

	m.publish(TaskEvent{Kind: EventStarted, Task: snapshot})
	_ = m.persist(false)

	taskCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancels[id] = cancel
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.cancels, id)
		m.mu.Unlock()
		cancel()
	}()

	partial, err := m.resumer.GetOrCreate(snapshot.URL)
	if err != nil {
		m.finishFailed(id, err)
		return
	}

	lastFlush := time.Now()
	onProgress := func(downloaded, total int64) {
		m.mu.Lock()
		t := m.tasks[id]
		if t == nil {
			m.mu.Unlock()
			return
		}
		elapsed := time.Since(t.UpdatedAt).Seconds()
		prevDownloaded := t.DownloadedBytes
		t.MarkProgress(downloaded, total)
		current := *t
		flush := time.Since(lastFlush) >= progressFlushInterval
		if flush {
			lastFlush = time.Now()
		}
		m.mu.Unlock()

		var speed int64
		if elapsed > 0 {
			speed = int64(float64(downloaded-prevDownloaded) / elapsed)
		}
		if flush {
			_ = m.resumer.Update(snapshot.URL, downloaded)
		}
		m.publish(TaskEvent{Kind: EventProgress, Task: current, Downloaded: downloaded, Total: total, Speed: speed})
	}

	req := Request{
		URL:              snapshot.URL,
		DestPath:         partial.FilePath,
		Name:             snapshot.Name,
		ExpectedChecksum: snapshot.ExpectedChecksum,
	}

	fetchErr := m.engine.Fetch(taskCtx, req, partial.DownloadedSize, onProgress)

	m.mu.Lock()
	cur := m.tasks[id]
	interrupted := cur != nil && (cur.State == StatePaused || cur.State == StateCancelled)
	m.mu.Unlock()
	if interrupted {
		_ = m.persist(false)
		return
	}

	if fetchErr != nil {
		m.finishFailed(id, fetchErr)
		return
	}
	m.finishCompleted(id, snapshot.URL, partial.FilePath, snapshot.DestPath)
}

func (m *Manager) finishFailed(id string, err error) {
	recoverable := false
	var ce *cogniaerr.Error
	if errors.As(err, &ce) {
		recoverable = ce.Recoverable()
	}

	m.mu.Lock()
	t := m.tasks[id]
	if t == nil {
		m.mu.Unlock()
		return
	}
	t.MarkFailed(err, recoverable)
	snapshot := *t
	m.mu.Unlock()

	if !recoverable && m.resumer != nil {
		_ = m.resumer.Cancel(snapshot.URL)
	}
	m.publish(TaskEvent{Kind: EventFailed, Task: snapshot, Error: err.Error(), Recoverable: recoverable})
	_ = m.persist(true)
}

func (m *Manager) finishCompleted(id, url, partialPath, destPath string) {
	checksum, size, err := hashFile(partialPath)
	if err != nil {
		m.finishFailed(id, cogniaerr.Wrap(cogniaerr.KindIO, "hashing completed download", err))
		return
	}

	if err := moveFile(partialPath, destPath); err != nil {
		m.finishFailed(id, cogniaerr.Wrap(cogniaerr.KindIO, "moving completed download into place", err))
		return
	}
	if m.resumer != nil {
		_ = m.resumer.Complete(url)
	}

	if m.cacheDB != nil {
		entry := cache.NewEntry(url, destPath, size, checksum, cache.EntryDownload)
		if err := m.cacheDB.Insert(entry); err != nil {
			m.log.Warnw("recording cache entry failed", "error", err, "path", destPath)
		} else if m.maxCacheSize > 0 {
			evicted, err := m.cacheDB.EvictToSize(m.maxCacheSize)
			if err != nil {
				m.log.Warnw("evicting cache to size budget failed", "error", err)
			}
			for _, e := range evicted {
				if err := os.Remove(e.FilePath); err != nil && !os.IsNotExist(err) {
					m.log.Warnw("removing evicted cache file failed", "error", err, "path", e.FilePath)
				}
			}
		}
	}

	m.mu.Lock()
	t := m.tasks[id]
	if t == nil {
		m.mu.Unlock()
		return
	}
	t.MarkCompleted()
	t.DownloadedBytes = size
	t.TotalBytes = size
	snapshot := *t
	m.mu.Unlock()

	m.publish(TaskEvent{Kind: EventCompleted, Task: snapshot, Downloaded: size, Total: size})
	_ = m.persist(true)
}

// hashFile computes the sha256 checksum and size of the file at path,
// for cache-index bookkeeping on a task that completed its fetch with
// no expected checksum to compare against (or one the engine already
// verified).
func hashFile(path string) (checksum string, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = f.Close() }()

	hasher := sha256.New()
	n, err := io.Copy(hasher, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(hasher.Sum(nil)), n, nil
}

// moveFile renames src to dst, falling back to copy+remove when rename
// fails across filesystem boundaries (e.g. the cache partials directory
// and the requested destination living on different mounts).
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
