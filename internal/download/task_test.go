package download

import (
	"errors"
	"testing"
)

func TestTaskIsTerminal(t *testing.T) {
	cases := map[State]bool{
		StateQueued:      false,
		StateDownloading: false,
		StatePaused:      false,
		StateCancelled:   true,
		StateCompleted:   true,
		StateFailed:      true,
	}
	for state, want := range cases {
		if got := state.IsTerminal(); got != want {
			t.Errorf("State(%s).IsTerminal() = %v, want %v", state, got, want)
		}
	}
}

func TestTaskCanResume(t *testing.T) {
	task := NewTask("https://example.com/f.zip", "/tmp/f.zip", "f")

	task.MarkPaused()
	if !task.CanResume() {
		t.Error("expected paused task to be resumable")
	}

	task.MarkFailed(errors.New("boom"), true)
	if !task.CanResume() {
		t.Error("expected recoverable failed task to be resumable")
	}

	task.MarkFailed(errors.New("boom"), false)
	if task.CanResume() {
		t.Error("expected non-recoverable failed task to not be resumable")
	}
}

func TestTaskCanPause(t *testing.T) {
	task := NewTask("https://example.com/f.zip", "/tmp/f.zip", "f")
	if !task.CanPause() {
		t.Error("expected queued task to be pausable")
	}
	task.MarkStarted()
	if !task.CanPause() {
		t.Error("expected downloading task to be pausable")
	}
	task.MarkPaused()
	if task.CanPause() {
		t.Error("expected paused task to not be pausable again")
	}
}

func TestTaskMarkFailedSetsErrorAndRecoverable(t *testing.T) {
	task := NewTask("https://example.com/f.zip", "/tmp/f.zip", "f")
	task.MarkFailed(errors.New("network blip"), true)

	if task.State != StateFailed {
		t.Fatalf("expected Failed state, got %s", task.State)
	}
	if task.Error != "network blip" {
		t.Errorf("expected error message recorded, got %q", task.Error)
	}
	if !task.Recoverable {
		t.Error("expected recoverable=true")
	}
}
