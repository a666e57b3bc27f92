package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseRetryAfterSeconds(t *testing.T) {
	d, ok := parseRetryAfter("120")
	if !ok || d != 120*time.Second {
		t.Fatalf("expected 120s, got %v ok=%v", d, ok)
	}
}

func TestParseRetryAfterEmpty(t *testing.T) {
	if _, ok := parseRetryAfter(""); ok {
		t.Fatal("expected no value for empty header")
	}
}

func TestClampDuration(t *testing.T) {
	if got := clampDuration(time.Second, 5*time.Second, 30*time.Second); got != 5*time.Second {
		t.Errorf("expected clamp to min, got %v", got)
	}
	if got := clampDuration(time.Minute, 5*time.Second, 30*time.Second); got != 30*time.Second {
		t.Errorf("expected clamp to max, got %v", got)
	}
	if got := clampDuration(10*time.Second, 5*time.Second, 30*time.Second); got != 10*time.Second {
		t.Errorf("expected unclamped value, got %v", got)
	}
}

func TestEngineFetchVerifiesChecksum(t *testing.T) {
	content := []byte("hello cognia")
	sum := sha256.Sum256(content)
	checksum := hex.EncodeToString(sum[:])

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Accept-Ranges", "bytes")
			w.Header().Set("Content-Length", "12")
			return
		}
		_, _ = w.Write(content)
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.bin")

	e := NewEngine()
	err := e.Fetch(context.Background(), Request{
		URL:              srv.URL,
		DestPath:         dest,
		Name:             "test",
		ExpectedChecksum: checksum,
	}, 0, nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(content) {
		t.Errorf("unexpected content: %q", data)
	}
}

func TestEngineFetchDetectsChecksumMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write([]byte("actual content"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.bin")

	e := NewEngine()
	err := e.Fetch(context.Background(), Request{
		URL:              srv.URL,
		DestPath:         dest,
		ExpectedChecksum: "0000000000000000000000000000000000000000000000000000000000000",
	}, 0, nil)
	if err == nil {
		t.Fatal("expected checksum mismatch error")
	}
}

func TestEngineFetchReportsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.bin")

	e := NewEngine()
	e.client.RetryMax = 0
	err := e.Fetch(context.Background(), Request{URL: srv.URL, DestPath: dest}, 0, nil)
	if err == nil {
		t.Fatal("expected an error for 404 response")
	}
}
