package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/errgroup"

	"github.com/cognia-dev/cognia-launcher/internal/cogniaerr"
	"github.com/cognia-dev/cognia-launcher/internal/logging"
)

// ProgressFunc receives periodic progress updates for a single task.
type ProgressFunc func(task *Task)

// Request describes one file to fetch.
type Request struct {
	URL              string
	DestPath         string
	Name             string
	ExpectedChecksum string // hex sha256, empty to skip verification
}

// Engine runs a bounded-concurrency pool of downloads against an HTTP
// client with retry/backoff, resumable Range requests, and a shared
// speed limiter.
type Engine struct {
	client   *retryablehttp.Client
	limiter  *SpeedLimiter
	workers  int
	log      *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the worker-pool concurrency (default 4).
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithSpeedLimiter attaches a shared rate limiter.
func WithSpeedLimiter(l *SpeedLimiter) Option {
	return func(e *Engine) { e.limiter = l }
}

// WithLogger attaches a structured logger.
func WithLogger(log *logging.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine builds a download engine with sane retry/backoff defaults:
// exponential backoff honoring a server's Retry-After header on 429,
// and GitHub-style X-RateLimit-Reset handling on 403.
func NewEngine(opts ...Option) *Engine {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = cleanhttp.DefaultPooledClient()
	retryClient.Logger = nil
	retryClient.RetryMax = 5
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.CheckRetry = checkRetry
	retryClient.Backoff = backoffWithRateLimitHeaders

	e := &Engine{
		client:  retryClient,
		limiter: NewSpeedLimiter(),
		workers: 4,
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true, nil
	}
	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		return true, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// backoffWithRateLimitHeaders honors Retry-After (429) and the
// GitHub-style X-RateLimit-Reset (403) headers when present, falling
// back to exponential backoff otherwise.
func backoffWithRateLimitHeaders(min, max time.Duration, attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if resp.StatusCode == http.StatusTooManyRequests {
			if d, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
				return clampDuration(d, min, max)
			}
		}
		if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
			if resetStr := resp.Header.Get("X-RateLimit-Reset"); resetStr != "" {
				if epoch, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
					d := time.Until(time.Unix(epoch, 0))
					if d > 0 {
						return clampDuration(d, min, max)
					}
				}
			}
		}
	}
	return retryablehttp.DefaultBackoff(min, max, attempt, resp)
}

func parseRetryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t), true
	}
	return 0, false
}

func clampDuration(d, min, max time.Duration) time.Duration {
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}

// supportsRange issues a HEAD request to determine whether the server
// advertises Range support and the total content length.
func (e *Engine) supportsRange(ctx context.Context, url string) (bool, int64, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, 0, fmt.Errorf("building HEAD request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false, 0, cogniaerr.Wrap(cogniaerr.KindNetwork, "probing download URL", err)
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.Header.Get("Accept-Ranges") == "bytes", resp.ContentLength, nil
}

// Fetch downloads a single request into req.DestPath, resuming from
// existingOffset bytes already present (0 for a fresh download),
// reporting progress via onProgress, and verifying req.ExpectedChecksum
// if set.
func (e *Engine) Fetch(ctx context.Context, req Request, existingOffset int64, onProgress func(downloaded, total int64)) error {
	canResume, total, err := e.supportsRange(ctx, req.URL)
	if err != nil {
		return err
	}

	offset := existingOffset
	flags := os.O_CREATE | os.O_WRONLY
	if canResume && offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
		offset = 0
	}

	hasher := sha256.New()
	if offset > 0 {
		if err := seedHasherFromDisk(hasher, req.DestPath, offset); err != nil {
			return err
		}
	}

	out, err := os.OpenFile(req.DestPath, flags, 0o644)
	if err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, "opening destination file", err)
	}
	defer func() { _ = out.Close() }()

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return cogniaerr.Wrap(cogniaerr.KindInternal, "building download request", err)
	}
	if offset > 0 {
		httpReq.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return cogniaerr.Wrap(cogniaerr.KindNetwork, "downloading file", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
		return cogniaerr.New(cogniaerr.KindDownload, "server rejected resume range")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return cogniaerr.HTTPError(resp.StatusCode, fmt.Sprintf("download failed for %s", req.URL))
	}

	if total <= 0 {
		total = resp.ContentLength
	}

	downloaded := offset
	buf := make([]byte, 32*1024)

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			for len(chunk) > 0 {
				granted := e.limiter.Acquire(ctx, int64(len(chunk)))
				if granted <= 0 {
					return cogniaerr.New(cogniaerr.KindCancelled, "download cancelled")
				}
				if _, werr := out.Write(chunk[:granted]); werr != nil {
					return cogniaerr.Wrap(cogniaerr.KindIO, "writing downloaded data", werr)
				}
				hasher.Write(chunk[:granted])
				downloaded += granted
				chunk = chunk[granted:]
			}
			if onProgress != nil {
				onProgress(downloaded, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return cogniaerr.Wrap(cogniaerr.KindNetwork, "reading download stream", readErr)
		}
		select {
		case <-ctx.Done():
			return cogniaerr.New(cogniaerr.KindCancelled, "download cancelled")
		default:
		}
	}

	if req.ExpectedChecksum != "" {
		actual := hex.EncodeToString(hasher.Sum(nil))
		if actual != req.ExpectedChecksum {
			_ = out.Close()
			_ = os.Remove(req.DestPath)
			return cogniaerr.ChecksumMismatch(req.ExpectedChecksum, actual)
		}
	}

	return nil
}

// seedHasherFromDisk hashes the first n bytes already written to path so
// a resumed download's final checksum covers the whole file, not just
// the bytes fetched in this Fetch call.
func seedHasherFromDisk(hasher io.Writer, path string, n int64) error {
	f, err := os.Open(path)
	if err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, "reading partial file for checksum resume", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.CopyN(hasher, f, n); err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, "hashing existing partial bytes", err)
	}
	return nil
}

// RunPool downloads every request concurrently across up to e.workers
// goroutines, returning the first error encountered (others are
// cancelled via the shared context per errgroup semantics).
func (e *Engine) RunPool(ctx context.Context, reqs []Request, onProgress func(Request, int64, int64)) error {
	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, e.workers)

	for _, r := range reqs {
		r := r
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			return e.Fetch(ctx, r, 0, func(downloaded, total int64) {
				if onProgress != nil {
					onProgress(r, downloaded, total)
				}
			})
		})
	}

	return g.Wait()
}
