package download

import (
	"context"
	"sync"
	"time"
)

// tokenBucket rate-limits byte transfer using a classic token-bucket
// algorithm: capacity allows a burst of 2 seconds worth of traffic at
// the configured rate.
type tokenBucket struct {
	capacity   int64
	tokens     int64
	rate       int64
	lastUpdate time.Time
}

func newTokenBucket(rate int64) *tokenBucket {
	return &tokenBucket{
		capacity:   rate * 2,
		tokens:     rate * 2,
		rate:       rate,
		lastUpdate: time.Now(),
	}
}

func (b *tokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(b.lastUpdate)
	newTokens := int64(elapsed.Seconds() * float64(b.rate))
	if newTokens > 0 {
		b.tokens += newTokens
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.lastUpdate = now
	}
}

// tryConsume grants up to amount tokens, partial grants allowed. It
// returns (granted, true) on any grant, (0, false) if the bucket is
// fully drained.
func (b *tokenBucket) tryConsume(amount int64) (int64, bool) {
	b.refill()

	if b.tokens >= amount {
		b.tokens -= amount
		return amount, true
	}
	if b.tokens > 0 {
		available := b.tokens
		b.tokens = 0
		return available, true
	}
	return 0, false
}

func (b *tokenBucket) timeToAvailable(amount int64) time.Duration {
	if b.tokens >= amount {
		return 0
	}
	needed := amount - b.tokens
	return time.Duration(float64(needed) / float64(b.rate) * float64(time.Second))
}

// SpeedLimiter bounds download throughput to a configurable
// bytes-per-second rate. It is disabled (unlimited) by default.
type SpeedLimiter struct {
	mu      sync.Mutex
	bucket  *tokenBucket
	enabled bool
}

// NewSpeedLimiter returns a disabled limiter.
func NewSpeedLimiter() *SpeedLimiter {
	return &SpeedLimiter{}
}

// NewSpeedLimiterWithLimit returns a limiter enabled at bytesPerSecond.
func NewSpeedLimiterWithLimit(bytesPerSecond int64) *SpeedLimiter {
	l := NewSpeedLimiter()
	l.SetLimit(bytesPerSecond)
	return l
}

// SetLimit sets the rate in bytes/second; 0 disables limiting.
func (l *SpeedLimiter) SetLimit(bytesPerSecond int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if bytesPerSecond > 0 {
		l.bucket = newTokenBucket(bytesPerSecond)
		l.enabled = true
	} else {
		l.bucket = nil
		l.enabled = false
	}
}

// IsEnabled reports whether a rate limit is currently active.
func (l *SpeedLimiter) IsEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// GetLimit returns the configured rate, or 0 if disabled.
func (l *SpeedLimiter) GetLimit() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.bucket == nil {
		return 0
	}
	return l.bucket.rate
}

// Acquire blocks (respecting ctx) until up to requestedBytes can be
// transferred, returning however many were actually granted. When
// disabled it returns requestedBytes immediately.
func (l *SpeedLimiter) Acquire(ctx context.Context, requestedBytes int64) int64 {
	for {
		l.mu.Lock()
		if !l.enabled || l.bucket == nil {
			l.mu.Unlock()
			return requestedBytes
		}

		if granted, ok := l.bucket.tryConsume(requestedBytes); ok {
			l.mu.Unlock()
			return granted
		}

		wait := l.bucket.timeToAvailable(requestedBytes)
		if wait > 100*time.Millisecond {
			wait = 100 * time.Millisecond
		}
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return 0
		case <-time.After(wait):
		}
	}
}

// TryAcquire attempts a non-blocking grant, returning (0, false) if the
// bucket is drained.
func (l *SpeedLimiter) TryAcquire(requestedBytes int64) (int64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled || l.bucket == nil {
		return requestedBytes, true
	}
	return l.bucket.tryConsume(requestedBytes)
}
