// Package ratelimit provides per-key fixed-window rate limiting for booking writes.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Config struct {
	Limit  int           // Requests allowed per key per window (default: 10)
	Window time.Duration // Window length (default: 1m)

	// Clock for testing (nil uses real time)
	Clock Clock
}

func DefaultConfig() *Config {
	return &Config{Limit: 10, Window: time.Minute}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type entry struct {
	count   int
	firstAt time.Time
}

// Limiter counts requests per key in fixed windows. Entries for idle keys are
// swept by a background goroutine started on first use.
type Limiter struct {
	config *Config
	clock  Clock
	mu     sync.Mutex
	byKey  map[string]*entry

	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

func New(cfg *Config) *Limiter {
	defaults := DefaultConfig()
	if cfg == nil {
		cfg = defaults
	}
	if cfg.Limit <= 0 {
		cfg.Limit = defaults.Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = defaults.Window
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:        cfg,
		clock:         clock,
		byKey:         make(map[string]*entry),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
}

// Close stops the cleanup goroutine.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// Allow records a request for key and reports whether it fits the window.
// Rejected requests are not counted.
func (l *Limiter) Allow(key string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.byKey[key]
	if e == nil || now.Sub(e.firstAt) >= l.config.Window {
		l.byKey[key] = &entry{count: 1, firstAt: now}
		return LimitResult{Allowed: true, Remaining: l.config.Limit - 1}
	}
	if e.count >= l.config.Limit {
		return LimitResult{
			Allowed:    false,
			RetryAfter: l.config.Window - now.Sub(e.firstAt),
		}
	}
	e.count++
	return LimitResult{Allowed: true, Remaining: l.config.Limit - e.count}
}

// Limit reports the configured per-window limit.
func (l *Limiter) Limit() int { return l.config.Limit }

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, e := range l.byKey {
		if now.Sub(e.firstAt) >= l.config.Window {
			delete(l.byKey, k)
		}
	}
}

// LogRateLimitExceeded logs a rejected request.
func LogRateLimitExceeded(ctx context.Context, scope, key string, retryAfter time.Duration) {
	log.Ctx(ctx).Warn().
		Str("event", "rate_limit_exceeded").
		Str("scope", scope).
		Str("key", key).
		Dur("retry_after", retryAfter).
		Msg("Rate limit exceeded")
}
