// Package ratelimit implements a best-effort, in-memory fixed-window
// counter. It defends credential-issuing endpoints against casual abuse;
// it makes no distributed guarantees.
package ratelimit

import (
	"sync"
	"time"
)

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter counts hits per key inside a fixed window.
type Limiter struct {
	mu      sync.Mutex
	store   map[string]*entry
	limit   int
	window  time.Duration
	nowFunc func() time.Time
}

// Result reports the outcome of a single Allow call.
type Result struct {
	OK        bool
	Remaining int
	ResetAt   time.Time
}

// NewLimiter creates a limiter allowing limit hits per window per key.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		store:   make(map[string]*entry),
		limit:   limit,
		window:  window,
		nowFunc: time.Now,
	}
}

// Allow records a hit for key and reports whether it is within the limit.
// Expired windows are reset lazily on access.
func (l *Limiter) Allow(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	e, ok := l.store[key]
	if !ok || !e.resetAt.After(now) {
		resetAt := now.Add(l.window)
		l.store[key] = &entry{count: 1, resetAt: resetAt}
		return Result{OK: true, Remaining: l.limit - 1, ResetAt: resetAt}
	}

	if e.count >= l.limit {
		return Result{OK: false, Remaining: 0, ResetAt: e.resetAt}
	}

	e.count++
	return Result{OK: true, Remaining: l.limit - e.count, ResetAt: e.resetAt}
}
