package ratelimit

import (
	"sync"
	"time"
)

// keyWindow is the mutable counting state for one credential.
type keyWindow struct {
	mu    sync.Mutex
	start time.Time
	count int64
}

// FixedWindow implements KeyLimiter with a fixed-window counter per
// credential. Windows are created lazily and live for the process lifetime.
type FixedWindow struct {
	window time.Duration

	mu      sync.RWMutex
	limit   int64
	windows map[int64]*keyWindow
}

// NewFixedWindow creates a limiter from the given configuration.
// A zero Window defaults to one minute.
func NewFixedWindow(cfg Config) *FixedWindow {
	window := cfg.Window
	if window == 0 {
		window = time.Minute
	}

	return &FixedWindow{
		window:  window,
		limit:   int64(cfg.RequestsPerMinute),
		windows: make(map[int64]*keyWindow),
	}
}

// Allow checks and, if admitted, consumes one request for keyID at time now.
//
// The window lookup takes the map lock briefly; the check-then-increment
// itself runs under the per-key lock, so concurrent calls for the same key
// serialize and calls for different keys do not.
func (l *FixedWindow) Allow(keyID int64, now time.Time) *Result {
	l.mu.RLock()
	limit := l.limit
	w := l.windows[keyID]
	l.mu.RUnlock()

	if limit <= 0 {
		return &Result{Allowed: true, Remaining: -1}
	}

	if w == nil {
		l.mu.Lock()
		// Re-check: another request may have created the window between
		// the read unlock and here.
		if w = l.windows[keyID]; w == nil {
			w = &keyWindow{start: now}
			l.windows[keyID] = w
		}
		l.mu.Unlock()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	elapsed := now.Sub(w.start)
	if elapsed >= l.window {
		w.start = now
		w.count = 0
		elapsed = 0
	}

	if w.count < limit {
		w.count++
		return &Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - w.count,
			Reset:     w.start.Add(l.window),
		}
	}

	return &Result{
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		Reset:      w.start.Add(l.window),
		RetryAfter: l.window - elapsed,
	}
}

// SetLimit replaces the per-window limit. Existing window counters keep
// counting against the new limit; this supports configuration hot reload.
func (l *FixedWindow) SetLimit(requestsPerWindow int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limit = int64(requestsPerWindow)
}

// Len returns the number of tracked credential windows.
func (l *FixedWindow) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.windows)
}

// Reset clears all window state. This is primarily for testing.
func (l *FixedWindow) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows = make(map[int64]*keyWindow)
}
