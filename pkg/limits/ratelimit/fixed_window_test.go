package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFixedWindow_AdmitUpToLimit(t *testing.T) {
	l := NewFixedWindow(Config{RequestsPerMinute: 3, Window: time.Minute})
	now := time.Now()

	for i := 0; i < 3; i++ {
		res := l.Allow(1, now)
		if !res.Allowed {
			t.Fatalf("request %d rejected, want admitted", i+1)
		}
		if res.Remaining != int64(2-i) {
			t.Errorf("request %d remaining = %d, want %d", i+1, res.Remaining, 2-i)
		}
	}

	res := l.Allow(1, now)
	if res.Allowed {
		t.Fatal("fourth request admitted, want rejected")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("rejected result RetryAfter = %v, want > 0", res.RetryAfter)
	}
	if res.RetryAfter > time.Minute {
		t.Errorf("RetryAfter = %v exceeds the window", res.RetryAfter)
	}
}

func TestFixedWindow_ResetAfterWindowElapses(t *testing.T) {
	l := NewFixedWindow(Config{RequestsPerMinute: 3, Window: time.Minute})
	start := time.Now()

	for i := 0; i < 3; i++ {
		l.Allow(7, start)
	}
	if res := l.Allow(7, start.Add(30*time.Second)); res.Allowed {
		t.Fatal("request admitted mid-window past the limit")
	}

	// One window later the counter resets and counts from 1 again.
	res := l.Allow(7, start.Add(61*time.Second))
	if !res.Allowed {
		t.Fatal("request rejected after window elapsed")
	}
	if res.Remaining != 2 {
		t.Errorf("post-reset remaining = %d, want 2", res.Remaining)
	}
}

func TestFixedWindow_RetryAfterShrinksWithinWindow(t *testing.T) {
	l := NewFixedWindow(Config{RequestsPerMinute: 1, Window: time.Minute})
	start := time.Now()

	l.Allow(1, start)

	early := l.Allow(1, start.Add(10*time.Second))
	late := l.Allow(1, start.Add(50*time.Second))

	if early.RetryAfter != 50*time.Second {
		t.Errorf("early RetryAfter = %v, want 50s", early.RetryAfter)
	}
	if late.RetryAfter != 10*time.Second {
		t.Errorf("late RetryAfter = %v, want 10s", late.RetryAfter)
	}
}

func TestFixedWindow_KeysAreIndependent(t *testing.T) {
	l := NewFixedWindow(Config{RequestsPerMinute: 1, Window: time.Minute})
	now := time.Now()

	if res := l.Allow(1, now); !res.Allowed {
		t.Fatal("key 1 first request rejected")
	}
	if res := l.Allow(1, now); res.Allowed {
		t.Fatal("key 1 second request admitted past limit")
	}
	if res := l.Allow(2, now); !res.Allowed {
		t.Fatal("key 2 rejected because of key 1's usage")
	}
}

func TestFixedWindow_ZeroLimitDisablesLimiting(t *testing.T) {
	l := NewFixedWindow(Config{RequestsPerMinute: 0})
	now := time.Now()

	for i := 0; i < 100; i++ {
		if res := l.Allow(1, now); !res.Allowed {
			t.Fatal("request rejected with limiting disabled")
		}
	}
	if l.Len() != 0 {
		t.Errorf("disabled limiter tracked %d windows, want 0", l.Len())
	}
}

func TestFixedWindow_SetLimit(t *testing.T) {
	l := NewFixedWindow(Config{RequestsPerMinute: 1, Window: time.Minute})
	now := time.Now()

	l.Allow(1, now)
	if res := l.Allow(1, now); res.Allowed {
		t.Fatal("second request admitted at limit 1")
	}

	l.SetLimit(5)
	if res := l.Allow(1, now); !res.Allowed {
		t.Fatal("request rejected after limit raised")
	}
}

// TestFixedWindow_NoDoubleAdmission drives N concurrent requests for one key
// and asserts exactly min(N, limit) are admitted.
func TestFixedWindow_NoDoubleAdmission(t *testing.T) {
	const (
		limit = 10
		n     = 100
	)

	l := NewFixedWindow(Config{RequestsPerMinute: limit, Window: time.Minute})
	now := time.Now()

	var admitted atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if res := l.Allow(42, now); res.Allowed {
				admitted.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := admitted.Load(); got != limit {
		t.Errorf("admitted %d of %d concurrent requests, want exactly %d", got, n, limit)
	}
}

func TestFixedWindow_ConcurrentDistinctKeys(t *testing.T) {
	l := NewFixedWindow(Config{RequestsPerMinute: 1, Window: time.Minute})
	now := time.Now()

	var admitted atomic.Int64
	var wg sync.WaitGroup

	for key := int64(0); key < 50; key++ {
		wg.Add(1)
		go func(key int64) {
			defer wg.Done()
			if res := l.Allow(key, now); res.Allowed {
				admitted.Add(1)
			}
		}(key)
	}
	wg.Wait()

	if got := admitted.Load(); got != 50 {
		t.Errorf("admitted %d distinct-key requests, want 50", got)
	}
	if l.Len() != 50 {
		t.Errorf("tracked windows = %d, want 50", l.Len())
	}
}
