package health

import (
	"context"
	"sync"
	"time"
)

// CheckFunc performs a health check for one component. It returns nil when
// the component is healthy.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of a single component check.
type CheckResult struct {
	// Status is "ok" or "unhealthy".
	Status string `json:"status"`

	// Message carries the failure description for unhealthy components.
	Message string `json:"message,omitempty"`

	// DurationMs is how long the check took.
	DurationMs int64 `json:"duration_ms"`
}

// Status is the aggregated health of the system.
type Status struct {
	// Status is "ok", "ready", or "degraded".
	Status string `json:"status"`

	// Checks holds per-component results, present on readiness only.
	Checks map[string]CheckResult `json:"checks,omitempty"`

	// Timestamp is when the check ran.
	Timestamp time.Time `json:"timestamp"`
}

// Checker runs registered component checks.
type Checker struct {
	mu           sync.RWMutex
	checks       map[string]CheckFunc
	checkTimeout time.Duration
}

// New creates a checker. A zero timeout defaults to 5 seconds per check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 5 * time.Second
	}
	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
	}
}

// Register adds or replaces a named component check.
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Liveness reports that the process is running.
func (c *Checker) Liveness(ctx context.Context) Status {
	return Status{Status: "ok", Timestamp: time.Now()}
}

// Readiness runs all registered checks concurrently and aggregates the
// results. Any failing component degrades the overall status.
func (c *Checker) Readiness(ctx context.Context) Status {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var resultMu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()
			result := c.run(ctx, check)

			resultMu.Lock()
			results[name] = result
			resultMu.Unlock()
		}(name, check)
	}
	wg.Wait()

	status := "ready"
	for _, result := range results {
		if result.Status != "ok" {
			status = "degraded"
		}
	}

	return Status{
		Status:    status,
		Checks:    results,
		Timestamp: time.Now(),
	}
}

// run executes one check with the configured timeout.
func (c *Checker) run(ctx context.Context, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()

	errChan := make(chan error, 1)
	go func() {
		errChan <- check(checkCtx)
	}()

	select {
	case err := <-errChan:
		result := CheckResult{
			Status:     "ok",
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			result.Status = "unhealthy"
			result.Message = err.Error()
		}
		return result

	case <-checkCtx.Done():
		return CheckResult{
			Status:     "unhealthy",
			Message:    "health check timeout",
			DurationMs: time.Since(start).Milliseconds(),
		}
	}
}
