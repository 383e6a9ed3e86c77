// Package health provides health check utilities.
package health

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	pkghttp "github.com/autorent/autorent-platform/pkg/http"
	"github.com/autorent/autorent-platform/pkg/storage"
)

// Status represents the health status.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// probeKey is read by StoreCheck. It is never written.
const probeKey = "@autorent_health_probe"

// CheckFunc is a function that performs a health check.
type CheckFunc func(ctx context.Context) error

// Check represents a single health check.
type Check struct {
	Name     string
	CheckFn  CheckFunc
	Critical bool // If true, failure means the platform is unhealthy
}

// CheckResult represents the result of a health check.
type CheckResult struct {
	Name     string  `json:"name"`
	Status   Status  `json:"status"`
	Critical bool    `json:"critical"`
	Message  string  `json:"message,omitempty"`
	Latency  float64 `json:"latency_ms"`
}

// Report is the outcome of running every check.
type Report struct {
	Status    Status        `json:"status"`
	Timestamp string        `json:"timestamp"`
	Version   string        `json:"version,omitempty"`
	Checks    []CheckResult `json:"checks,omitempty"`
}

// Healthy reports whether no critical check failed.
func (r Report) Healthy() bool {
	return r.Status != StatusUnhealthy
}

// Checker manages health checks.
type Checker struct {
	checks  []Check
	version string
	timeout time.Duration
	now     func() time.Time
	mu      sync.RWMutex
}

// NewChecker creates a new health checker. Each check gets timeout when it is positive.
func NewChecker(version string, timeout time.Duration) *Checker {
	return &Checker{
		checks:  make([]Check, 0),
		version: version,
		timeout: timeout,
		now:     time.Now,
	}
}

// AddCheck adds a health check.
func (c *Checker) AddCheck(name string, fn CheckFunc, critical bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks = append(c.checks, Check{
		Name:     name,
		CheckFn:  fn,
		Critical: critical,
	})
}

// Check runs all health checks concurrently.
func (c *Checker) Check(ctx context.Context) Report {
	c.mu.RLock()
	checks := append([]Check(nil), c.checks...)
	c.mu.RUnlock()

	results := make([]CheckResult, len(checks))

	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func(i int, check Check) {
			defer wg.Done()
			results[i] = c.run(ctx, check)
		}(i, check)
	}
	wg.Wait()

	return Report{
		Status:    overall(results),
		Timestamp: c.now().UTC().Format(time.RFC3339),
		Version:   c.version,
		Checks:    results,
	}
}

func (c *Checker) run(ctx context.Context, check Check) CheckResult {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := c.now()
	err := check.CheckFn(ctx)

	result := CheckResult{
		Name:     check.Name,
		Status:   StatusHealthy,
		Critical: check.Critical,
		Latency:  float64(c.now().Sub(start).Microseconds()) / 1000,
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
	}
	return result
}

func overall(results []CheckResult) Status {
	status := StatusHealthy
	for _, r := range results {
		if r.Status != StatusUnhealthy {
			continue
		}
		if r.Critical {
			return StatusUnhealthy
		}
		status = StatusDegraded
	}
	return status
}

// Failures lists the messages of failed checks, sorted by check name.
func (r Report) Failures() []string {
	var out []string
	for _, c := range r.Checks {
		if c.Status == StatusUnhealthy {
			out = append(out, c.Name+": "+c.Message)
		}
	}
	sort.Strings(out)
	return out
}

// Err returns a CheckError when the report is unhealthy.
func (r Report) Err() error {
	if r.Healthy() {
		return nil
	}
	return &CheckError{
		Service: "autorent",
		Message: "critical checks failed: " + strings.Join(r.Failures(), "; "),
	}
}

// Common health check functions.

// AlwaysHealthy creates a check that always succeeds.
func AlwaysHealthy() CheckFunc {
	return func(ctx context.Context) error {
		return nil
	}
}

// StoreCheck pings the store backend and reads a probe key. A missing key is healthy.
func StoreCheck(store storage.Store) CheckFunc {
	return func(ctx context.Context) error {
		if err := storage.Ping(ctx, store); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		if _, err := store.Get(ctx, probeKey); err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
			return fmt.Errorf("read: %w", err)
		}
		return nil
	}
}

// Pinger is implemented by external clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck creates a check for a client's Ping.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// CircuitReporter exposes a resilient client's breaker state.
type CircuitReporter interface {
	CircuitState() pkghttp.CircuitState
}

// CircuitCheck fails while the breaker is open.
func CircuitCheck(name string, r CircuitReporter) CheckFunc {
	return func(ctx context.Context) error {
		if state := r.CircuitState(); state == pkghttp.StateOpen {
			return &CheckError{
				Service: name,
				Message: "circuit breaker is " + state.String(),
			}
		}
		return nil
	}
}

// CheckError represents a health check error.
type CheckError struct {
	Service string
	Message string
}

func (e *CheckError) Error() string {
	return e.Message
}
