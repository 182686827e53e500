// Package health runs periodic environment checks — default saver present,
// history database reachable, graphics working directory usable — and
// reports them through metrics gauges and the status server's /healthz. It
// never affects coordinator control flow (spec.md §9).
package health

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/scicoord/ssgfx/internal/domain"
	"github.com/scicoord/ssgfx/internal/history"
	"github.com/scicoord/ssgfx/internal/infra/metrics"
)

// Check defines a single health check.
type Check struct {
	Name    string
	CheckFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
}

// NewChecker builds the coordinator's standard environment checks: the
// default saver executable exists, the audit history database is
// reachable, and the graphics working directory is usable.
func NewChecker(hist *history.DB, defaultSaverPath, graphicsWorkDir string) *Checker {
	return &Checker{
		interval: 60 * time.Second,
		checks: []Check{
			{
				Name: "default_saver_present",
				CheckFn: func(ctx context.Context) error {
					return checkExecutablePresent(defaultSaverPath)
				},
			},
			{
				Name: "history_db",
				CheckFn: func(ctx context.Context) error {
					return hist.Ping()
				},
			},
			{
				Name: "graphics_work_dir",
				CheckFn: func(ctx context.Context) error {
					return checkDirUsable(graphicsWorkDir)
				},
			},
		},
	}
}

// Run starts the health check loop. Call in a goroutine; it returns when
// ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	c.runAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runAll(ctx)
		}
	}
}

func (c *Checker) runAll(ctx context.Context) {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{Name: check.Name, CheckedAt: time.Now()}
		if err := check.CheckFn(ctx); err != nil {
			s.Healthy = false
			s.Error = err.Error()
		} else {
			s.Healthy = true
		}
		statuses[i] = s

		value := 0.0
		if s.Healthy {
			value = 1.0
		}
		metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(value)
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass (vacuously true before the
// first run).
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

func checkExecutablePresent(path string) error {
	if path == "" {
		return domain.ErrDefaultMissing
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", domain.ErrDefaultMissing, path)
		}
		return fmt.Errorf("default saver: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", domain.ErrDefaultMissing, path)
	}
	return nil
}

func checkDirUsable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("graphics work dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("graphics work dir %s is not a directory", dir)
	}
	return nil
}
