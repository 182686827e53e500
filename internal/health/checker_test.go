package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/scicoord/ssgfx/internal/history"
)

func newTestHistory(t *testing.T) *history.DB {
	t.Helper()
	db, err := history.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestNewChecker(t *testing.T) {
	hist := newTestHistory(t)
	saver := filepath.Join(t.TempDir(), "default_saver")
	writeFile(t, saver)
	workDir := t.TempDir()

	c := NewChecker(hist, saver, workDir)
	if c == nil {
		t.Fatal("NewChecker() returned nil")
	}
	if len(c.checks) != 3 {
		t.Errorf("checks = %d, want 3", len(c.checks))
	}
}

func TestCheckerRunAllHealthy(t *testing.T) {
	hist := newTestHistory(t)
	saver := filepath.Join(t.TempDir(), "default_saver")
	writeFile(t, saver)
	workDir := t.TempDir()

	c := NewChecker(hist, saver, workDir)
	c.runAll(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 3 {
		t.Fatalf("Statuses() = %d, want 3", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("check %q should be healthy, got error: %s", s.Name, s.Error)
		}
	}
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true when all checks pass")
	}
}

func TestCheckerIsHealthyBeforeRun(t *testing.T) {
	hist := newTestHistory(t)
	c := NewChecker(hist, filepath.Join(t.TempDir(), "default_saver"), t.TempDir())

	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true before first run (no statuses)")
	}
}

func TestCheckerDefaultSaverMissing(t *testing.T) {
	hist := newTestHistory(t)
	missing := filepath.Join(t.TempDir(), "does_not_exist")

	c := NewChecker(hist, missing, t.TempDir())
	c.runAll(context.Background())

	for _, s := range c.Statuses() {
		if s.Name == "default_saver_present" && s.Healthy {
			t.Error("expected default_saver_present to fail for a missing executable")
		}
	}
}

func TestCheckerGraphicsWorkDirIsFileNotDir(t *testing.T) {
	hist := newTestHistory(t)
	saver := filepath.Join(t.TempDir(), "default_saver")
	writeFile(t, saver)

	workDir := filepath.Join(t.TempDir(), "workdir")
	writeFile(t, workDir)

	c := NewChecker(hist, saver, workDir)
	c.runAll(context.Background())

	for _, s := range c.Statuses() {
		if s.Name == "graphics_work_dir" && s.Healthy {
			t.Error("expected graphics_work_dir to fail when the path is a file")
		}
	}
}

func TestCheckerCustomCheck(t *testing.T) {
	c := &Checker{
		checks: []Check{
			{Name: "always_pass", CheckFn: func(ctx context.Context) error { return nil }},
		},
	}
	c.runAll(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 1 || !statuses[0].Healthy {
		t.Fatalf("statuses = %+v, want one healthy status", statuses)
	}
}

func TestCheckerFailingCheck(t *testing.T) {
	c := &Checker{
		checks: []Check{
			{Name: "always_fail", CheckFn: func(ctx context.Context) error { return os.ErrPermission }},
		},
	}
	c.runAll(context.Background())

	statuses := c.Statuses()
	if statuses[0].Healthy {
		t.Error("always_fail check should not be healthy")
	}
	if statuses[0].Error == "" {
		t.Error("error message should be populated")
	}
	if c.IsHealthy() {
		t.Error("IsHealthy() should be false when a check fails")
	}
}

func TestCheckerStatusesCopy(t *testing.T) {
	hist := newTestHistory(t)
	saver := filepath.Join(t.TempDir(), "default_saver")
	writeFile(t, saver)

	c := NewChecker(hist, saver, t.TempDir())
	c.runAll(context.Background())

	s1 := c.Statuses()
	s2 := c.Statuses()
	if len(s1) > 0 {
		s1[0].Healthy = !s1[0].Healthy
		if s1[0].Healthy == s2[0].Healthy {
			t.Error("Statuses() should return a copy, not a reference")
		}
	}
}
