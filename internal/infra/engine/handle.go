// Package engine manages a single external graphics process at a time:
// launch, non-blocking liveness checks, and best-effort termination.
// It mirrors the teacher daemon's subprocess-management package, but
// where that package proxied an inference backend, this one supervises
// whatever graphics executable the coordinator selects.
package engine

import (
	"os/exec"
	"sync"
	"time"
)

// Handle is an opaque reference to a running graphics process. It is a
// capability with two backing forms: a direct child process (os/exec) or
// a pid published by a privileged launcher helper (spec.md §9 — "process
// handle polymorphism").
type Handle struct {
	viaHelper bool
	cmd       *exec.Cmd // set when launched directly
	pid       int       // set for both forms once known
	launchedAt time.Time

	mu       sync.Mutex
	exited   bool
	exitCode int
}

// Pid returns the process identifier, or 0 if not yet known (helper path
// still polling).
func (h *Handle) Pid() int {
	if h == nil {
		return 0
	}
	return h.pid
}

func (h *Handle) markExited(code int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exited = true
	h.exitCode = code
}

func (h *Handle) exitedLocked() (bool, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exited, h.exitCode
}
