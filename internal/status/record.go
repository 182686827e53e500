// Package status holds the small set of flags the coordinator shares with
// an owning UI thread: stop/stopped, the (mode, code) error pair, and the
// currently displayed process handle (spec.md §5, §9). It follows the
// mutex-protected snapshot pattern the daemon's own health checker uses.
package status

import (
	"sync"

	"github.com/scicoord/ssgfx/internal/domain"
	"github.com/scicoord/ssgfx/internal/infra/engine"
	"github.com/scicoord/ssgfx/internal/infra/metrics"
)

// Error is the (error_mode, code) pair reported to the host UI (spec.md §6).
type Error struct {
	Mode bool
	Code domain.ErrorCode
}

// Record is the coordinator's shared, mutex-protected state. The tick loop
// is the sole writer; a UI thread (or the status HTTP handler) is the
// reader. Every field access goes through a typed accessor so no caller can
// observe a torn read.
type Record struct {
	mu sync.Mutex

	stopRequested bool
	stopped       bool
	err           Error
	handle        *engine.Handle
	phase         domain.Phase
}

// New returns a Record reporting the coordinator as loading (spec.md's
// initial state before the first tick completes).
func New() *Record {
	return &Record{err: Error{Mode: true, Code: domain.CodeLoading}}
}

// RequestStop asks the tick loop to tear down and exit. Idempotent.
func (r *Record) RequestStop() {
	r.mu.Lock()
	r.stopRequested = true
	r.mu.Unlock()
}

// StopRequested reports whether RequestStop has been called.
func (r *Record) StopRequested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopRequested
}

// MarkStopped records that the tick loop has finished tearing down and
// exited, for callers waiting to join the worker.
func (r *Record) MarkStopped() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
}

// Stopped reports whether the tick loop has exited.
func (r *Record) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// SetError updates the (mode, code) pair reported to the host UI.
func (r *Record) SetError(mode bool, code domain.ErrorCode) {
	r.mu.Lock()
	r.err = Error{Mode: mode, Code: code}
	r.mu.Unlock()
	metrics.SetCurrentErrorCode(code)
}

// SetErrorMode updates only the mode half of the pair, leaving whatever
// code was already active untouched — the tick loop's suspend and
// no-eligible-task paths flag an error without inventing a new code for it.
func (r *Record) SetErrorMode(mode bool) {
	r.mu.Lock()
	r.err.Mode = mode
	r.mu.Unlock()
}

// Error returns the current (mode, code) pair.
func (r *Record) Error() Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// SetHandle records the process currently displayed, or nil if none.
func (r *Record) SetHandle(h *engine.Handle) {
	r.mu.Lock()
	r.handle = h
	r.mu.Unlock()
}

// Handle returns the process currently displayed, or nil if none.
func (r *Record) Handle() *engine.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handle
}

// SetPhase records the coordinator's current phase for status reporting.
func (r *Record) SetPhase(p domain.Phase) {
	r.mu.Lock()
	r.phase = p
	r.mu.Unlock()
}

// Phase returns the coordinator's current phase.
func (r *Record) Phase() domain.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Snapshot is an immutable copy of a Record for serialization (e.g. the
// status HTTP endpoint), taken atomically under the same mutex.
type Snapshot struct {
	StopRequested bool
	Stopped       bool
	ErrorMode     bool
	ErrorCode     domain.ErrorCode
	Phase         domain.Phase
	Pid           int
}

// Snapshot takes a consistent point-in-time copy of the record.
func (r *Record) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		StopRequested: r.stopRequested,
		Stopped:       r.stopped,
		ErrorMode:     r.err.Mode,
		ErrorCode:     r.err.Code,
		Phase:         r.phase,
		Pid:           r.handle.Pid(),
	}
}
