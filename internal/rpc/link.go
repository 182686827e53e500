// Package rpc wraps the compute client's RPC handle behind ClientLink, the
// coordinator's only window onto job state (spec.md §4.5). The wire format
// itself is an external collaborator's concern — this package only adds the
// connect/retry policy the coordinator relies on.
package rpc

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/scicoord/ssgfx/internal/domain"
)

// Verb identifies which privileged-helper action run_graphics_app performs.
type Verb string

const (
	VerbRunFullscreen Verb = "runfullscreen"
	VerbStop          Verb = "stop"
)

// Handle is the abstract compute-client RPC surface (spec.md §4.5, §9).
// Implementations speak whatever wire protocol the compute client exposes;
// this package never touches it directly.
type Handle interface {
	// Connect (re-)establishes the transport connection. Cheap and
	// idempotent; the coordinator calls it every tick while disconnected.
	Connect(ctx context.Context) error
	GetState(ctx context.Context) error
	GetScreensaverTasks(ctx context.Context) (domain.SuspendReason, domain.TaskSnapshot, error)
	RunGraphicsApp(ctx context.Context, verb Verb, slotOrPid int, user string) error
}

// ClientLink wraps a Handle with the reconnect policy from spec.md §4.5:
// any RPC error drops the link to disconnected and the next tick's
// refresh attempt reconnects, with the caller told to treat the interim
// snapshot as empty.
type ClientLink struct {
	mu          sync.Mutex
	handle      Handle
	connected   bool
	lastAttempt time.Time
}

// NewClientLink wraps handle. The link starts disconnected until the first
// successful RefreshState.
func NewClientLink(handle Handle) *ClientLink {
	return &ClientLink{handle: handle}
}

// Connected reports the link's last known state.
func (l *ClientLink) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

// Reconnect attempts to (re-)establish the transport, no more often than
// ReconnectBackoff apart, so a persistently down client doesn't spin the
// 1Hz slow tick into a hot retry loop. On success the link is marked
// connected, but no client state has been fetched yet — the caller
// (Coordinator step 2) still owes a RefreshState before trusting anything
// beyond Connected().
func (l *ClientLink) Reconnect(ctx context.Context) error {
	l.mu.Lock()
	if !l.lastAttempt.IsZero() && time.Since(l.lastAttempt) < ReconnectBackoff {
		l.mu.Unlock()
		return domain.ErrLinkDisconnected
	}
	l.lastAttempt = time.Now()
	l.mu.Unlock()

	if err := l.handle.Connect(ctx); err != nil {
		l.setConnected(false)
		return err
	}
	l.setConnected(true)
	return nil
}

// RefreshState re-fetches core client state, called once after every link
// reset (spec.md §4.5). A failure leaves the link disconnected for the
// caller to retry on the next tick.
func (l *ClientLink) RefreshState(ctx context.Context) error {
	if err := l.handle.GetState(ctx); err != nil {
		l.setConnected(false)
		log.Printf("[rpc] get_state failed, link disconnected: %v", err)
		return fmt.Errorf("%w: %v", domain.ErrClientStateUnavailable, err)
	}
	l.setConnected(true)
	return nil
}

// RefreshTasks pulls the current suspend reason and task snapshot. While
// disconnected it returns an empty snapshot rather than erroring, matching
// the original's `results.clear()` fallback.
func (l *ClientLink) RefreshTasks(ctx context.Context) (domain.SuspendReason, domain.TaskSnapshot, error) {
	if !l.Connected() {
		return domain.SuspendNone, domain.TaskSnapshot{}, nil
	}
	reason, snap, err := l.handle.GetScreensaverTasks(ctx)
	if err != nil {
		l.setConnected(false)
		log.Printf("[rpc] get_screensaver_tasks failed, link disconnected: %v", err)
		return domain.SuspendNone, domain.TaskSnapshot{}, err
	}
	return reason, snap, nil
}

// RunGraphicsApp issues the privileged-helper RPC verb for a slot or pid
// (spec.md §4.5, §6). Only used when the platform requires privilege
// separation; direct-launch hosts never call it.
func (l *ClientLink) RunGraphicsApp(ctx context.Context, verb Verb, slotOrPid int, user string) error {
	if !l.Connected() {
		return domain.ErrLinkDisconnected
	}
	if err := l.handle.RunGraphicsApp(ctx, verb, slotOrPid, user); err != nil {
		l.setConnected(false)
		return err
	}
	return nil
}

func (l *ClientLink) setConnected(v bool) {
	l.mu.Lock()
	l.connected = v
	l.mu.Unlock()
}

// ReconnectBackoff is the minimum spacing between Connect attempts.
// Declared as a var, not a const, so tests can shrink it instead of paying
// the real window.
var ReconnectBackoff = time.Second
