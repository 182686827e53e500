package rpc

import (
	"context"
	"errors"

	"github.com/scicoord/ssgfx/internal/domain"
)

// ErrTransportNotConfigured is returned by UnconfiguredHandle for every
// call. The compute client's wire protocol is an external collaborator's
// concern (spec.md §1); this package only ships the retry/reconnect policy
// that sits on top of it. A deployment wires a real Handle implementation
// in its place the same way the daemon falls back to a mock inference
// backend when no real one is available.
var ErrTransportNotConfigured = errors.New("rpc: no compute-client transport configured")

// UnconfiguredHandle is the default Handle when no real transport has been
// wired in. Every call fails immediately so the coordinator's normal
// disconnected-link recovery path (spec.md §4.5) handles it exactly like
// any other transient RPC failure, rather than the daemon needing a special
// case for "no transport at all".
type UnconfiguredHandle struct{}

func (UnconfiguredHandle) Connect(ctx context.Context) error { return ErrTransportNotConfigured }

func (UnconfiguredHandle) GetState(ctx context.Context) error { return ErrTransportNotConfigured }

func (UnconfiguredHandle) GetScreensaverTasks(ctx context.Context) (domain.SuspendReason, domain.TaskSnapshot, error) {
	return domain.SuspendNone, domain.TaskSnapshot{}, ErrTransportNotConfigured
}

func (UnconfiguredHandle) RunGraphicsApp(ctx context.Context, verb Verb, slotOrPid int, user string) error {
	return ErrTransportNotConfigured
}
