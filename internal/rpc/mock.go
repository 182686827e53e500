package rpc

import (
	"context"
	"sync"

	"github.com/scicoord/ssgfx/internal/domain"
)

// MockHandle is a Handle test double whose behavior a test drives directly.
type MockHandle struct {
	mu sync.Mutex

	ConnectErr error
	StateErr   error
	TasksErr   error
	RunErr     error

	SuspendReason domain.SuspendReason
	Snapshot      domain.TaskSnapshot

	RunCalls []MockRunCall
}

func (h *MockHandle) Connect(ctx context.Context) error {
	return h.ConnectErr
}

// MockRunCall records one RunGraphicsApp invocation for assertions.
type MockRunCall struct {
	Verb      Verb
	SlotOrPid int
	User      string
}

func (h *MockHandle) GetState(ctx context.Context) error {
	return h.StateErr
}

func (h *MockHandle) GetScreensaverTasks(ctx context.Context) (domain.SuspendReason, domain.TaskSnapshot, error) {
	if h.TasksErr != nil {
		return domain.SuspendNone, domain.TaskSnapshot{}, h.TasksErr
	}
	return h.SuspendReason, h.Snapshot, nil
}

func (h *MockHandle) RunGraphicsApp(ctx context.Context, verb Verb, slotOrPid int, user string) error {
	h.mu.Lock()
	h.RunCalls = append(h.RunCalls, MockRunCall{verb, slotOrPid, user})
	h.mu.Unlock()
	return h.RunErr
}
