package tasks

import (
	"sync"

	"github.com/scicoord/ssgfx/internal/domain"
)

// IncompatibilitySet remembers graphics executables that have already
// failed to run on this host, so the catalog stops offering them (spec.md
// §4.2). The original scoped this to a single OS-version quirk on macOS;
// here it's host-wide and reason-agnostic. Entries are added only through
// Mark; no launch path in this module marks an executable by itself.
type IncompatibilitySet struct {
	mu    sync.Mutex
	paths map[string]bool
}

// NewIncompatibilitySet returns an empty set.
func NewIncompatibilitySet() *IncompatibilitySet {
	return &IncompatibilitySet{paths: make(map[string]bool)}
}

// Mark records execPath as incompatible.
func (s *IncompatibilitySet) Mark(execPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths[execPath] = true
}

// Contains reports whether execPath was previously marked incompatible.
func (s *IncompatibilitySet) Contains(execPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paths[execPath]
}

// Filter strips any task in snap whose graphics executable is marked
// incompatible.
func (s *IncompatibilitySet) Filter(snap *domain.TaskSnapshot) {
	snap.FilterGraphics(func(t domain.Task) bool {
		return !s.Contains(t.GraphicsExecPath)
	})
}
