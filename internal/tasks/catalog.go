// Package tasks tracks which of the compute client's active tasks have a
// graphics application to show, and picks among them the way the original
// coordinator's get_random_graphics_app/count_active_graphic_apps did.
package tasks

import (
	"math/rand"
	"sync"

	"github.com/scicoord/ssgfx/internal/domain"
)

// CountActiveGraphicsApps counts tasks in snap with a graphics executable,
// optionally skipping one identity (spec.md §4.3 — "excluding the currently
// displayed task").
func CountActiveGraphicsApps(snap domain.TaskSnapshot, exclude *domain.Task) int {
	n := 0
	for _, t := range snap.Tasks {
		if !t.HasGraphics() {
			continue
		}
		if exclude != nil && t.SameIdentity(*exclude) {
			continue
		}
		n++
	}
	return n
}

// Selector draws a uniformly random eligible task, retrying without the
// exclusion if the excluded task was the only one available (spec.md §4.3,
// P4). It is safe for concurrent use.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector returns a Selector seeded from seed. Callers seed it from a
// time source once at startup (spec.md §9); reusing the same Selector keeps
// draws independent across calls without reseeding per tick.
func NewSelector(seed int64) *Selector {
	return &Selector{rng: rand.New(rand.NewSource(seed))}
}

// Choose returns a uniformly random task with graphics, excluding exclude
// if given. If exclude was the only eligible task, it retries once without
// excluding anything, so the currently shown task can be re-selected rather
// than leaving the display blank. ok is false if no task has graphics at all.
func (s *Selector) Choose(snap domain.TaskSnapshot, exclude *domain.Task) (task domain.Task, ok bool) {
	count := CountActiveGraphicsApps(snap, exclude)
	if count == 0 && exclude != nil {
		exclude = nil
		count = CountActiveGraphicsApps(snap, exclude)
	}
	if count == 0 {
		return domain.Task{}, false
	}

	s.mu.Lock()
	pick := s.rng.Intn(count) + 1
	s.mu.Unlock()

	current := 0
	for _, t := range snap.Tasks {
		if !t.HasGraphics() {
			continue
		}
		if exclude != nil && t.SameIdentity(*exclude) {
			continue
		}
		current++
		if current == pick {
			return t, true
		}
	}
	return domain.Task{}, false
}
