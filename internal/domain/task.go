// Package domain holds the coordinator's core types: tasks, snapshots,
// phases, and the sentinel errors every other package reports through.
package domain

// Task is a runnable compute job as reported by the compute client.
// Equality between two tasks is defined by (Name, ProjectURL) only —
// SlotPath and Slot may change across snapshots for the same job.
type Task struct {
	Name             string
	ProjectURL       string
	GraphicsExecPath string // empty ⇔ no graphics available for this task
	SlotPath         string
	Slot             int
}

// HasGraphics reports whether the task ships a graphics application.
func (t Task) HasGraphics() bool {
	return t.GraphicsExecPath != ""
}

// SameIdentity reports whether t and other refer to the same job, as
// judged by (Name, ProjectURL) — mirrors CScreensaver::is_same_task.
func (t Task) SameIdentity(other Task) bool {
	return t.Name == other.Name && t.ProjectURL == other.ProjectURL
}

// TaskSnapshot is an ordered, atomically-replaced view of the compute
// client's currently runnable tasks. No Task outlives its snapshot; callers
// that need to remember one across a refresh must copy it into a
// PreviousTask.
type TaskSnapshot struct {
	Tasks []Task
}

// FindByIdentity locates the task in the snapshot matching (name,
// projectURL), returning ok=false if absent.
func (s TaskSnapshot) FindByIdentity(name, projectURL string) (Task, bool) {
	for _, t := range s.Tasks {
		if t.Name == name && t.ProjectURL == projectURL {
			return t, true
		}
	}
	return Task{}, false
}

// remove deletes the tasks at the given indices, preserving order.
func (s *TaskSnapshot) remove(indices map[int]bool) {
	if len(indices) == 0 {
		return
	}
	kept := s.Tasks[:0]
	for i, t := range s.Tasks {
		if !indices[i] {
			kept = append(kept, t)
		}
	}
	s.Tasks = kept
}

// FilterGraphics drops every task for which keep returns false, in place.
// The catalog uses this to strip tasks whose graphics app is known
// incompatible with the current host (spec.md §4.2), mirroring
// count_active_graphic_apps' isIncompatible removal branch.
func (s *TaskSnapshot) FilterGraphics(keep func(Task) bool) {
	drop := make(map[int]bool)
	for i, t := range s.Tasks {
		if t.HasGraphics() && !keep(t) {
			drop[i] = true
		}
	}
	s.remove(drop)
}

// PreviousTask is an owned copy of the last task shown in a science phase.
// It exists so the coordinator never holds a pointer into a superseded
// TaskSnapshot (design note, spec.md §9).
type PreviousTask struct {
	Task Task
	set  bool
}

// NewPreviousTask returns a populated PreviousTask.
func NewPreviousTask(t Task) PreviousTask {
	return PreviousTask{Task: t, set: true}
}

// Set reports whether a previous task is recorded.
func (p PreviousTask) Set() bool { return p.set }

// Clear resets p to the empty state (spec.md invariant: destroyed on
// explicit reset).
func (p *PreviousTask) Clear() { *p = PreviousTask{} }
