package tasks

import (
	"testing"

	"github.com/scicoord/ssgfx/internal/domain"
)

func snapshot(tasks ...domain.Task) domain.TaskSnapshot {
	return domain.TaskSnapshot{Tasks: tasks}
}

func gfxTask(name string) domain.Task {
	return domain.Task{Name: name, ProjectURL: "https://project.example/", GraphicsExecPath: "/slot/gfx"}
}

func TestCountActiveGraphicsApps(t *testing.T) {
	snap := snapshot(
		gfxTask("a"),
		domain.Task{Name: "b", ProjectURL: "https://project.example/"}, // no graphics
		gfxTask("c"),
	)

	if n := CountActiveGraphicsApps(snap, nil); n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}

	excl := gfxTask("a")
	if n := CountActiveGraphicsApps(snap, &excl); n != 1 {
		t.Fatalf("count excluding a = %d, want 1", n)
	}
}

func TestSelectorChooseExcludesThenFallsBack(t *testing.T) {
	only := gfxTask("only")
	snap := snapshot(only)

	s := NewSelector(1)
	// only task also happens to be the exclusion: must fall back to
	// choosing without exclusion rather than reporting nothing available.
	got, ok := s.Choose(snap, &only)
	if !ok {
		t.Fatal("expected fallback selection when exclusion empties the pool")
	}
	if !got.SameIdentity(only) {
		t.Fatalf("got %+v, want the only available task", got)
	}
}

func TestSelectorChooseNoneAvailable(t *testing.T) {
	snap := snapshot(domain.Task{Name: "no-gfx", ProjectURL: "https://project.example/"})
	s := NewSelector(1)
	if _, ok := s.Choose(snap, nil); ok {
		t.Fatal("expected no eligible task")
	}
}

func TestSelectorChooseIsDeterministicForSeed(t *testing.T) {
	snap := snapshot(gfxTask("a"), gfxTask("b"), gfxTask("c"), gfxTask("d"))

	s1 := NewSelector(42)
	s2 := NewSelector(42)

	for i := 0; i < 20; i++ {
		got1, ok1 := s1.Choose(snap, nil)
		got2, ok2 := s2.Choose(snap, nil)
		if ok1 != ok2 || got1 != got2 {
			t.Fatalf("iteration %d: selectors with the same seed diverged", i)
		}
	}
}

func TestIncompatibilitySetFiltersMarkedExecutables(t *testing.T) {
	bad := domain.Task{Name: "bad", ProjectURL: "https://project.example/", GraphicsExecPath: "/slot/bad_gfx"}
	good := gfxTask("good")
	snap := snapshot(bad, good)

	set := NewIncompatibilitySet()
	set.Mark(bad.GraphicsExecPath)
	set.Filter(&snap)

	if CountActiveGraphicsApps(snap, nil) != 1 {
		t.Fatalf("expected only the compatible task to remain, got %d", CountActiveGraphicsApps(snap, nil))
	}
	if _, ok := snap.FindByIdentity(bad.Name, bad.ProjectURL); ok {
		t.Fatal("incompatible task should have been removed from the snapshot")
	}
}
