package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/scicoord/ssgfx/internal/blank"
	"github.com/scicoord/ssgfx/internal/domain"
	"github.com/scicoord/ssgfx/internal/infra/engine"
	"github.com/scicoord/ssgfx/internal/rpc"
	"github.com/scicoord/ssgfx/internal/status"
	"github.com/scicoord/ssgfx/internal/tasks"
)

func testPhases() tasks.PhaseConfig {
	return tasks.PhaseConfig{
		DefaultPeriod: 300 * time.Second,
		SciencePeriod: 300 * time.Second,
		ChangePeriod:  180 * time.Second,
	}
}

// newTestCoordinator wires a Coordinator around a MockHelper (pre-published
// pid, so launches resolve without waiting on the real poll timings) and a
// MockHandle-backed link, connected and holding snap by default.
func newTestCoordinator(t *testing.T, defaultPath string, snap domain.TaskSnapshot) (*Coordinator, *rpc.MockHandle, *status.Record, *engine.MockHelper) {
	t.Helper()

	helper := engine.NewMockHelper()
	helper.PublishPid(4242)
	supervisor := engine.New(helper)

	mh := &rpc.MockHandle{Snapshot: snap}
	link := rpc.NewClientLink(mh)

	rec := status.New()
	blankMon := blank.NewMonitor(blank.Config{})

	cfg := Config{
		Phases:              testPhases(),
		StartInDefault:      false,
		DefaultSaverPath:    defaultPath,
		DefaultSaverWorkDir: "/tmp",
	}

	c := New(cfg, supervisor, link, tasks.NewSelector(1), tasks.NewIncompatibilitySet(), blankMon, rec, nil)
	return c, mh, rec, helper
}

func gfxTask(name string) domain.Task {
	return domain.Task{Name: name, ProjectURL: "https://project.example/", GraphicsExecPath: "/slot/gfx", SlotPath: "/slot", Slot: 1}
}

func TestCoordinatorLaunchesScienceTaskWhenAvailable(t *testing.T) {
	snap := domain.TaskSnapshot{Tasks: []domain.Task{gfxTask("job-a")}}
	c, _, rec, _ := newTestCoordinator(t, "", snap)

	c.slowTick(context.Background())

	if !c.scienceRunning {
		t.Fatal("expected a science task to be launched")
	}
	if rec.Snapshot().Pid == 0 {
		t.Fatal("expected status to report a pid")
	}
	if rec.Error().Mode {
		t.Fatalf("unexpected error mode after a clean launch: %+v", rec.Error())
	}
}

func TestCoordinatorFallsBackToDefaultWhenNoEligibleTask(t *testing.T) {
	snap := domain.TaskSnapshot{Tasks: []domain.Task{{Name: "no-gfx", ProjectURL: "u"}}}
	c, _, rec, _ := newTestCoordinator(t, "/usr/bin/true", snap)

	c.slowTick(context.Background())

	if !c.defaultRunning {
		t.Fatal("expected the default saver to be launched when no science graphics are available")
	}
	if rec.Error().Mode {
		t.Fatalf("default running should clear error mode, got %+v", rec.Error())
	}
}

func TestCoordinatorNoEligibleTaskAndNoDefaultReportsError(t *testing.T) {
	snap := domain.TaskSnapshot{Tasks: []domain.Task{{Name: "no-gfx", ProjectURL: "u"}}}
	c, _, rec, _ := newTestCoordinator(t, "", snap)

	c.slowTick(context.Background())

	if c.defaultRunning || c.scienceRunning {
		t.Fatal("nothing should be running when there's no eligible task and no default saver")
	}
	if !rec.Error().Mode {
		t.Fatal("expected error mode set when nothing can be displayed")
	}
}

func TestCoordinatorSwitchesFromDefaultWhenScienceTaskAppears(t *testing.T) {
	c, mh, _, _ := newTestCoordinator(t, "/usr/bin/true", domain.TaskSnapshot{})

	c.slowTick(context.Background())
	if !c.defaultRunning {
		t.Fatal("expected default to launch with no eligible tasks")
	}

	mh.Snapshot = domain.TaskSnapshot{Tasks: []domain.Task{gfxTask("job-a")}}
	c.slowTick(context.Background())

	if !c.killingDefault && c.defaultRunning {
		t.Fatal("expected default to be terminated in favor of the science task")
	}
	if c.defaultRunning {
		t.Fatal("default should no longer be marked running once terminated")
	}
}

func TestCoordinatorRotatesScienceTaskAfterChangeInterval(t *testing.T) {
	snap := domain.TaskSnapshot{Tasks: []domain.Task{gfxTask("job-a"), gfxTask("job-b")}}
	c, _, _, _ := newTestCoordinator(t, "", snap)

	c.slowTick(context.Background())
	if !c.scienceRunning {
		t.Fatal("expected an initial science task to be launched")
	}
	firstTask := c.previous.Task

	c.phase.MarkChanged(time.Now().Add(-200 * time.Second)) // force the change window to be due
	c.slowTick(context.Background())

	if c.scienceRunning {
		t.Fatal("rotation should terminate the current task and defer the replacement launch to the next tick")
	}

	c.slowTick(context.Background())

	if !c.scienceRunning {
		t.Fatal("expected a replacement science task to be launched on the tick after termination")
	}
	if c.previous.Task.SameIdentity(firstTask) {
		t.Fatal("rotation should have excluded the just-displayed task")
	}
}

func TestCoordinatorSuspendedFallsBackToDefault(t *testing.T) {
	snap := domain.TaskSnapshot{Tasks: []domain.Task{gfxTask("job-a")}}
	c, mh, _, _ := newTestCoordinator(t, "/usr/bin/true", snap)
	mh.SuspendReason = domain.SuspendUserReq

	c.slowTick(context.Background())

	if c.scienceRunning {
		t.Fatal("should not launch a science task while suspended")
	}
	if !c.defaultRunning {
		t.Fatal("should fall back to the default saver while suspended")
	}
}

func TestCoordinatorIgnoresCPUThrottleSuspend(t *testing.T) {
	snap := domain.TaskSnapshot{Tasks: []domain.Task{gfxTask("job-a")}}
	c, mh, _, _ := newTestCoordinator(t, "/usr/bin/true", snap)
	mh.SuspendReason = domain.SuspendCPUThrottle

	c.slowTick(context.Background())

	if !c.scienceRunning {
		t.Fatal("CPU throttle should not prevent a science task from being displayed")
	}
}

func TestCoordinatorBlankTimerRequestsStop(t *testing.T) {
	c, _, rec, _ := newTestCoordinator(t, "", domain.TaskSnapshot{})
	c.blankMon = blank.NewMonitor(blank.Config{Timeout: time.Minute})
	c.blankMon.SetIdleFunc(func() time.Duration { return time.Hour })

	c.slowTick(context.Background())

	if !rec.StopRequested() {
		t.Fatal("expected blank timer expiry to request a stop")
	}
	if rec.Error().Code != domain.CodeBlanked {
		t.Fatalf("error code = %v, want CodeBlanked", rec.Error().Code)
	}
}

func TestCoordinatorDefaultCrashForcesScienceAndDisablesDefault(t *testing.T) {
	c, _, rec, helper := newTestCoordinator(t, "/usr/bin/true", domain.TaskSnapshot{})

	c.slowTick(context.Background())
	if !c.defaultRunning {
		t.Fatal("expected default saver launched")
	}

	// Simulate an unexpected crash: the helper reports the child exited
	// without us having gone through the terminate path that would have
	// set killingDefault first.
	helper.MarkExited(domain.DefaultGfxCantConnectExitCode)

	c.checkLiveness(time.Now())

	if c.defaultRunning {
		t.Fatal("default should no longer be considered running after a crash")
	}
	if c.defaultExists {
		t.Fatal("default saver should be disabled for the rest of this run after crashing")
	}
	if c.phase.Phase() != domain.SciencePhase {
		t.Fatalf("phase = %v, want SciencePhase forced after default crash", c.phase.Phase())
	}
	if rec.Error().Code != domain.CodeDefaultCantConnect {
		t.Fatalf("error code = %v, want CodeDefaultCantConnect", rec.Error().Code)
	}
}

func TestCoordinatorScienceTaskDisappearsDefersReplacementToNextTick(t *testing.T) {
	snap := domain.TaskSnapshot{Tasks: []domain.Task{gfxTask("job-a"), gfxTask("job-b")}}
	c, mh, _, _ := newTestCoordinator(t, "", snap)

	c.slowTick(context.Background())
	if !c.scienceRunning {
		t.Fatal("expected an initial science task to be launched")
	}

	// Drop whichever task is on screen, keeping only the other one.
	remaining := gfxTask("job-b")
	if c.previous.Task.SameIdentity(remaining) {
		remaining = gfxTask("job-a")
	}
	mh.Snapshot = domain.TaskSnapshot{Tasks: []domain.Task{remaining}}
	c.slowTick(context.Background())

	if c.scienceRunning {
		t.Fatal("a task that disappeared mid-run should be terminated, not immediately replaced")
	}

	c.slowTick(context.Background())

	if !c.scienceRunning {
		t.Fatal("expected the remaining task to be picked up on the tick after termination")
	}
}

func TestCoordinatorTeardownTerminatesRunningProcess(t *testing.T) {
	snap := domain.TaskSnapshot{Tasks: []domain.Task{gfxTask("job-a")}}
	c, _, rec, _ := newTestCoordinator(t, "", snap)

	c.slowTick(context.Background())
	if !c.scienceRunning {
		t.Fatal("expected a science task running before teardown")
	}

	c.teardown()

	if !rec.Stopped() {
		t.Fatal("expected Stopped() after teardown")
	}
	if c.handle != nil {
		t.Fatal("expected handle cleared after teardown")
	}
}

func TestCoordinatorDisconnectedLinkYieldsEmptySnapshot(t *testing.T) {
	snap := domain.TaskSnapshot{Tasks: []domain.Task{gfxTask("job-a")}}
	c, mh, _, _ := newTestCoordinator(t, "", snap)
	mh.ConnectErr = errAlwaysFails

	c.slowTick(context.Background())

	if c.scienceRunning || c.defaultRunning {
		t.Fatal("nothing should launch while the link can't be reconnected")
	}
}

var errAlwaysFails = &staticError{"connect refused"}

type staticError struct{ msg string }

func (e *staticError) Error() string { return e.msg }
