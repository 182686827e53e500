// Package coordinator implements the tick loop that decides which graphics
// process, if any, belongs on screen: DataManagementProc's nine-step
// procedure (spec.md §4.6), rebuilt around the supervisor, task catalog,
// phase clock, and client link packages this module already exports.
package coordinator

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/scicoord/ssgfx/internal/blank"
	"github.com/scicoord/ssgfx/internal/domain"
	"github.com/scicoord/ssgfx/internal/history"
	"github.com/scicoord/ssgfx/internal/infra/engine"
	"github.com/scicoord/ssgfx/internal/infra/metrics"
	"github.com/scicoord/ssgfx/internal/rpc"
	"github.com/scicoord/ssgfx/internal/status"
	"github.com/scicoord/ssgfx/internal/tasks"
)

// Config holds every tunable the tick loop needs, gathered from the
// daemon's TOML config plus whatever it discovers on disk at startup.
type Config struct {
	Phases              tasks.PhaseConfig
	StartInDefault      bool
	DefaultSaverPath    string
	DefaultSaverWorkDir string
	BlankTimeout        time.Duration
	HelperUser          string

	// LaunchViaRPC routes science-task launch/stop through the compute
	// client's run_graphics_app verb pair instead of the local privileged
	// helper (spec.md §6), for hosts where the coordinator process can't
	// fork/exec a graphics app on its own behalf.
	LaunchViaRPC bool
}

// Coordinator runs the slow tick. One Coordinator supervises at most one
// on-screen graphics process at a time (spec.md §5).
type Coordinator struct {
	cfg Config

	supervisor *engine.Supervisor
	link       *rpc.ClientLink
	selector   *tasks.Selector
	incompat   *tasks.IncompatibilitySet
	phase      *tasks.PhaseClock
	blankMon   *blank.Monitor
	stat       *status.Record
	hist       *history.DB // nil disables the audit log

	handle         *engine.Handle
	defaultRunning bool
	scienceRunning bool
	killingDefault bool // terminate of the default saver was initiated to make room for a science task
	previous       domain.PreviousTask
	defaultExists  bool

	stateResetPending bool
}

// New builds a Coordinator around its already-constructed collaborators.
func New(
	cfg Config,
	supervisor *engine.Supervisor,
	link *rpc.ClientLink,
	selector *tasks.Selector,
	incompat *tasks.IncompatibilitySet,
	blankMon *blank.Monitor,
	rec *status.Record,
	hist *history.DB,
) *Coordinator {
	defaultExists := fileExists(cfg.DefaultSaverPath)
	if cfg.DefaultSaverPath != "" && !defaultExists {
		log.Printf("[coordinator] default saver not found at %s", cfg.DefaultSaverPath)
	}

	pc := tasks.NewPhaseClock(cfg.Phases, time.Now(), cfg.StartInDefault && defaultExists)
	rec.SetPhase(pc.Phase())
	metrics.CurrentPhase.Set(phaseGaugeValue(pc.Phase()))

	return &Coordinator{
		cfg:               cfg,
		supervisor:        supervisor,
		link:              link,
		selector:          selector,
		incompat:          incompat,
		phase:             pc,
		blankMon:          blankMon,
		stat:              rec,
		hist:              hist,
		defaultExists:     defaultExists,
		stateResetPending: true,
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func phaseGaugeValue(p domain.Phase) float64 {
	if p == domain.SciencePhase {
		return 1
	}
	return 0
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Run drives the tick loop until ctx is cancelled or Status.RequestStop is
// called: four 250ms sleeps between every 1Hz slow tick, so a stop request
// is honored within a quarter second without paying the full procedure's
// cost that often (spec.md §4.6).
func (c *Coordinator) Run(ctx context.Context) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	fast := 0
	for {
		select {
		case <-ctx.Done():
			c.teardown()
			return ctx.Err()
		case <-ticker.C:
		}

		if c.stat.StopRequested() {
			c.teardown()
			return nil
		}

		fast++
		if fast < 4 {
			continue
		}
		fast = 0
		c.slowTick(ctx)
	}
}

// teardown is the termination protocol: whatever is on screen is torn down
// the same way a normal reconcile would tear it down, then Status is
// marked stopped so a caller waiting on it can join.
func (c *Coordinator) teardown() {
	if c.handle != nil {
		_ = c.supervisor.Terminate(c.handle)
		kind := "science"
		if c.defaultRunning {
			kind = "default"
		}
		metrics.TerminatesTotal.WithLabelValues(kind).Inc()
		c.recordHistory(history.EventTerminated, "shutdown: "+kind)
		c.handle = nil
		c.defaultRunning = false
		c.scienceRunning = false
		c.stat.SetHandle(nil)
	}
	c.stat.MarkStopped()
}

func (c *Coordinator) recordHistory(kind history.EventKind, detail string) {
	if c.hist == nil {
		return
	}
	if err := c.hist.Record(kind, detail); err != nil {
		log.Printf("[coordinator] history record failed: %v", err)
	}
}

func (c *Coordinator) clearHandle() {
	c.handle = nil
	c.stat.SetHandle(nil)
}

// slowTick runs the once-a-second procedure from spec.md §4.6.
func (c *Coordinator) slowTick(ctx context.Context) {
	metrics.TicksTotal.Inc()
	now := time.Now()

	// 1. Blank check.
	if c.blankMon.Expired() {
		c.stat.SetError(true, domain.CodeBlanked)
		c.stat.RequestStop()
		return
	}

	// 2. Link health.
	if !c.link.Connected() {
		if err := c.link.Reconnect(ctx); err == nil {
			c.stateResetPending = true
			metrics.LinkReconnects.WithLabelValues("ok").Inc()
			c.recordHistory(history.EventLinkReconnected, "")
		} else {
			metrics.LinkReconnects.WithLabelValues("error").Inc()
		}
	}
	metrics.LinkConnected.Set(boolGauge(c.link.Connected()))

	// 3. State refresh.
	if c.link.Connected() && c.stateResetPending {
		if err := c.link.RefreshState(ctx); err != nil {
			c.recordHistory(history.EventLinkDisconnected, err.Error())
			return
		}
		c.stateResetPending = false
	}

	// 4. Task refresh.
	var reason domain.SuspendReason
	var snap domain.TaskSnapshot
	if c.link.Connected() {
		r, s, err := c.link.RefreshTasks(ctx)
		if err != nil {
			c.stateResetPending = true
			c.recordHistory(history.EventLinkDisconnected, err.Error())
			return
		}
		reason, snap = r, s
	}
	c.incompat.Filter(&snap)

	switchToDefault := false

	// 5. Phase evaluation.
	if c.phase.CheckScienceToDefault(now, c.defaultRunning) {
		switchToDefault = true
		metrics.PhaseTransitions.WithLabelValues("science_to_default").Inc()
		c.recordHistory(history.EventPhaseChanged, "science->default")
	}
	if c.phase.CheckDefaultToScience(now, c.link.Connected(), c.defaultRunning) {
		switchToDefault = false
		metrics.PhaseTransitions.WithLabelValues("default_to_science").Inc()
		c.recordHistory(history.EventPhaseChanged, "default->science")
	}
	// In the default phase the default saver belongs on screen; raising the
	// request every tick is what launches it on the tick after a terminate.
	if c.phase.Phase() == domain.DefaultPhase && !c.defaultRunning && c.defaultExists {
		switchToDefault = true
	}
	c.stat.SetPhase(c.phase.Phase())
	metrics.CurrentPhase.Set(phaseGaugeValue(c.phase.Phase()))

	// 6. Suspend handling. CPU throttle/usage are ignored transient spikes
	// (domain.SuspendReason.DisplayWorthy); any other bit means the client
	// wants graphics stood down.
	if !reason.DisplayWorthy() && !c.defaultRunning {
		c.stat.SetErrorMode(true)
		if c.defaultExists {
			switchToDefault = true
		}
	}

	c.applySwitchToDefault(ctx, &switchToDefault, now)

	// 8. Reconcile within science.
	if c.phase.Phase() == domain.SciencePhase && !switchToDefault {
		c.reconcileScience(ctx, now, reason, snap, &switchToDefault)
		c.applySwitchToDefault(ctx, &switchToDefault, now)
	}

	// 9. Process liveness.
	c.checkLiveness(now)
}

// applySwitchToDefault acts on a pending switch-to-default request: if
// science is running, terminate it now and leave the default launch to a
// later tick that raises the request again (launch never follows terminate
// within one tick); otherwise, if nothing is on screen, launch default
// immediately. Called twice per tick
// (spec.md §4.6) since the science reconcile step can raise the request
// after the first call already ran.
func (c *Coordinator) applySwitchToDefault(ctx context.Context, switchToDefault *bool, now time.Time) {
	if !*switchToDefault {
		return
	}
	if c.scienceRunning {
		_ = c.terminateScience(ctx)
		return
	}
	if c.defaultRunning {
		return
	}

	*switchToDefault = false
	start := time.Now()
	h, err := c.supervisor.LaunchDefault(c.cfg.DefaultSaverWorkDir, c.cfg.DefaultSaverPath, !c.link.Connected())
	if err != nil {
		c.stat.SetError(true, domain.CodeCantLaunchDefault)
		metrics.LaunchesTotal.WithLabelValues("default", "error").Inc()
		return
	}
	metrics.LaunchLatency.Observe(time.Since(start).Seconds())
	c.handle = h
	c.defaultRunning = true
	c.stat.SetHandle(h)
	c.stat.SetError(false, domain.CodeLoading)
	if c.phase.Phase() == domain.SciencePhase {
		c.phase.RecordDefaultLaunched(now)
	}
	metrics.LaunchesTotal.WithLabelValues("default", "ok").Inc()
	c.recordHistory(history.EventLaunched, "default")
}

// reconcileScience validates the currently displayed science task against
// the fresh snapshot, rotates it once the change interval elapses, and
// picks a replacement whenever the default saver or nothing at all is on
// screen (spec.md §4.3, §4.6 step 8).
func (c *Coordinator) reconcileScience(ctx context.Context, now time.Time, reason domain.SuspendReason, snap domain.TaskSnapshot, switchToDefault *bool) {
	if c.scienceRunning {
		cur, found := snap.FindByIdentity(c.previous.Task.Name, c.previous.Task.ProjectURL)
		if !found {
			if err := c.terminateScience(ctx); err == nil {
				c.recordHistory(history.EventTerminated, "science task finished")
			}
			// The replacement pick/launch waits for the next slowTick —
			// launch never follows terminate within the same tick.
			return
		}
		c.previous = domain.NewPreviousTask(cur)
		if c.phase.ShouldChangeApp(now) {
			if tasks.CountActiveGraphicsApps(snap, &cur) > 0 {
				_ = c.terminateScience(ctx)
				return
			}
			c.phase.MarkChanged(now)
		}
	}

	if !c.defaultRunning && c.scienceRunning {
		return
	}

	var exclude *domain.Task
	if c.previous.Set() {
		t := c.previous.Task
		exclude = &t
	}

	var chosen domain.Task
	var ok bool
	if reason.DisplayWorthy() {
		chosen, ok = c.selector.Choose(snap, exclude)
	}

	if !ok {
		if !c.defaultRunning {
			c.stat.SetErrorMode(true)
			if c.defaultExists {
				*switchToDefault = true
			} else {
				c.recordHistory(history.EventErrorChanged, domain.ErrNoEligibleTask.Error())
			}
		}
		return
	}

	if c.defaultRunning {
		c.killingDefault = true
		_ = c.supervisor.Terminate(c.handle)
		metrics.TerminatesTotal.WithLabelValues("default").Inc()
		c.phase.RecordDefaultStopped(now)
		c.clearHandle()
		c.defaultRunning = false
		// Terminate already waited for the exit, so it's observed and
		// consumed right here — checkLiveness will never see this handle
		// (it's nil now) and so would never clear the flag itself.
		c.killingDefault = false
		return
	}

	start := time.Now()
	h, err := c.launchScience(ctx, chosen)
	if err != nil {
		metrics.LaunchesTotal.WithLabelValues("science", "error").Inc()
		return
	}
	metrics.LaunchLatency.Observe(time.Since(start).Seconds())
	c.handle = h
	c.scienceRunning = true
	c.previous = domain.NewPreviousTask(chosen)
	c.phase.MarkChanged(now)
	c.stat.SetHandle(h)
	c.stat.SetError(false, domain.CodeLoading)
	metrics.LaunchesTotal.WithLabelValues("science", "ok").Inc()
	c.recordHistory(history.EventLaunched, "science:"+chosen.Name)
}

// launchScience enforces the at-most-one-process invariant (spec.md §5)
// before handing off to the supervisor or the RPC transport.
func (c *Coordinator) launchScience(ctx context.Context, t domain.Task) (*engine.Handle, error) {
	if c.scienceRunning || c.defaultRunning {
		return nil, domain.ErrPoolExhausted
	}
	if c.cfg.LaunchViaRPC {
		if err := c.link.RunGraphicsApp(ctx, rpc.VerbRunFullscreen, t.Slot, c.cfg.HelperUser); err != nil {
			return nil, err
		}
		return &engine.Handle{}, nil
	}
	return c.supervisor.LaunchScience(t)
}

func (c *Coordinator) terminateScience(ctx context.Context) error {
	var err error
	if c.cfg.LaunchViaRPC {
		err = c.link.RunGraphicsApp(ctx, rpc.VerbStop, c.previous.Task.Slot, c.cfg.HelperUser)
	} else {
		err = c.supervisor.Terminate(c.handle)
	}
	metrics.TerminatesTotal.WithLabelValues("science").Inc()
	c.phase.ClearChangeTimer()
	c.clearHandle()
	c.scienceRunning = false
	return err
}

// checkLiveness is step 9: has whatever's on screen exited on its own?
// A default-saver exit that wasn't requested by us (killingDefault) is a
// crash or connection failure and permanently disables the default saver
// for this run, forcing the science phase immediately.
func (c *Coordinator) checkLiveness(now time.Time) {
	if c.handle == nil {
		return
	}
	if c.cfg.LaunchViaRPC && c.scienceRunning {
		// No local pid to poll on this path; a finished task's absence
		// from the next snapshot is what reconcileScience acts on.
		return
	}

	exited, code := c.supervisor.HasExited(c.handle)
	if !exited {
		return
	}

	wasDefault := c.defaultRunning
	wasKilling := c.killingDefault
	c.killingDefault = false
	c.clearHandle()
	c.defaultRunning = false
	c.scienceRunning = false

	if wasDefault && !wasKilling {
		if code == domain.DefaultGfxCantConnectExitCode {
			c.stat.SetError(true, domain.CodeDefaultCantConnect)
		} else {
			c.stat.SetError(true, domain.CodeDefaultCrashed)
		}
		c.defaultExists = false
		c.phase.ForceScience(now)
		c.recordHistory(history.EventErrorChanged, "default saver crashed")
		return
	}
	c.stat.SetError(true, domain.CodeNoGraphicsAppsExecuting)
}
