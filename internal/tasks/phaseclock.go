package tasks

import (
	"time"

	"github.com/scicoord/ssgfx/internal/domain"
)

// PhaseConfig holds the three durations from spec.md §6 that govern how
// long each phase runs and how often the displayed science app changes.
// A zero DefaultPeriod or SciencePeriod disables that transition entirely,
// matching the original's `m_fGFXDefaultPeriod > 0` guards.
type PhaseConfig struct {
	DefaultPeriod time.Duration
	SciencePeriod time.Duration
	ChangePeriod  time.Duration
}

// PhaseClock tracks which phase the coordinator is in and when it's time to
// switch, reproducing DataManagementProc's phase bookkeeping (spec.md §4.4):
// time spent showing the default saver during an otherwise-science phase
// (because no science graphics were available) is credited against the
// following default phase, so the two phases stay proportioned over time
// even when the science side has gaps.
type PhaseClock struct {
	cfg   PhaseConfig
	phase domain.Phase

	defaultPhaseStart time.Time // zero when not in the default phase
	sciencePhaseStart time.Time // zero when not in the science phase

	defaultRunningSince      time.Time // zero unless default gfx is filling in during science phase
	defaultDurationInScience time.Duration

	lastChangeTime time.Time
}

// NewPhaseClock starts the clock in the requested phase at now.
// startInDefault mirrors show_default_ss_first (spec.md §6).
func NewPhaseClock(cfg PhaseConfig, now time.Time, startInDefault bool) *PhaseClock {
	pc := &PhaseClock{cfg: cfg}
	if startInDefault {
		pc.phase = domain.DefaultPhase
		pc.defaultPhaseStart = now
	} else {
		pc.phase = domain.SciencePhase
		pc.sciencePhaseStart = now
	}
	return pc
}

// Phase returns the current phase.
func (pc *PhaseClock) Phase() domain.Phase { return pc.phase }

// CheckScienceToDefault reports whether the science phase has run its full
// allotment and switches the clock to the default phase if so.
// defaultGfxRunning tells it whether default gfx was already filling in, so
// the crossover credits the elapsed fill-in time correctly.
func (pc *PhaseClock) CheckScienceToDefault(now time.Time, defaultGfxRunning bool) bool {
	if pc.phase != domain.SciencePhase || pc.cfg.DefaultPeriod <= 0 {
		return false
	}
	if pc.sciencePhaseStart.IsZero() || now.Sub(pc.sciencePhaseStart) <= pc.cfg.SciencePeriod {
		return false
	}

	pc.phase = domain.DefaultPhase
	pc.defaultPhaseStart = now
	pc.sciencePhaseStart = time.Time{}
	if defaultGfxRunning && !pc.defaultRunningSince.IsZero() {
		pc.defaultDurationInScience += now.Sub(pc.defaultRunningSince)
	}
	pc.defaultRunningSince = time.Time{}
	return true
}

// CheckDefaultToScience reports whether the default phase, net of any time
// already credited from filling in during science, has run its full
// allotment and switches to science if so. connected must be true — the
// original only re-enters the science phase once it can talk to the client.
func (pc *PhaseClock) CheckDefaultToScience(now time.Time, connected, defaultGfxRunning bool) bool {
	if pc.phase != domain.DefaultPhase || !connected || pc.cfg.SciencePeriod <= 0 {
		return false
	}
	if pc.defaultPhaseStart.IsZero() {
		return false
	}
	elapsed := now.Sub(pc.defaultPhaseStart) + pc.defaultDurationInScience
	if elapsed <= pc.cfg.DefaultPeriod {
		return false
	}

	pc.phase = domain.SciencePhase
	pc.defaultPhaseStart = time.Time{}
	pc.defaultDurationInScience = 0
	pc.sciencePhaseStart = now
	if defaultGfxRunning {
		pc.defaultRunningSince = now
	}
	return true
}

// RecordDefaultLaunched notes that the default saver just started running
// as a science-phase fill-in (no eligible science task was available), so
// its running time accrues against the next default phase.
func (pc *PhaseClock) RecordDefaultLaunched(now time.Time) {
	if pc.phase == domain.SciencePhase {
		pc.defaultRunningSince = now
	}
}

// RecordDefaultStopped stops crediting fill-in time, e.g. because a science
// task became available and preempted the default saver.
func (pc *PhaseClock) RecordDefaultStopped(now time.Time) {
	if !pc.defaultRunningSince.IsZero() {
		pc.defaultDurationInScience += now.Sub(pc.defaultRunningSince)
		pc.defaultRunningSince = time.Time{}
	}
}

// ForceScience switches immediately to the science phase regardless of any
// timer, used when the default saver has just proven unusable (crashed or
// gone missing) and can no longer serve as this run's fallback.
func (pc *PhaseClock) ForceScience(now time.Time) {
	if pc.phase == domain.SciencePhase {
		return
	}
	pc.phase = domain.SciencePhase
	pc.defaultPhaseStart = time.Time{}
	pc.defaultDurationInScience = 0
	pc.sciencePhaseStart = now
}

// ShouldChangeApp reports whether the change-interval since the last
// science app switch has elapsed (spec.md §4.4, "change within science").
// A zero last-change time means no science app is currently displayed.
func (pc *PhaseClock) ShouldChangeApp(now time.Time) bool {
	if pc.lastChangeTime.IsZero() || pc.cfg.ChangePeriod <= 0 {
		return false
	}
	return now.Sub(pc.lastChangeTime) > pc.cfg.ChangePeriod
}

// MarkChanged resets the change-interval timer, called after launching a
// science app (initial launch or a change-within-science swap).
func (pc *PhaseClock) MarkChanged(now time.Time) { pc.lastChangeTime = now }

// ClearChangeTimer stops the change-interval timer, called when no science
// app is displayed (e.g. while showing the default saver instead).
func (pc *PhaseClock) ClearChangeTimer() { pc.lastChangeTime = time.Time{} }
