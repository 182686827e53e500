// Package blank implements the coordinator's blank-timer check (spec.md
// §4.6 step 1): once the host has sat idle past a configured timeout, the
// tick loop requests shutdown instead of continuing to display graphics.
// Idle sensing is platform-specific, wrapped behind osIdleDuration the same
// way the daemon's own idle detector abstracts OS differences.
package blank

import "time"

// Config holds the blank timer setting. A zero Timeout disables the check
// entirely, matching the original's `m_dwBlankTime > 0` guard.
type Config struct {
	Timeout time.Duration
}

// Monitor tracks whether the host has been idle long enough to blank.
type Monitor struct {
	cfg Config

	// idleFn is osIdleDuration by default; tests substitute a fake clock so
	// they don't depend on the real host's input state.
	idleFn func() time.Duration
}

// NewMonitor returns a Monitor for cfg.
func NewMonitor(cfg Config) *Monitor {
	return &Monitor{cfg: cfg, idleFn: osIdleDuration}
}

// SetIdleFunc overrides the idle-duration source, for tests in packages
// that embed a Monitor and need a fake clock instead of real OS idle time.
func (m *Monitor) SetIdleFunc(fn func() time.Duration) {
	m.idleFn = fn
}

// Configured reports whether a blank timer is active for this session.
func (m *Monitor) Configured() bool {
	return m.cfg.Timeout > 0
}

// Expired reports whether the host has been idle at least as long as the
// configured timeout. Always false when no timer is configured.
func (m *Monitor) Expired() bool {
	if !m.Configured() {
		return false
	}
	return m.idleFn() >= m.cfg.Timeout
}

// HasDisplay reports whether a graphical display is attached at all —
// e.g. false on a headless server. It is reported on the status endpoint;
// the coordinator's blank check consults only Expired.
func (m *Monitor) HasDisplay() bool {
	return hasDisplay()
}

// ScreenLocked reports whether the OS session is already locked.
func (m *Monitor) ScreenLocked() bool {
	return isScreenLocked()
}

// IdleDuration returns the raw OS idle duration, for status reporting.
func (m *Monitor) IdleDuration() time.Duration {
	return m.idleFn()
}
