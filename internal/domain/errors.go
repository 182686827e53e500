package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency (spec.md §7).

var (
	ErrLinkDisconnected     = errors.New("client link disconnected")
	ErrClientStateUnavailable = errors.New("compute client state unavailable")
	ErrLaunchFailed         = errors.New("failed to launch graphics process")
	ErrLaunchTimeout        = errors.New("timed out waiting for privileged helper to publish pid")
	ErrTerminateTimeout     = errors.New("timed out waiting for graphics process to exit")
	ErrGraphicsIncompatible = errors.New("graphics application reported incompatible with this host")
	ErrDefaultMissing       = errors.New("default saver executable not found on disk")
	ErrDefaultCannotConnect = errors.New("default saver exited unable to reach compute client")
	ErrDefaultCrashed       = errors.New("default saver exited unexpectedly")
	ErrBlankTimerExpired    = errors.New("blank timer expired")
	ErrStopRequested        = errors.New("stop requested")
	ErrNoEligibleTask       = errors.New("no eligible graphics task to display")
	ErrPoolExhausted        = errors.New("no capacity to launch another graphics process")
)
