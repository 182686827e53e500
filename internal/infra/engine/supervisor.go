package engine

import (
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/scicoord/ssgfx/internal/domain"
)

// Poll timings from spec.md §4.1. Declared as vars, not consts, so tests
// can shrink them instead of paying the real windows on the timeout paths.
var (
	launchPollTimeout     = 8 * time.Second
	launchPollInterval    = 10 * time.Millisecond
	terminatePollTimeout  = 2 * time.Second
	terminatePollInterval = 10 * time.Millisecond
	windowCloseGrace      = 1 * time.Second
)

// Supervisor launches, observes, and terminates a single external
// graphics process at a time (spec.md §4.1). All operations are
// serialized by mu, both to prevent double-reap and — on platforms where
// a UI thread may snapshot the displayed window out-of-band — to keep
// that readout from tearing across a terminate (spec.md §5).
type Supervisor struct {
	mu     sync.Mutex
	helper PrivilegedHelper // nil ⇒ direct os/exec launch path
}

// New returns a Supervisor. Pass a nil helper on hosts that don't require
// privilege separation; Launch/Terminate then use os/exec directly.
func New(helper PrivilegedHelper) *Supervisor {
	return &Supervisor{helper: helper}
}

// Launch starts executable in workingDir with args, detached, using
// fullscreen argumentation the caller has already assembled. On hosts
// requiring privilege separation it delegates to the helper and waits up
// to 8s for the real child pid to appear (spec.md §4.1).
func (s *Supervisor) Launch(workingDir, executable string, args []string) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.helper != nil {
		return s.launchViaHelper(workingDir, executable, args)
	}
	return s.launchDirect(workingDir, executable, args)
}

func (s *Supervisor) launchDirect(workingDir, executable string, args []string) (*Handle, error) {
	cmd := exec.Command(executable, args...)
	cmd.Dir = workingDir
	configureProcess(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLaunchFailed, err)
	}

	h := &Handle{cmd: cmd, pid: cmd.Process.Pid, launchedAt: time.Now()}

	// Reap in the background so the OS process table doesn't accumulate
	// zombies; HasExited below reports the result once available.
	go func() {
		err := cmd.Wait()
		h.markExited(exitCodeFromWaitErr(err))
	}()

	return h, nil
}

func (s *Supervisor) launchViaHelper(workingDir, executable string, args []string) (*Handle, error) {
	// The two helper launch verbs distinguish "science app for slot N"
	// from "default saver at this path"; the caller picks the verb by
	// calling LaunchScience/LaunchDefault instead of Launch directly when
	// a helper is configured. Launch is kept for the direct path and for
	// tests that supply a mock helper.
	if err := s.helper.LaunchDefault(executable, false); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLaunchFailed, err)
	}
	pid, err := waitForHelperPid(s.helper.Pids(), launchPollTimeout, launchPollInterval)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLaunchTimeout, err)
	}
	return &Handle{viaHelper: true, pid: pid, launchedAt: time.Now()}, nil
}

// LaunchScience launches a science task's graphics executable. Under
// privilege separation the helper is invoked with -launch_gfx <slot>;
// otherwise the executable runs directly with --fullscreen.
func (s *Supervisor) LaunchScience(t domain.Task) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.helper != nil {
		if err := s.helper.LaunchGraphics(t.SlotPath, t.Slot); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrLaunchFailed, err)
		}
		pid, err := waitForHelperPid(s.helper.Pids(), launchPollTimeout, launchPollInterval)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrLaunchTimeout, err)
		}
		return &Handle{viaHelper: true, pid: pid, launchedAt: time.Now()}, nil
	}
	return s.launchDirect(t.SlotPath, t.GraphicsExecPath, []string{"--fullscreen"})
}

// LaunchDefault launches the default saver. retryConnect appends
// --retry_connect, which the original only does while the RPC link is
// down at launch time (SPEC_FULL.md §5).
func (s *Supervisor) LaunchDefault(workingDir, executablePath string, retryConnect bool) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	args := []string{"--fullscreen"}
	if retryConnect {
		args = append(args, "--retry_connect")
	}

	if s.helper != nil {
		if err := s.helper.LaunchDefault(executablePath, retryConnect); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrLaunchFailed, err)
		}
		pid, err := waitForHelperPid(s.helper.Pids(), launchPollTimeout, launchPollInterval)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrLaunchTimeout, err)
		}
		return &Handle{viaHelper: true, pid: pid, launchedAt: time.Now()}, nil
	}
	return s.launchDirect(workingDir, executablePath, args)
}

// HasExited performs a non-blocking reap. On the helper path, a "child
// pid unknown" sentinel from the helper counts as still running.
func (s *Supervisor) HasExited(h *Handle) (exited bool, exitCode int) {
	if h == nil {
		return true, 0
	}
	if h.viaHelper {
		exited, code, unknown := s.helper.ExitStatus()
		if unknown {
			return false, 0
		}
		return exited, code
	}
	return h.exitedLocked()
}

// Terminate stops the running process. Graceful first (Windows: close the
// known graphics window, then fall back to a forced kill after 1s; helper
// path: -kill_gfx, polled up to 2s), with an unconditional kill as a final
// safety net in every case. Terminate is best-effort and always clears the
// handle from the caller's point of view once it returns.
func (s *Supervisor) Terminate(h *Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h == nil {
		return nil
	}

	if h.viaHelper {
		return s.terminateViaHelper(h)
	}
	return s.terminateDirect(h)
}

func (s *Supervisor) terminateViaHelper(h *Handle) error {
	_ = s.helper.Kill(h.pid)
	exited, _, err := pollHelperExit(s.helper, terminatePollTimeout, terminatePollInterval)
	killProcessByPid(h.pid) // unconditional safety net
	h.markExited(0)
	if !exited {
		return fmt.Errorf("%w: pid %d", domain.ErrTerminateTimeout, h.pid)
	}
	return err
}

func pollHelperExit(h PrivilegedHelper, timeout, interval time.Duration) (bool, int, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if exited, code, unknown := h.ExitStatus(); exited && !unknown {
			return true, code, nil
		}
		time.Sleep(interval)
	}
	return false, 0, fmt.Errorf("helper did not confirm exit within %s", timeout)
}

func (s *Supervisor) terminateDirect(h *Handle) error {
	terminateGraceful(h, windowCloseGrace)

	deadline := time.Now().Add(terminatePollTimeout)
	for time.Now().Before(deadline) {
		if exited, _ := h.exitedLocked(); exited {
			break
		}
		time.Sleep(terminatePollInterval)
	}

	killProcessByPid(h.pid) // unconditional safety net
	exited, _ := h.exitedLocked()
	if !exited {
		h.markExited(0)
	}
	return nil
}

func exitCodeFromWaitErr(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
