//go:build !windows

package engine

import (
	"os/exec"
	"syscall"
	"time"
)

// configureProcess puts the child in its own process group so a terminate
// can reach any children it spawns, mirroring how the original's
// run_program isolates the graphics app's process tree.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateGraceful sends SIGTERM and gives the process grace to exit
// before the caller's poll loop and final kill take over. Unix graphics
// apps have no window-class concept to close, unlike Windows.
func terminateGraceful(h *Handle, grace time.Duration) {
	if h.pid <= 0 {
		return
	}
	_ = syscall.Kill(-h.pid, syscall.SIGTERM)
	time.Sleep(grace)
}

// killProcessByPid is the unconditional safety-net kill (spec.md §4.1).
// Signalling the negative pid targets the whole process group set up by
// configureProcess.
func killProcessByPid(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
	_ = syscall.Kill(pid, syscall.SIGKILL)
}
