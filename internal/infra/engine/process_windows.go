package engine

import (
	"os/exec"
	"syscall"
	"time"
	"unsafe"
)

var (
	user32          = syscall.NewLazyDLL("user32.dll")
	procFindWindow  = user32.NewProc("FindWindowW")
	procCloseWindow = user32.NewProc("CloseWindow")
	procTerminateProcess = syscall.NewLazyDLL("kernel32.dll").NewProc("TerminateProcess")
	procOpenProcess      = syscall.NewLazyDLL("kernel32.dll").NewProc("OpenProcess")
)

// boincGraphicsWindowClass is the window class the original looks up via
// FindWindow(BOINC_WINDOW_CLASS_NAME, NULL) before asking it to close.
const boincGraphicsWindowClass = "BOINC_SS_Window_Class"

// configureProcess hides the console window and starts the process in a
// new process group, matching the teacher's Windows subprocess handling
// plus the ability to signal the whole tree on terminate.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: 0x00000200, // CREATE_NEW_PROCESS_GROUP
	}
}

// terminateGraceful mirrors terminate_v6_screensaver's Windows branch:
// find the known graphics window class, ask it to close, then give it
// windowCloseGrace before the caller's forced kill takes over.
func terminateGraceful(h *Handle, grace time.Duration) {
	classPtr, err := syscall.UTF16PtrFromString(boincGraphicsWindowClass)
	if err != nil {
		return
	}
	hwnd, _, _ := procFindWindow.Call(uintptr(unsafe.Pointer(classPtr)), 0)
	if hwnd == 0 {
		return
	}
	procCloseWindow.Call(hwnd)
	time.Sleep(grace)
}

// killProcessByPid is the unconditional safety-net kill (spec.md §4.1),
// using OpenProcess/TerminateProcess directly since os/exec only tracks
// processes this package itself started.
func killProcessByPid(pid int) {
	if pid <= 0 {
		return
	}
	const processTerminate = 0x0001
	handle, _, _ := procOpenProcess.Call(processTerminate, 0, uintptr(pid))
	if handle == 0 {
		return
	}
	procTerminateProcess.Call(handle, 0)
}
