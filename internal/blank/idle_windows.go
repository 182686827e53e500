//go:build windows

package blank

import (
	"syscall"
	"time"
	"unsafe"
)

var (
	blankUser32          = syscall.NewLazyDLL("user32.dll")
	blankKernel32        = syscall.NewLazyDLL("kernel32.dll")
	procGetLastInputInfo = blankUser32.NewProc("GetLastInputInfo")
	procGetTickCount     = blankKernel32.NewProc("GetTickCount")
	procOpenInputDesktop = blankUser32.NewProc("OpenInputDesktop")
	procCloseDesktop     = blankUser32.NewProc("CloseDesktop")
)

type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

// osIdleDuration uses GetLastInputInfo, the same API the original's
// Windows idle detection relies on.
func osIdleDuration() time.Duration {
	var info lastInputInfo
	info.cbSize = uint32(unsafe.Sizeof(info))

	ret, _, _ := procGetLastInputInfo.Call(uintptr(unsafe.Pointer(&info)))
	if ret == 0 {
		return 0
	}

	tick, _, _ := procGetTickCount.Call()
	idle := uint32(tick) - info.dwTime
	return time.Duration(idle) * time.Millisecond
}

func hasDisplay() bool {
	return true
}

// isScreenLocked calls OpenInputDesktop; failure to open the input desktop
// means another desktop (the lock screen) owns it.
func isScreenLocked() bool {
	const desktopReadObjects = 0x0001
	hDesktop, _, _ := procOpenInputDesktop.Call(0, 0, desktopReadObjects)
	if hDesktop == 0 {
		return true
	}
	procCloseDesktop.Call(hDesktop)
	return false
}
