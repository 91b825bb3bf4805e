//go:build windows

package parseio

import (
	"os"
	"syscall"
	"unsafe"
)

// windowsConsole talks to the Win32 console API through kernel32.
type windowsConsole struct{}

func newConsole() console { return &windowsConsole{} }

var (
	kernel32           = syscall.NewLazyDLL("kernel32.dll")
	procGetConsoleMode = kernel32.NewProc("GetConsoleMode")
	procSetConsoleMode = kernel32.NewProc("SetConsoleMode")
	procGetBufferInfo  = kernel32.NewProc("GetConsoleScreenBufferInfo")
)

// ENABLE_VIRTUAL_TERMINAL_PROCESSING
const vtProcessing = 0x0004

// Layouts must match CONSOLE_SCREEN_BUFFER_INFO.
type wincoord struct{ x, y int16 }

type winrect struct{ left, top, right, bottom int16 }

type bufferInfo struct {
	size      wincoord
	cursor    wincoord
	attrs     uint16
	window    winrect
	maxWindow wincoord
}

// consoleMode reads the console mode for a handle. ok is false for
// redirected streams and regular files.
func consoleMode(h uintptr) (uint32, bool) {
	var mode uint32
	r, _, _ := procGetConsoleMode.Call(h, uintptr(unsafe.Pointer(&mode)))
	return mode, r != 0
}

func (w *windowsConsole) isTTY(f *os.File) bool {
	if f == nil {
		return false
	}
	_, ok := consoleMode(f.Fd())
	return ok
}

func (w *windowsConsole) size(f *os.File) (int, int, bool) {
	if f == nil {
		return 0, 0, false
	}
	var info bufferInfo
	r, _, _ := procGetBufferInfo.Call(f.Fd(), uintptr(unsafe.Pointer(&info)))
	if r == 0 {
		return 0, 0, false
	}
	cols := int(info.window.right-info.window.left) + 1
	rows := int(info.window.bottom-info.window.top) + 1
	if cols <= 0 || rows <= 0 {
		return 0, 0, false
	}
	return cols, rows, true
}

func (w *windowsConsole) ansiReady() bool {
	mode, ok := consoleMode(os.Stdout.Fd())
	return ok && mode&vtProcessing != 0
}

func (w *windowsConsole) enableANSI() bool {
	h := os.Stdout.Fd()
	mode, ok := consoleMode(h)
	if !ok {
		return false
	}
	if mode&vtProcessing != 0 {
		return true
	}
	r, _, _ := procSetConsoleMode.Call(h, uintptr(mode|vtProcessing))
	return r != 0
}

// probeColorLevel recognizes the common Windows hosts: Windows Terminal
// and ConEmu render truecolor, any console with VT processing is
// assumed to as well, and a plain console still manages 256 colors.
func (w *windowsConsole) probeColorLevel() int {
	switch {
	case os.Getenv("WT_SESSION") != "", os.Getenv("WT_PROFILE_ID") != "":
		return 3
	case os.Getenv("ConEmuANSI") == "ON":
		return 3
	case w.ansiReady():
		return 3
	case w.isTTY(os.Stdout):
		return 2
	}
	return 0
}
