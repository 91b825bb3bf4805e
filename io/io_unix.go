//go:build !windows

package parseio

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"unsafe"
)

// unixConsole probes the controlling terminal with TIOCGWINSZ and, for
// color depth, the terminfo database via tput.
type unixConsole struct {
	once   sync.Once
	colors int
}

func newConsole() console { return &unixConsole{} }

// winsize mirrors the kernel struct filled by TIOCGWINSZ.
type winsize struct {
	rows, cols, xpx, ypx uint16
}

func ttyWinsize(fd uintptr) (winsize, bool) {
	var ws winsize
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fd, uintptr(syscall.TIOCGWINSZ), uintptr(unsafe.Pointer(&ws)))
	return ws, errno == 0
}

func (u *unixConsole) isTTY(f *os.File) bool {
	if f == nil {
		return false
	}
	if _, ok := ttyWinsize(f.Fd()); ok {
		return true
	}
	// Some pseudo-terminals reject the size ioctl; fall back to the
	// device type.
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func (u *unixConsole) size(f *os.File) (int, int, bool) {
	if f == nil {
		return 0, 0, false
	}
	ws, ok := ttyWinsize(f.Fd())
	if !ok || ws.cols == 0 || ws.rows == 0 {
		return 0, 0, false
	}
	return int(ws.cols), int(ws.rows), true
}

// Unix terminals interpret ANSI sequences without any mode switch.
func (u *unixConsole) enableANSI() bool { return true }
func (u *unixConsole) ansiReady() bool  { return true }

// probeColorLevel maps the terminfo color count onto the 0..3 scale.
// The probe runs once per process.
func (u *unixConsole) probeColorLevel() int {
	u.once.Do(func() { u.colors = terminfoColors() })
	switch {
	case u.colors >= 1<<24:
		return 3
	case u.colors >= 256:
		return 2
	case u.colors >= 8:
		return 1
	}
	return 0
}

// terminfoColors asks tput how many colors $TERM supports. The RGB
// capability flags truecolor; otherwise the numeric count answers.
// Without tput, $TERM itself is the last hint.
func terminfoColors() int {
	if exec.Command("tput", "RGB").Run() == nil {
		return 1 << 24
	}
	if out, err := exec.Command("tput", "colors").Output(); err == nil {
		if n, convErr := strconv.Atoi(strings.TrimSpace(string(out))); convErr == nil {
			return n
		}
	}
	term := os.Getenv("TERM")
	switch {
	case strings.Contains(term, "256"):
		return 256
	case term != "" && term != "dumb":
		return 8
	}
	return 0
}
