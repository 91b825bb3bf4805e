// Package parseio owns the terminal-facing side of the parser: stream
// wiring, TTY and size probing, ANSI capability detection, and the
// leveled logger used for parse-time warnings.
package parseio

import (
	stdio "io"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// console is the per-platform probe surface, implemented in io_unix.go
// and io_windows.go.
type console interface {
	isTTY(*os.File) bool
	size(*os.File) (cols, rows int, ok bool)
	enableANSI() bool
	ansiReady() bool
	probeColorLevel() int
}

// colorMode is the manager-level color override.
type colorMode uint8

const (
	colorAuto colorMode = iota
	colorOn
	colorOff
)

// IOManager bundles the three standard streams with terminal capability
// probes. Construct with New; the zero value has no streams attached.
type IOManager struct {
	in  stdio.Reader
	out stdio.Writer
	err stdio.Writer

	mode     colorMode
	level    int // forced color level when levelSet
	levelSet bool

	term console
}

// New returns a manager bound to the process streams.
func New() *IOManager {
	return &IOManager{in: os.Stdin, out: os.Stdout, err: os.Stderr, term: newConsole()}
}

// WithIn replaces the input reader.
func (m *IOManager) WithIn(r stdio.Reader) *IOManager { m.in = r; return m }

// WithOut replaces the standard output writer.
func (m *IOManager) WithOut(w stdio.Writer) *IOManager { m.out = w; return m }

// WithErr replaces the standard error writer.
func (m *IOManager) WithErr(w stdio.Writer) *IOManager { m.err = w; return m }

// ForceColor turns color on regardless of the environment.
func (m *IOManager) ForceColor() *IOManager { m.mode = colorOn; return m }

// NoColor turns color off regardless of the environment.
func (m *IOManager) NoColor() *IOManager { m.mode = colorOff; return m }

// ColorAuto restores environment-driven color detection.
func (m *IOManager) ColorAuto() *IOManager { m.mode = colorAuto; return m }

// ForceColorLevel pins the color depth (0 none, 1 basic, 2 indexed,
// 3 truecolor) for terminals the automatic detection misjudges.
func (m *IOManager) ForceColorLevel(level int) *IOManager {
	m.level = level
	m.levelSet = true
	return m
}

// In returns the input reader.
func (m *IOManager) In() stdio.Reader { return m.in }

// Out returns the standard output writer.
func (m *IOManager) Out() stdio.Writer { return m.out }

// Err returns the standard error writer.
func (m *IOManager) Err() stdio.Writer { return m.err }

// IsTTY reports whether process stdout is a terminal.
func (m *IOManager) IsTTY() bool { return m.term.isTTY(os.Stdout) }

// IsInteractive reports whether stdin is a terminal outside CI.
func (m *IOManager) IsInteractive() bool {
	return m.term.isTTY(os.Stdin) && os.Getenv("CI") == ""
}

// IsPiped reports whether stdin comes from something other than a
// terminal.
func (m *IOManager) IsPiped() bool { return !m.term.isTTY(os.Stdin) }

// IsRedirected reports whether stdout goes somewhere other than a
// terminal.
func (m *IOManager) IsRedirected() bool { return !m.term.isTTY(os.Stdout) }

// Width returns the terminal column count, falling back to COLUMNS and
// then to 80.
func (m *IOManager) Width() int {
	if w, _ := m.dims(); w > 0 {
		return w
	}
	return 80
}

// Height returns the terminal row count, falling back to LINES and then
// to 24.
func (m *IOManager) Height() int {
	if _, h := m.dims(); h > 0 {
		return h
	}
	return 24
}

func (m *IOManager) dims() (int, int) {
	if cols, rows, ok := m.term.size(os.Stdout); ok {
		return cols, rows
	}
	return envSize()
}

// envSize reads COLUMNS/LINES, the conventional fallback when no
// controlling terminal answers a size query.
func envSize() (int, int) {
	w, _ := strconv.Atoi(os.Getenv("COLUMNS"))
	h, _ := strconv.Atoi(os.Getenv("LINES"))
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return w, h
}

// SupportsColor reports whether ANSI sequences should be emitted.
// Manager overrides win, then NO_COLOR / FORCE_COLOR, then the
// platform gate.
func (m *IOManager) SupportsColor() bool {
	switch {
	case m.mode == colorOff || os.Getenv("NO_COLOR") != "":
		return false
	case m.mode == colorOn || os.Getenv("FORCE_COLOR") != "":
		return true
	}
	if goos() == "windows" {
		return m.term.ansiReady()
	}
	if !m.IsTTY() {
		return false
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

// ColorLevel returns the color depth: 0 none, 1 basic 16, 2 indexed
// 256, 3 truecolor.
func (m *IOManager) ColorLevel() int {
	if m.levelSet {
		return m.level
	}
	if !m.SupportsColor() {
		return 0
	}
	if lvl := envColorLevel(); lvl > 0 {
		return lvl
	}
	if goos() == "windows" {
		if lvl := m.term.probeColorLevel(); lvl > 0 {
			return lvl
		}
	}
	if strings.Contains(os.Getenv("TERM"), "256color") {
		return 2
	}
	if lvl := m.term.probeColorLevel(); lvl > 0 {
		return lvl
	}
	return 1
}

// envColorLevel reports 3 when the environment advertises truecolor,
// 0 otherwise.
func envColorLevel() int {
	if ct := os.Getenv("COLORTERM"); ct == "truecolor" || ct == "24bit" {
		return 3
	}
	if term := os.Getenv("TERM"); strings.Contains(term, "truecolor") || strings.Contains(term, "24bit") {
		return 3
	}
	switch os.Getenv("TERM_PROGRAM") {
	case "vscode", "zed":
		return 3
	}
	return 0
}

// EnableVirtualTerminal switches the console into ANSI processing mode
// where the platform needs it. Unix terminals already are; Windows
// consoles require a mode change.
func (m *IOManager) EnableVirtualTerminal() bool { return m.term.enableANSI() }

const sgrReset = "\x1b[0m"

func sgr(code string) string { return "\x1b[" + code + "m" }

// Colorize wraps s in the given SGR code and a trailing reset, or
// returns s unchanged when color is unavailable.
func (m *IOManager) Colorize(s, code string) string {
	if !m.SupportsColor() {
		return s
	}
	return sgr(code) + s + sgrReset
}

// Bold renders s bold when color is available.
func (m *IOManager) Bold(s string) string { return m.Colorize(s, "1") }

// Faint renders s at reduced intensity when color is available.
func (m *IOManager) Faint(s string) string { return m.Colorize(s, "2") }

// Italic renders s italic when color is available.
func (m *IOManager) Italic(s string) string { return m.Colorize(s, "3") }

// Underline renders s underlined when color is available.
func (m *IOManager) Underline(s string) string { return m.Colorize(s, "4") }

// goos allows tests to exercise the windows code paths from other
// platforms.
func goos() string {
	if v := os.Getenv("CMDPARSE_GOOS"); v != "" {
		return v
	}
	return runtime.GOOS
}
