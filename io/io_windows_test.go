//go:build windows

package parseio

import (
	stdio "io"
	"os"
	"testing"
)

func TestWindows_SizeEnvFallback(t *testing.T) {
	t.Setenv("COLUMNS", "90")
	t.Setenv("LINES", "33")
	m := New()
	if m.Width() != 90 || m.Height() != 33 {
		t.Fatalf("want 90x33, got %dx%d", m.Width(), m.Height())
	}
}

func TestWindows_EnableANSISmoke(t *testing.T) {
	m := New()
	_ = m.EnableVirtualTerminal() // may fail on redirected streams
	_ = m.SupportsColor()
	_ = m.ColorLevel()
}

func TestWindows_RegularFileProbes(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "notatty")
	if err != nil {
		t.Fatalf("tmp: %v", err)
	}
	defer f.Close()
	c := newConsole()
	if c.isTTY(f) {
		t.Fatal("regular file must not probe as a terminal")
	}
	if _, _, ok := c.size(f); ok {
		t.Fatal("regular file must not report a size")
	}
	if c.isTTY(nil) {
		t.Fatal("nil file must not probe as a terminal")
	}
}

func TestWindows_StreamWiring(t *testing.T) {
	m := New().WithOut(stdio.Discard)
	if m.Out() == nil {
		t.Fatal("missing writer")
	}
}

func TestWindows_ColorOverrides(t *testing.T) {
	m := New()
	t.Setenv("NO_COLOR", "1")
	if m.SupportsColor() {
		t.Fatal("NO_COLOR must disable color")
	}
	os.Unsetenv("NO_COLOR")
	if !m.ForceColor().SupportsColor() {
		t.Fatal("ForceColor must enable color")
	}
}
