package parseio

import (
	"fmt"
	"strconv"
	"strings"
)

// colorSpace identifies which SGR encoding a ColorSpec uses.
type colorSpace uint8

const (
	spaceNone    colorSpace = iota
	spaceANSI               // 16-color codes 30-37 / 90-97
	spaceIndexed            // 256-color palette, 38;5;n
	spaceRGB                // truecolor, 38;2;r;g;b
)

// ColorSpec is a renderable color in one of the three ANSI spaces.
// Specs degrade at render time: an indexed or RGB spec on a terminal
// without the depth for it is dropped rather than approximated.
type ColorSpec struct {
	space   colorSpace
	index   int
	r, g, b uint8
}

func ansiColor(i int) ColorSpec { return ColorSpec{space: spaceANSI, index: i} }

// Indexed returns a 256-color palette spec (0-255).
func Indexed(i int) ColorSpec { return ColorSpec{space: spaceIndexed, index: i} }

// Truecolor returns a 24-bit RGB spec.
func Truecolor(r, g, b uint8) ColorSpec { return ColorSpec{space: spaceRGB, r: r, g: g, b: b} }

// The standard 16 ANSI colors. 0-7 are the normal intensities, 8-15
// the bright ones.
var (
	Black   = ansiColor(0)
	Red     = ansiColor(1)
	Green   = ansiColor(2)
	Yellow  = ansiColor(3)
	Blue    = ansiColor(4)
	Magenta = ansiColor(5)
	Cyan    = ansiColor(6)
	White   = ansiColor(7)

	BrightBlack   = ansiColor(8)
	BrightRed     = ansiColor(9)
	BrightGreen   = ansiColor(10)
	BrightYellow  = ansiColor(11)
	BrightBlue    = ansiColor(12)
	BrightMagenta = ansiColor(13)
	BrightCyan    = ansiColor(14)
	BrightWhite   = ansiColor(15)
)

// sgr renders the spec as an SGR fragment for the given depth, or ""
// when the terminal cannot show it. bg selects the background plane.
func (c ColorSpec) sgr(bg bool, level int) string {
	switch c.space {
	case spaceANSI:
		idx := c.index
		if idx < 0 {
			idx = 0
		} else if idx > 15 {
			idx = 15
		}
		base := 30
		if bg {
			base = 40
		}
		if idx >= 8 {
			base += 60
			idx -= 8
		}
		return strconv.Itoa(base + idx)
	case spaceIndexed:
		if level < 2 {
			return ""
		}
		if bg {
			return "48;5;" + strconv.Itoa(c.index)
		}
		return "38;5;" + strconv.Itoa(c.index)
	case spaceRGB:
		if level < 3 {
			return ""
		}
		plane := "38"
		if bg {
			plane = "48"
		}
		return fmt.Sprintf("%s;2;%d;%d;%d", plane, c.r, c.g, c.b)
	}
	return ""
}

// Style accumulates foreground/background colors and text attributes,
// then renders strings against a manager's detected capabilities.
type Style struct {
	fg, bg *ColorSpec
	attrs  []string
}

// NewStyle returns an empty style.
func NewStyle() *Style { return &Style{} }

// Fg sets the foreground color.
func (s *Style) Fg(c ColorSpec) *Style { s.fg = &c; return s }

// Bg sets the background color.
func (s *Style) Bg(c ColorSpec) *Style { s.bg = &c; return s }

func (s *Style) attr(code string) *Style { s.attrs = append(s.attrs, code); return s }

func (s *Style) Bold() *Style      { return s.attr("1") }
func (s *Style) Faint() *Style     { return s.attr("2") }
func (s *Style) Italic() *Style    { return s.attr("3") }
func (s *Style) Underline() *Style { return s.attr("4") }
func (s *Style) Inverse() *Style   { return s.attr("7") }

// Sprint renders text with the style applied, or unchanged when the
// manager reports no color support.
func (s *Style) Sprint(io *IOManager, text string) string {
	if !io.SupportsColor() {
		return text
	}
	seq := s.sequence(io.ColorLevel())
	if seq == "" {
		return text
	}
	return sgr(seq) + text + sgrReset
}

// Sprintf formats with fmt.Sprintf, then applies the style.
func (s *Style) Sprintf(io *IOManager, format string, a ...any) string {
	return s.Sprint(io, fmt.Sprintf(format, a...))
}

// sequence joins the attribute and color fragments into one SGR
// parameter list.
func (s *Style) sequence(level int) string {
	parts := make([]string, 0, len(s.attrs)+2)
	parts = append(parts, s.attrs...)
	if s.fg != nil {
		if code := s.fg.sgr(false, level); code != "" {
			parts = append(parts, code)
		}
	}
	if s.bg != nil {
		if code := s.bg.sgr(true, level); code != "" {
			parts = append(parts, code)
		}
	}
	return strings.Join(parts, ";")
}

// Theme names the semantic colors used by the logger and error output.
type Theme struct {
	Primary, Success, Warning, Error, Info, Debug, Muted ColorSpec
}

// DefaultTheme16 is the theme for basic 16-color terminals.
func DefaultTheme16() Theme {
	return Theme{
		Primary: BrightBlue,
		Success: BrightGreen,
		Warning: BrightYellow,
		Error:   BrightRed,
		Info:    BrightCyan,
		Debug:   BrightMagenta,
		Muted:   BrightBlack,
	}
}

// DefaultTheme256 upgrades the debug color to a palette purple; the
// rest of the 16-color theme already reads well at this depth.
func DefaultTheme256() Theme {
	t := DefaultTheme16()
	t.Debug = Indexed(141)
	return t
}

// DefaultThemeTruecolor is the theme for 24-bit terminals.
func DefaultThemeTruecolor() Theme {
	return Theme{
		Primary: Truecolor(92, 148, 252),
		Success: Truecolor(80, 250, 123),
		Warning: Truecolor(255, 184, 108),
		Error:   Truecolor(255, 85, 85),
		Info:    Truecolor(139, 233, 253),
		Debug:   Truecolor(189, 147, 249),
		Muted:   Truecolor(128, 128, 128),
	}
}

// DefaultTheme picks the deepest default theme the manager's terminal
// can render.
func DefaultTheme(io *IOManager) Theme {
	switch io.ColorLevel() {
	case 3:
		return DefaultThemeTruecolor()
	case 2:
		return DefaultTheme256()
	default:
		return DefaultTheme16()
	}
}
