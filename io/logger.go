package parseio

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dskrypa/command-parser/internal/pool"
)

// LogLevel orders message severities from debug up to error.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelSuccess
	LevelWarning
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelSuccess:
		return "SUCCESS"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// LogFormat selects how a line's level is shown.
type LogFormat int

const (
	LogFormatCircles LogFormat = iota // colored circle emoji per level
	LogFormatSymbols                  // plain Unicode symbols per level
	LogFormatTagged                   // [INFO], [WARN], ...
	LogFormatPlain                    // no level marker
	LogFormatCustom                   // template set via WithTemplate
)

// Logger writes leveled lines through an IOManager. The parser uses
// the tagged format for environment-coercion warnings; applications
// can reuse it from command actions.
type Logger struct {
	io        *IOManager
	format    LogFormat
	template  string
	overrides map[LogLevel]string
	withTime  bool
	timeFmt   string
	errToErr  bool
	theme     Theme
}

// NewLogger returns a circle-format logger themed for the manager's
// color depth, with warnings and errors routed to stderr.
func NewLogger(io *IOManager) *Logger {
	return &Logger{
		io:       io,
		format:   LogFormatCircles,
		timeFmt:  "15:04:05",
		errToErr: true,
		theme:    DefaultTheme(io),
	}
}

// WithFormat selects the level marker style. LogFormatCustom renders
// through the template set by WithTemplate.
func (l *Logger) WithFormat(format LogFormat) *Logger {
	l.format = format
	return l
}

// WithTemplate sets the custom line template and switches to
// LogFormatCustom. Recognized placeholders: {{.Level}}, {{.Time}},
// {{.Message}}, {{.Prefix}}.
func (l *Logger) WithTemplate(template string) *Logger {
	l.template = template
	l.format = LogFormatCustom
	return l
}

// SetPrefix overrides the marker for one level.
func (l *Logger) SetPrefix(level LogLevel, prefix string) *Logger {
	if l.overrides == nil {
		l.overrides = make(map[LogLevel]string)
	}
	l.overrides[level] = prefix
	return l
}

// WithTimestamp toggles a bracketed timestamp on each line.
func (l *Logger) WithTimestamp(enabled bool) *Logger {
	l.withTime = enabled
	return l
}

// WithTimeFormat sets the Go layout used for timestamps.
func (l *Logger) WithTimeFormat(format string) *Logger {
	l.timeFmt = format
	return l
}

// ErrorsToStderr controls whether warnings and errors go to the error
// stream instead of standard output.
func (l *Logger) ErrorsToStderr(enabled bool) *Logger {
	l.errToErr = enabled
	return l
}

// WithTheme replaces the semantic level colors.
func (l *Logger) WithTheme(theme Theme) *Logger {
	l.theme = theme
	return l
}

// Log formats and writes one line at the given level.
func (l *Logger) Log(level LogLevel, format string, args ...any) {
	line := l.render(level, fmt.Sprintf(format, args...))
	l.emit(l.writer(level), line)
}

func (l *Logger) Debug(format string, args ...any)   { l.Log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)    { l.Log(LevelInfo, format, args...) }
func (l *Logger) Success(format string, args ...any) { l.Log(LevelSuccess, format, args...) }
func (l *Logger) Warning(format string, args ...any) { l.Log(LevelWarning, format, args...) }
func (l *Logger) Error(format string, args ...any)   { l.Log(LevelError, format, args...) }

// render assembles marker, timestamp, and message, then colors the
// line by level. Blank messages pass through untouched so spacer
// lines stay spacers.
func (l *Logger) render(level LogLevel, msg string) string {
	if l.format == LogFormatCustom && l.template != "" {
		return l.renderTemplate(level, msg)
	}
	if strings.TrimSpace(msg) == "" {
		return msg
	}
	parts := make([]string, 0, 3)
	if l.format != LogFormatPlain {
		if marker := l.marker(level); marker != "" {
			parts = append(parts, marker)
		}
	}
	if l.withTime {
		parts = append(parts, "["+time.Now().Format(l.timeFmt)+"]")
	}
	parts = append(parts, msg)
	return l.paint(level, strings.Join(parts, " "))
}

func (l *Logger) renderTemplate(level LogLevel, msg string) string {
	r := strings.NewReplacer(
		"{{.Level}}", level.String(),
		"{{.Message}}", msg,
		"{{.Prefix}}", l.marker(level),
		"{{.Time}}", time.Now().Format(l.timeFmt),
	)
	return l.paint(level, r.Replace(l.template))
}

// marker returns the level marker for the active format, honoring
// per-level overrides.
func (l *Logger) marker(level LogLevel) string {
	if m, ok := l.overrides[level]; ok {
		return m
	}
	switch l.format {
	case LogFormatCircles:
		switch level {
		case LevelDebug:
			return "\U0001f7e3" // purple circle
		case LevelInfo:
			return "\U0001f535" // blue circle
		case LevelSuccess:
			return "\U0001f7e2" // green circle
		case LevelWarning:
			return "\U0001f7e1" // yellow circle
		case LevelError:
			return "\U0001f534" // red circle
		}
	case LogFormatSymbols:
		switch level {
		case LevelDebug:
			return "●"
		case LevelInfo:
			return "◆"
		case LevelSuccess:
			return "✓"
		case LevelWarning:
			return "▲"
		case LevelError:
			return "✗"
		}
	case LogFormatTagged:
		return "[" + level.String() + "]"
	}
	return ""
}

// paint applies the theme color for the level when the terminal shows
// color.
func (l *Logger) paint(level LogLevel, text string) string {
	if !l.io.SupportsColor() {
		return text
	}
	return NewStyle().Fg(l.theme.levelColor(level)).Sprint(l.io, text)
}

// levelColor maps a log level onto the theme's semantic colors. The
// zero spec renders as no color.
func (t Theme) levelColor(level LogLevel) ColorSpec {
	switch level {
	case LevelDebug:
		return t.Debug
	case LevelInfo:
		return t.Info
	case LevelSuccess:
		return t.Success
	case LevelWarning:
		return t.Warning
	case LevelError:
		return t.Error
	}
	return ColorSpec{}
}

// writer routes warnings and errors to stderr when configured.
func (l *Logger) writer(level LogLevel) io.Writer {
	if l.errToErr && level >= LevelWarning {
		return l.io.Err()
	}
	return l.io.Out()
}

// emit writes the line plus newline in a single call, assembling it in
// a pooled buffer.
func (l *Logger) emit(w io.Writer, line string) {
	buf := pool.GetBuffer(len(line) + 1)
	b := append(*buf, line...)
	b = append(b, '\n')
	_, _ = w.Write(b)
	*buf = b
	pool.PutBuffer(buf)
}
