package middleware

import (
	"io"
	"os"
	"time"
)

// LogLevel controls how much the Logger middleware reports. Levels are
// cumulative: LogLevelInfo includes errors, LogLevelDebug includes start
// records as well.
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// LogOutput selects the stream the Logger middleware writes to when no
// explicit writer was given.
type LogOutput int

const (
	LogOutputStderr LogOutput = iota
	LogOutputStdout
	LogOutputNone
)

// writer resolves the output to a concrete stream, nil when logging is off.
func (o LogOutput) writer() io.Writer {
	switch o {
	case LogOutputStdout:
		return os.Stdout
	case LogOutputNone:
		return nil
	default:
		return os.Stderr
	}
}

// LogFormat selects between human-readable and structured log records.
type LogFormat int

const (
	LogFormatText LogFormat = iota
	LogFormatJSON
)

// MiddlewareConfig collects the knobs shared by the built-in middleware.
// Constructors start from DefaultConfig and apply MiddlewareOptions on top;
// options a given middleware does not consult are ignored.
type MiddlewareConfig struct {
	LogLevel       LogLevel
	LogOutput      LogOutput
	LogFormat      LogFormat
	IncludeArgs    bool
	PrintStack     bool
	StackSize      int
	DefaultTimeout time.Duration
}

// MiddlewareOption mutates a MiddlewareConfig during construction.
type MiddlewareOption func(config *MiddlewareConfig)

// DefaultConfig returns the baseline configuration: info-level text logging
// to stderr with args included, stack capture on, 30s default timeout.
func DefaultConfig() *MiddlewareConfig {
	return &MiddlewareConfig{
		LogLevel:       LogLevelInfo,
		LogOutput:      LogOutputStderr,
		LogFormat:      LogFormatText,
		IncludeArgs:    true,
		PrintStack:     true,
		StackSize:      4096,
		DefaultTimeout: 30 * time.Second,
	}
}

// newConfig builds a config from the defaults plus the given options.
func newConfig(options []MiddlewareOption) *MiddlewareConfig {
	config := DefaultConfig()
	for _, option := range options {
		option(config)
	}
	return config
}

// WithLogLevel sets the Logger middleware's verbosity.
func WithLogLevel(level LogLevel) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.LogLevel = level
	}
}

// WithLogOutput selects the stream Logger writes to.
func WithLogOutput(output LogOutput) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.LogOutput = output
	}
}

// WithLogFormat switches Logger between text and JSON records.
func WithLogFormat(format LogFormat) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.LogFormat = format
	}
}

// WithTimeout overrides the default timeout consulted by timeout middleware.
func WithTimeout(timeout time.Duration) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.DefaultTimeout = timeout
	}
}

// WithStackTrace toggles stack capture (and the stderr traceback print) in
// the recovery middleware.
func WithStackTrace(enabled bool) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.PrintStack = enabled
	}
}
