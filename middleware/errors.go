package middleware

import (
	"fmt"
	"time"
)

// ValidationError reports a business-logic validation failure. The exit code
// manager maps it to the validation exit code, so validators should return it
// (or something wrapping it) rather than a plain error.
type ValidationError struct {
	Field   string
	Value   any
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *ValidationError) Unwrap() error { return e.Cause }

// TimeoutError reports that a command exceeded its execution time limit.
type TimeoutError struct {
	Duration time.Duration
	Command  string
}

func (e *TimeoutError) Error() string {
	return "command '" + e.Command + "' timed out after " + e.Duration.String()
}

// RecoveryError wraps a panic caught during command execution. Stack holds
// the captured traceback when stack capture was enabled.
type RecoveryError struct {
	Panic   any
	Command string
	Stack   []byte
}

func (e *RecoveryError) Error() string {
	return "command '" + e.Command + "' panicked: " + panicText(e.Panic)
}

// panicText renders a recovered panic value for messages.
func panicText(v any) string {
	switch t := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return t
	case error:
		return t.Error()
	default:
		return fmt.Sprintf("%v", t)
	}
}
