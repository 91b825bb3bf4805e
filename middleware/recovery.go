package middleware

import (
	"fmt"
	"os"
	"runtime"
)

// Recovery returns a middleware that converts panics in downstream work into
// *RecoveryError results instead of crashing the process. With stack capture
// enabled (the default) the traceback is stored on the error and printed to
// stderr.
func Recovery(options ...MiddlewareOption) Middleware {
	config := newConfig(options)
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = recovered(ctx, r, config)
				}
			}()
			return next(ctx)
		}
	}
}

// RecoveryWithHandler is Recovery with a custom panic handler. The handler
// receives the panic value, the command name, and the captured stack (nil
// when capture is disabled), and decides what error the action reports.
func RecoveryWithHandler(
	handler func(panicVal any, command string, stack []byte) error,
	options ...MiddlewareOption,
) Middleware {
	config := newConfig(options)
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var stack []byte
					if config.PrintStack {
						stack = captureStack(config.StackSize)
					}
					err = handler(r, commandName(ctx), stack)
				}
			}()
			return next(ctx)
		}
	}
}

// recovered builds the error for a caught panic and reports the traceback
// when enabled.
func recovered(ctx Context, panicVal any, config *MiddlewareConfig) *RecoveryError {
	rec := &RecoveryError{Panic: panicVal, Command: commandName(ctx)}
	if config.PrintStack {
		rec.Stack = captureStack(config.StackSize)
		fmt.Fprintf(os.Stderr, "PANIC in command '%s': %v\n", rec.Command, panicVal)
		fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", rec.Stack)
	}
	return rec
}

// captureStack snapshots the current goroutine's stack, at most size bytes.
func captureStack(size int) []byte {
	buf := make([]byte, size)
	return buf[:runtime.Stack(buf, false)]
}
