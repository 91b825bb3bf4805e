package middleware

import (
	"context"
	"time"
)

// Timeout returns a middleware that bounds command execution at limit. When
// the limit is reached the command's context is canceled and the action
// reports a *TimeoutError; the goroutine running the action is abandoned, so
// actions that should stop promptly must watch ctx.Done.
func Timeout(limit time.Duration) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			return runBounded(ctx, next, limit)
		}
	}
}

// TimeoutPerCommand varies the limit by command name, falling back to
// fallback for commands not present in limits.
func TimeoutPerCommand(limits map[string]time.Duration, fallback time.Duration) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			limit, ok := limits[commandName(ctx)]
			if !ok {
				limit = fallback
			}
			return runBounded(ctx, next, limit)
		}
	}
}

// DynamicTimeout computes the limit at invocation time. A non-positive limit
// runs the action unbounded.
func DynamicTimeout(limit func(ctx Context) time.Duration) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			d := limit(ctx)
			if d <= 0 {
				return next(ctx)
			}
			return runBounded(ctx, next, d)
		}
	}
}

// TimeoutFromParam reads the limit from a duration parameter, which may be
// declared on any ancestor command. When the parameter is absent, fallback
// applies.
func TimeoutFromParam(name string, fallback time.Duration) Middleware {
	return DynamicTimeout(func(ctx Context) time.Duration {
		if d, ok := ctx.Duration(name); ok {
			return d
		}
		return fallback
	})
}

// runBounded runs next on its own goroutine and waits for completion, the
// deadline, or external cancellation, whichever comes first. A panic in the
// action surfaces as a *RecoveryError rather than killing the process.
func runBounded(ctx Context, next ActionFunc, limit time.Duration) error {
	clock, cancel := context.WithTimeout(parentContext(ctx), limit)
	defer cancel()

	result := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- &RecoveryError{Panic: r, Command: commandName(ctx)}
			}
		}()
		result <- next(ctx)
	}()

	select {
	case err := <-result:
		return err
	case <-clock.Done():
		ctx.Cancel()
		return &TimeoutError{Duration: limit, Command: commandName(ctx)}
	case <-ctx.Done():
		return context.Canceled
	}
}

// parentContext recovers the command's context.Context when the concrete
// Context exposes one, so deadlines compose with outer cancellation.
func parentContext(ctx Context) context.Context {
	if c, ok := ctx.(interface{ Context() context.Context }); ok {
		return c.Context()
	}
	return context.Background()
}
