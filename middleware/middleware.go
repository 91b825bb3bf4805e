// Package middleware wraps command actions with cross-cutting behavior:
// request logging, panic recovery, execution timeouts, and business-logic
// validation. Chains attach to the root command builder and wrap whichever
// main ends up running.
package middleware

import (
	"time"
)

// The package is defined against small interfaces rather than the concrete
// parser types so that cmdparse can import it without a cycle. *cmdparse.Context
// and *cmdparse.Command satisfy Context and Command below.

// Context is the parse-result view middleware operates on. It is
// implemented by *cmdparse.Context.
//
// Parameter accessors resolve against the merged table of the command
// dispatch stopped at, so options declared on ancestor commands are
// visible through the same lookups as local ones.
type Context interface {
	// Done is closed when the run is canceled or times out.
	Done() <-chan struct{}

	// Cancel stops the run. Calling it more than once is harmless.
	Cancel()

	// Args returns the raw argument vector the parse consumed. The
	// returned slice should be treated as read-only.
	Args() []string

	// Set records metadata for later layers. Namespace keys, as in
	// "logger.request_id", to keep middleware from clobbering each
	// other.
	Set(key string, value any)

	// Get returns metadata recorded with Set, or nil for unknown keys.
	Get(key string) any

	// String reports a parameter's string value. The boolean is true
	// when a value arrived via CLI, environment, or a declared default.
	String(name string) (string, bool)

	// Int reports a parameter's int value and presence.
	Int(name string) (int, bool)

	// Bool reports a flag's value and presence. A tri-state flag that
	// was never provided reports false presence.
	Bool(name string) (bool, bool)

	// Duration reports a parameter's time.Duration value and presence.
	Duration(name string) (time.Duration, bool)

	// Float reports a parameter's float64 value and presence.
	Float(name string) (float64, bool)

	// Strings reports a multi-value parameter's accumulated values.
	// The returned slice should be treated as read-only.
	Strings(name string) ([]string, bool)

	// Ints reports a multi-value parameter's accumulated int values.
	// The returned slice should be treated as read-only.
	Ints(name string) ([]int, bool)

	// Count reports a counter's total, zero when never touched.
	Count(name string) int

	// Command identifies the command being run, for log lines and
	// error messages.
	Command() Command
}

// Command is the subset of the resolved command visible to middleware.
type Command interface {
	Name() string
	Description() string
}

// ActionFunc is the signature middleware wraps: the command's main, or the
// next layer of the chain.
type ActionFunc func(ctx Context) error

// Middleware decorates an ActionFunc with behavior that runs around it.
type Middleware func(next ActionFunc) ActionFunc

// MiddlewareChain is an ordered list of middleware. The zero value is a
// usable empty chain.
type MiddlewareChain []Middleware

// Apply wraps action in every middleware of the chain. The first element
// becomes the outermost layer: it observes the invocation first and the
// result last.
func (chain MiddlewareChain) Apply(action ActionFunc) ActionFunc {
	for i := len(chain) - 1; i >= 0; i-- {
		action = chain[i](action)
	}
	return action
}

// Use returns a new chain with the given middleware appended.
func (chain MiddlewareChain) Use(middleware ...Middleware) MiddlewareChain {
	return append(chain, middleware...)
}

// Chain builds a MiddlewareChain from the given middleware, preserving order.
func Chain(middleware ...Middleware) MiddlewareChain {
	return MiddlewareChain(middleware)
}

// commandName names the current command for log lines and error messages.
func commandName(ctx Context) string {
	if cmd := ctx.Command(); cmd != nil {
		return cmd.Name()
	}
	return "unknown"
}
