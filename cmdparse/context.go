package cmdparse

import (
	"context"
	stdio "io"
	"time"

	parseio "github.com/dskrypa/command-parser/io"
	"github.com/dskrypa/command-parser/middleware"
)

// Context is the read-only view of one completed parse: the resolved
// command, every accumulated value, and the lifecycle controls handed
// to callbacks and middleware.
type Context struct {
	root    *Command
	command *Command
	table   *CommandTable
	store   *valueStore
	args    []string

	ctx      context.Context
	cancel   context.CancelFunc
	parent   *Context
	metadata map[string]any
}

// Context returns the underlying Go context for cancellation and
// deadlines.
func (c *Context) Context() context.Context {
	return c.ctx
}

// WithContext returns a copy bound to a different Go context.
func (c *Context) WithContext(ctx context.Context) *Context {
	clone := *c
	clone.ctx = ctx
	clone.parent = c
	return &clone
}

// Deadline reports the context deadline, if any.
func (c *Context) Deadline() (time.Time, bool) {
	return c.ctx.Deadline()
}

// Done returns a channel closed when the parse's context is canceled.
func (c *Context) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Err returns the context error after Done is closed.
func (c *Context) Err() error {
	return c.ctx.Err()
}

// Value returns the Go-context value for key.
func (c *Context) Value(key any) any {
	return c.ctx.Value(key)
}

// Cancel cancels the parse's context.
func (c *Context) Cancel() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Parent returns the context this one was derived from.
func (c *Context) Parent() *Context {
	return c.parent
}

// Set stores a key/value pair in the context metadata.
func (c *Context) Set(key string, value any) {
	if c.metadata == nil {
		c.metadata = make(map[string]any)
	}
	c.metadata[key] = value
}

// Get retrieves a value stored via Set.
func (c *Context) Get(key string) any {
	if c.metadata == nil {
		return nil
	}
	return c.metadata[key]
}

// Exit helpers integrate with the ExitCodeManager. They record an exit
// request in the metadata and cancel the context; Run applies the
// mapping at the end.

func (c *Context) Exit(code int) {
	c.Set(exitMetadataKey, &ExitError{Code: code})
	c.Cancel()
}

func (c *Context) ExitWithError(err error, code int) {
	c.Set(exitMetadataKey, &ExitError{Code: code, Err: err})
	c.Cancel()
}

func (c *Context) ExitOnError(err error) {
	if err == nil {
		return
	}
	c.ExitWithError(err, c.root.ExitCodes().resolve(err))
}

// ExitNamed exits with the code registered under name via
// ExitCodeManager.Define.
func (c *Context) ExitNamed(name string) {
	c.Exit(c.root.ExitCodes().Named(name))
}

// Stream accessors delegate to the root command's IO manager.

func (c *Context) IO() *parseio.IOManager { return c.root.IO() }
func (c *Context) Stdout() stdio.Writer   { return c.root.IO().Out() }
func (c *Context) Stderr() stdio.Writer   { return c.root.IO().Err() }
func (c *Context) Stdin() stdio.Reader    { return c.root.IO().In() }

// Command returns the resolved command (the deepest one dispatch
// reached), through the interface middleware depends on.
func (c *Context) Command() middleware.Command {
	return c.command
}

// Resolved returns the resolved command with its full API.
func (c *Context) Resolved() *Command {
	return c.command
}

// Root returns the command Parse was invoked on.
func (c *Context) Root() *Command {
	return c.root
}

// Path returns the space-joined path of the resolved command.
func (c *Context) Path() string {
	return c.command.Path()
}

// Args returns the raw argument vector the parse consumed.
func (c *Context) Args() []string {
	return c.args
}

// lookup finds the parameter behind a name in the resolved table.
func (c *Context) lookup(name string) (*Parameter, bool) {
	return c.table.ParamByName(name)
}

// ValueOf returns the raw stored value for a parameter name.
func (c *Context) ValueOf(name string) (any, bool) {
	p, ok := c.lookup(name)
	if !ok {
		return nil, false
	}
	return c.store.valueOf(p)
}

// Provided reports whether the parameter's value came from the command
// line or the environment rather than a default.
func (c *Context) Provided(name string) bool {
	p, ok := c.lookup(name)
	return ok && c.store.provided(p)
}

// Invoked reports whether the parameter appeared on the command line.
func (c *Context) Invoked(name string) bool {
	p, ok := c.lookup(name)
	return ok && c.store.wasInvoked(p)
}

// Source reports where the parameter's value came from.
func (c *Context) Source(name string) ValueSource {
	p, ok := c.lookup(name)
	if !ok {
		return SourceDefault
	}
	return c.store.sourceOf(p)
}

// NumProvided returns how many values accumulated for a parameter.
func (c *Context) NumProvided(name string) int {
	p, ok := c.lookup(name)
	if !ok {
		return 0
	}
	return c.store.countOf(p)
}

// Typed accessors. Each returns the zero value and false when the
// parameter is absent or holds a different type.

// String retrieves a string value (safe access).
func (c *Context) String(name string) (string, bool) {
	v, ok := c.ValueOf(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// MustString retrieves a string value with a default fallback.
func (c *Context) MustString(name, defaultValue string) string {
	if s, ok := c.String(name); ok {
		return s
	}
	return defaultValue
}

// Int retrieves an int value (safe access).
func (c *Context) Int(name string) (int, bool) {
	v, ok := c.ValueOf(name)
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

// MustInt retrieves an int value with a default fallback.
func (c *Context) MustInt(name string, defaultValue int) int {
	if n, ok := c.Int(name); ok {
		return n
	}
	return defaultValue
}

// Bool retrieves a bool value (safe access). A tri-state flag that was
// never provided reports false presence.
func (c *Context) Bool(name string) (bool, bool) {
	v, ok := c.ValueOf(name)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// MustBool retrieves a bool value with a default fallback.
func (c *Context) MustBool(name string, defaultValue bool) bool {
	if b, ok := c.Bool(name); ok {
		return b
	}
	return defaultValue
}

// TriState returns nil when a tri-state flag was never provided, and a
// pointer to its resolved value otherwise.
func (c *Context) TriState(name string) *bool {
	v, ok := c.ValueOf(name)
	if !ok {
		return nil
	}
	if b, ok := v.(bool); ok {
		return &b
	}
	return nil
}

// Count returns a counter's accumulated total, zero when untouched.
func (c *Context) Count(name string) int {
	n, _ := c.Int(name)
	return n
}

// Float retrieves a float64 value (safe access).
func (c *Context) Float(name string) (float64, bool) {
	v, ok := c.ValueOf(name)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// MustFloat retrieves a float64 value with a default fallback.
func (c *Context) MustFloat(name string, defaultValue float64) float64 {
	if f, ok := c.Float(name); ok {
		return f
	}
	return defaultValue
}

// Duration retrieves a time.Duration value (safe access).
func (c *Context) Duration(name string) (time.Duration, bool) {
	v, ok := c.ValueOf(name)
	if !ok {
		return 0, false
	}
	d, ok := v.(time.Duration)
	return d, ok
}

// MustDuration retrieves a duration value with a default fallback.
func (c *Context) MustDuration(name string, defaultValue time.Duration) time.Duration {
	if d, ok := c.Duration(name); ok {
		return d
	}
	return defaultValue
}

// Time retrieves a time.Time value (safe access).
func (c *Context) Time(name string) (time.Time, bool) {
	v, ok := c.ValueOf(name)
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// Strings retrieves an accumulated []string value (safe access).
func (c *Context) Strings(name string) ([]string, bool) {
	v, ok := c.ValueOf(name)
	if !ok {
		return nil, false
	}
	switch vals := v.(type) {
	case []string:
		return vals, true
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case string:
		return []string{vals}, true
	default:
		return nil, false
	}
}

// MustStrings retrieves a []string value with a default fallback.
func (c *Context) MustStrings(name string, defaultValue []string) []string {
	if vals, ok := c.Strings(name); ok {
		return vals
	}
	return defaultValue
}

// Ints retrieves an accumulated []int value (safe access).
func (c *Context) Ints(name string) ([]int, bool) {
	v, ok := c.ValueOf(name)
	if !ok {
		return nil, false
	}
	switch vals := v.(type) {
	case []int:
		return vals, true
	case []any:
		out := make([]int, 0, len(vals))
		for _, item := range vals {
			n, ok := item.(int)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	case int:
		return []int{vals}, true
	default:
		return nil, false
	}
}

// ToMap renders every parameter with a value into a name-keyed map.
func (c *Context) ToMap() map[string]any {
	out := make(map[string]any, len(c.table.Params))
	for _, p := range c.table.Params {
		if v, ok := c.store.valueOf(p); ok {
			out[p.Name] = v
		}
	}
	return out
}

const exitMetadataKey = "__exit_error__"
