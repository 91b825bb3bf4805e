package cmdparse

import (
	"fmt"
	"time"

	parseio "github.com/dskrypa/command-parser/io"
	"github.com/dskrypa/command-parser/middleware"
)

// ActionFunc is the signature shared by command entry points, hooks,
// and action flag callbacks.
type ActionFunc func(*Context) error

// CommandBuilder assembles one command node: its parameters, groups,
// child commands, and execution hooks. Builders are write-only views;
// the assembled hierarchy is retrieved with Build and is immutable once
// parsing starts.
type CommandBuilder struct {
	cmd    *Command
	parent *CommandBuilder
}

// New starts a root command definition.
func New(name, description string, opts ...ConfigOption) *CommandBuilder {
	cmd := newCommand(name, description, nil)
	cmd.config = NewConfig(opts...)
	return &CommandBuilder{cmd: cmd}
}

// ParamBuilder configures one declared parameter. T is the parameter's
// per-value type; P is the scope the builder returns to through Back,
// either a *CommandBuilder or a *GroupBuilder.
type ParamBuilder[T any, P any] struct {
	param    *Parameter
	parent   P
	constSet bool
}

func bindParam[T any, P any](p *Parameter, parent P) *ParamBuilder[T, P] {
	return &ParamBuilder[T, P]{param: p, parent: parent}
}

// Parameter declarations

// StringOption declares a single-value string option.
func (b *CommandBuilder) StringOption(name, description string) *ParamBuilder[string, *CommandBuilder] {
	return bindParam[string](b.declareOption(name, description, StringValue), b)
}

// IntOption declares a single-value integer option.
func (b *CommandBuilder) IntOption(name, description string) *ParamBuilder[int, *CommandBuilder] {
	return bindParam[int](b.declareOption(name, description, IntValue), b)
}

// FloatOption declares a single-value float option.
func (b *CommandBuilder) FloatOption(name, description string) *ParamBuilder[float64, *CommandBuilder] {
	return bindParam[float64](b.declareOption(name, description, Float64Value), b)
}

// DurationOption declares an option parsed with time.ParseDuration.
func (b *CommandBuilder) DurationOption(name, description string) *ParamBuilder[time.Duration, *CommandBuilder] {
	return bindParam[time.Duration](b.declareOption(name, description, DurationValue), b)
}

// TimeOption declares an option parsed as a timestamp in any of the
// common layouts.
func (b *CommandBuilder) TimeOption(name, description string) *ParamBuilder[time.Time, *CommandBuilder] {
	return bindParam[time.Time](b.declareOption(name, description, TimeValue), b)
}

// StringsOption declares a string option that accepts one or more
// values and accumulates across repeats.
func (b *CommandBuilder) StringsOption(name, description string) *ParamBuilder[string, *CommandBuilder] {
	p := b.declareOption(name, description, StringValue)
	p.setNArgs(OneOrMore)
	return bindParam[string](p, b)
}

// Flag declares a boolean flag that stores true when present.
func (b *CommandBuilder) Flag(name, description string) *ParamBuilder[bool, *CommandBuilder] {
	p := newFlag(name)
	p.Description = description
	b.cmd.addParam(p)
	return bindParam[bool](p, b)
}

// TriFlag declares a paired flag with a negating alternate form, by
// default "--name" and "--no-name".
func (b *CommandBuilder) TriFlag(name, description string) *ParamBuilder[bool, *CommandBuilder] {
	p := newTriFlag(name)
	p.Description = description
	b.cmd.addParam(p)
	return bindParam[bool](p, b)
}

// Counter declares a repeatable flag whose value grows with each use
// and may also be given an explicit amount ("-vvv", "-v 3", "-v3").
func (b *CommandBuilder) Counter(name, description string) *ParamBuilder[int, *CommandBuilder] {
	p := newCounter(name)
	p.Description = description
	b.cmd.addParam(p)
	return bindParam[int](p, b)
}

// ActionFlag declares a flag that triggers a callback around the main
// entry point instead of storing a value for it.
func (b *CommandBuilder) ActionFlag(name, description string, callback ActionFunc) *ParamBuilder[bool, *CommandBuilder] {
	p := newActionFlag(name, callback)
	p.Description = description
	b.cmd.addParam(p)
	return bindParam[bool](p, b)
}

// Positional declares a positional argument slot.
func (b *CommandBuilder) Positional(name, description string) *ParamBuilder[string, *CommandBuilder] {
	p := newPositional(name)
	p.Description = description
	b.cmd.addParam(p)
	return bindParam[string](p, b)
}

// PassThru declares the parameter that collects everything after the
// first bare "--" separator, verbatim.
func (b *CommandBuilder) PassThru(name, description string) *ParamBuilder[string, *CommandBuilder] {
	p := newPassThru(name)
	p.Description = description
	b.cmd.addParam(p)
	return bindParam[string](p, b)
}

// SubCommand configures the command's dispatch slot explicitly, for
// renaming it, relaxing Required, or attaching help text. Registering a
// child command creates the slot implicitly when this was never called.
func (b *CommandBuilder) SubCommand(name, description string) *ParamBuilder[string, *CommandBuilder] {
	p := b.cmd.subCommand
	if p == nil {
		p = newSubCommand(name)
		b.cmd.addParam(p)
	} else {
		p.Name = name
	}
	p.Description = description
	return bindParam[string](p, b)
}

// Param attaches a hand-built Parameter for cases the typed
// declarations do not cover, such as custom value functions.
func (b *CommandBuilder) Param(p *Parameter) *CommandBuilder {
	b.cmd.addParam(p)
	return b
}

func (b *CommandBuilder) declareOption(name, description string, fn ValueFunc) *Parameter {
	p := newOption(name)
	p.Description = description
	p.Type = fn
	b.cmd.addParam(p)
	return p
}

// Command hierarchy

// Command registers a child command under a choice string and shifts
// the builder scope to it. Multi-word choice strings match across
// consecutive tokens. Use Parent to return to the enclosing command.
func (b *CommandBuilder) Command(choice, description string) *CommandBuilder {
	child := newCommand(choice, description, b.cmd)
	b.cmd.registerChoice(choice, child)
	return &CommandBuilder{cmd: child, parent: b}
}

// LocalChoice registers a choice string the command handles itself
// instead of dispatching to a child.
func (b *CommandBuilder) LocalChoice(choice string) *CommandBuilder {
	b.cmd.registerChoice(choice, nil)
	return b
}

// Group opens a parameter group scope. Parameters declared through the
// returned builder become members; EndGroup returns here.
func (b *CommandBuilder) Group(name string) *GroupBuilder {
	g := &ParameterGroup{Name: name}
	b.cmd.addGroup(g)
	return &GroupBuilder{group: g, cb: b}
}

// Execution hooks

// Main sets the command's entry point. Children without a main inherit
// the nearest ancestor's.
func (b *CommandBuilder) Main(fn ActionFunc) *CommandBuilder {
	b.cmd.mainFn = fn
	return b
}

// Before sets a hook that runs before main, root first.
func (b *CommandBuilder) Before(fn ActionFunc) *CommandBuilder {
	b.cmd.beforeFn = fn
	return b
}

// After sets a hook that runs after main, leaf first.
func (b *CommandBuilder) After(fn ActionFunc) *CommandBuilder {
	b.cmd.afterFn = fn
	return b
}

// Use appends middleware around the resolved main.
func (b *CommandBuilder) Use(mw ...middleware.Middleware) *CommandBuilder {
	root := b.cmd.Root()
	root.chain = root.chain.Use(mw...)
	return b
}

// Runtime wiring

// WithIO replaces the hierarchy's terminal manager.
func (b *CommandBuilder) WithIO(io *parseio.IOManager) *CommandBuilder {
	b.cmd.Root().io = io
	return b
}

// WithExitCodes replaces the exit code manager used by Run.
func (b *CommandBuilder) WithExitCodes(m *ExitCodeManager) *CommandBuilder {
	b.cmd.Root().exitCodes = m
	return b
}

// WithErrorHandler replaces the handler that decorates and displays
// parse errors.
func (b *CommandBuilder) WithErrorHandler(h *ErrorHandler) *CommandBuilder {
	b.cmd.Root().errHandler = h
	return b
}

// Navigation and finishers

// Parent returns the enclosing command's builder, or the receiver at
// the root.
func (b *CommandBuilder) Parent() *CommandBuilder {
	if b.parent != nil {
		return b.parent
	}
	return b
}

// Build returns the assembled root command.
func (b *CommandBuilder) Build() *Command {
	return b.cmd.Root()
}

// Run builds the hierarchy and runs it against os.Args.
func (b *CommandBuilder) Run() error {
	return b.Build().Run()
}

// RunAndExit builds and runs the command, then terminates the process
// with the mapped exit code.
func (b *CommandBuilder) RunAndExit() {
	b.Build().RunAndExit()
}

// Parse builds the hierarchy and parses args without running callbacks.
func (b *CommandBuilder) Parse(args []string) (*Context, error) {
	return b.Build().Parse(args)
}

// GroupBuilder declares parameters into one constrained group.
type GroupBuilder struct {
	group *ParameterGroup
	cb    *CommandBuilder
}

// MutuallyExclusive allows at most one member to be provided.
func (g *GroupBuilder) MutuallyExclusive() *GroupBuilder {
	g.setConstraint(GroupMutuallyExclusive)
	return g
}

// MutuallyDependent requires all members or none.
func (g *GroupBuilder) MutuallyDependent() *GroupBuilder {
	g.setConstraint(GroupMutuallyDependent)
	return g
}

// setConstraint records the group's constraint. A group may carry only
// one; declaring both flavors is a definition error surfaced at table
// build.
func (g *GroupBuilder) setConstraint(c GroupConstraint) {
	if g.group.Constraint != GroupNone && g.group.Constraint != c && g.group.defErr == nil {
		pe := NewParseError(ErrorParameterDefinition, fmt.Sprintf(
			"group %q may not be both mutually exclusive and mutually dependent", g.group.Name))
		pe.Group = g.group.Name
		g.group.defErr = pe
	}
	g.group.Constraint = c
}

// Description sets the group's help text.
func (g *GroupBuilder) Description(description string) *GroupBuilder {
	g.group.Description = description
	return g
}

// StringOption declares a string option as a group member.
func (g *GroupBuilder) StringOption(name, description string) *ParamBuilder[string, *GroupBuilder] {
	p := g.cb.declareOption(name, description, StringValue)
	g.group.add(p)
	return bindParam[string](p, g)
}

// IntOption declares an integer option as a group member.
func (g *GroupBuilder) IntOption(name, description string) *ParamBuilder[int, *GroupBuilder] {
	p := g.cb.declareOption(name, description, IntValue)
	g.group.add(p)
	return bindParam[int](p, g)
}

// FloatOption declares a float option as a group member.
func (g *GroupBuilder) FloatOption(name, description string) *ParamBuilder[float64, *GroupBuilder] {
	p := g.cb.declareOption(name, description, Float64Value)
	g.group.add(p)
	return bindParam[float64](p, g)
}

// DurationOption declares a duration option as a group member.
func (g *GroupBuilder) DurationOption(name, description string) *ParamBuilder[time.Duration, *GroupBuilder] {
	p := g.cb.declareOption(name, description, DurationValue)
	g.group.add(p)
	return bindParam[time.Duration](p, g)
}

// Flag declares a boolean flag as a group member.
func (g *GroupBuilder) Flag(name, description string) *ParamBuilder[bool, *GroupBuilder] {
	p := newFlag(name)
	p.Description = description
	g.cb.cmd.addParam(p)
	g.group.add(p)
	return bindParam[bool](p, g)
}

// TriFlag declares a paired flag as a group member.
func (g *GroupBuilder) TriFlag(name, description string) *ParamBuilder[bool, *GroupBuilder] {
	p := newTriFlag(name)
	p.Description = description
	g.cb.cmd.addParam(p)
	g.group.add(p)
	return bindParam[bool](p, g)
}

// Counter declares a counter as a group member.
func (g *GroupBuilder) Counter(name, description string) *ParamBuilder[int, *GroupBuilder] {
	p := newCounter(name)
	p.Description = description
	g.cb.cmd.addParam(p)
	g.group.add(p)
	return bindParam[int](p, g)
}

// EndGroup closes the group scope.
func (g *GroupBuilder) EndGroup() *CommandBuilder {
	return g.cb
}

// Parameter modifiers

// Short adds a single-character short form ("-x").
func (p *ParamBuilder[T, P]) Short(short rune) *ParamBuilder[T, P] {
	p.param.ShortForms = append(p.param.ShortForms, "-"+string(short))
	return p
}

// Long replaces the derived long forms with explicit spellings, given
// in canonical "--name" form.
func (p *ParamBuilder[T, P]) Long(forms ...string) *ParamBuilder[T, P] {
	p.param.LongForms = forms
	return p
}

// AltShort adds a short form for a TriFlag's alternate constant.
func (p *ParamBuilder[T, P]) AltShort(short rune) *ParamBuilder[T, P] {
	p.param.AltShortForms = append(p.param.AltShortForms, "-"+string(short))
	return p
}

// AltLong replaces a TriFlag's derived alternate long forms.
func (p *ParamBuilder[T, P]) AltLong(forms ...string) *ParamBuilder[T, P] {
	p.param.AltLongForms = forms
	return p
}

// AltPrefix changes the prefix used to derive a TriFlag's alternate
// long forms from "no" to something else.
func (p *ParamBuilder[T, P]) AltPrefix(prefix string) *ParamBuilder[T, P] {
	p.param.altPrefix = prefix
	return p
}

// Default sets the value used when the parameter is never provided.
// For a flag this also flips the stored constant to the default's
// negation, unless Const set one explicitly.
func (p *ParamBuilder[T, P]) Default(value T) *ParamBuilder[T, P] {
	p.param.Default = value
	p.param.HasDefault = true
	if (p.param.Kind == KindFlag || p.param.Kind == KindActionFlag) && !p.constSet {
		if bv, ok := any(value).(bool); ok {
			p.param.Const = !bv
		}
	}
	return p
}

// Defaults sets a slice default for accumulating parameters.
func (p *ParamBuilder[T, P]) Defaults(values ...T) *ParamBuilder[T, P] {
	p.param.Default = values
	p.param.HasDefault = true
	return p
}

// Const sets the constant stored when a flag is present, or a counter's
// per-use increment.
func (p *ParamBuilder[T, P]) Const(value T) *ParamBuilder[T, P] {
	p.param.Const = value
	p.constSet = true
	return p
}

// AltConst sets the constant stored by a TriFlag's alternate forms.
func (p *ParamBuilder[T, P]) AltConst(value T) *ParamBuilder[T, P] {
	p.param.AltConst = value
	return p
}

// Required marks the parameter as required.
func (p *ParamBuilder[T, P]) Required() *ParamBuilder[T, P] {
	p.param.Required = true
	return p
}

// Optional clears the required marking positionals and sub-command
// slots carry by default.
func (p *ParamBuilder[T, P]) Optional() *ParamBuilder[T, P] {
	p.param.Required = false
	return p
}

// Hidden hides the parameter from usage and help output.
func (p *ParamBuilder[T, P]) Hidden() *ParamBuilder[T, P] {
	p.param.Hidden = true
	return p
}

// MetaVar overrides the value placeholder shown in usage text.
func (p *ParamBuilder[T, P]) MetaVar(metaVar string) *ParamBuilder[T, P] {
	p.param.MetaVar = metaVar
	return p
}

// NArgs sets how many values the parameter consumes. Widening the
// arity switches a store parameter to accumulation unless an action
// was chosen explicitly.
func (p *ParamBuilder[T, P]) NArgs(arity NArgs) *ParamBuilder[T, P] {
	p.param.setNArgs(arity)
	return p
}

// Choices restricts accepted values to a fixed set.
func (p *ParamBuilder[T, P]) Choices(values ...string) *ParamBuilder[T, P] {
	p.param.Choices = values
	p.param.choicesSet = true
	return p
}

// FromEnv names environment variables consulted, in order, when the
// parameter is absent from the command line.
func (p *ParamBuilder[T, P]) FromEnv(envVars ...string) *ParamBuilder[T, P] {
	p.param.EnvVars = envVars
	return p
}

// LenientEnv downgrades malformed environment values from errors to
// warnings, moving on to the next configured variable.
func (p *ParamBuilder[T, P]) LenientEnv() *ParamBuilder[T, P] {
	p.param.StrictEnv = false
	return p
}

// LeadingDash sets the policy for dash-prefixed value tokens.
func (p *ParamBuilder[T, P]) LeadingDash(policy DashPolicy) *ParamBuilder[T, P] {
	p.param.LeadingDash = policy
	return p
}

// NotCombinable excludes a flag's short form from "-abc" clusters.
func (p *ParamBuilder[T, P]) NotCombinable() *ParamBuilder[T, P] {
	p.param.Combinable = false
	return p
}

// Validate adds a typed check applied to each converted value.
func (p *ParamBuilder[T, P]) Validate(fn func(T) error) *ParamBuilder[T, P] {
	p.param.AddValidator(func(value any) error {
		typed, ok := value.(T)
		if !ok {
			return fmt.Errorf("unexpected value type %T", value)
		}
		return fn(typed)
	})
	return p
}

// Order sets an action flag's callback ordering; lower runs first.
func (p *ParamBuilder[T, P]) Order(order int) *ParamBuilder[T, P] {
	p.param.Order = order
	return p
}

// RunAfter schedules an action flag's callback after main instead of
// before it.
func (p *ParamBuilder[T, P]) RunAfter() *ParamBuilder[T, P] {
	p.param.Before = false
	return p
}

// AlwaysAvailable lets an action flag short-circuit parsing the way
// --help does: when invoked, validation is skipped and main never runs.
func (p *ParamBuilder[T, P]) AlwaysAvailable() *ParamBuilder[T, P] {
	p.param.AlwaysAvailable = true
	return p
}

// Back returns to the enclosing declaration scope.
func (p *ParamBuilder[T, P]) Back() P {
	return p.parent
}
