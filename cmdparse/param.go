package cmdparse

import (
	"fmt"
	"strings"
)

// ParamKind identifies the declared behavior of a parameter.
type ParamKind uint8

const (
	KindPositional ParamKind = iota
	KindOption
	KindFlag
	KindTriFlag
	KindCounter
	KindActionFlag
	KindPassThru
	KindSubCommand

	kindCount
)

// String returns the kind name used in error messages and usage text.
func (k ParamKind) String() string {
	switch k { // exhaustive over ParamKind
	case KindPositional:
		return "Positional"
	case KindOption:
		return "Option"
	case KindFlag:
		return "Flag"
	case KindTriFlag:
		return "TriFlag"
	case KindCounter:
		return "Counter"
	case KindActionFlag:
		return "ActionFlag"
	case KindPassThru:
		return "PassThru"
	case KindSubCommand:
		return "SubCommand"
	default:
		return "Unknown"
	}
}

// flagLike reports whether the kind consumes zero positional values and
// may participate in combined short clusters.
func (k ParamKind) flagLike() bool {
	switch k {
	case KindFlag, KindTriFlag, KindCounter, KindActionFlag:
		return true
	case KindPositional, KindOption, KindPassThru, KindSubCommand:
		return false
	default:
		return false
	}
}

// positionalLike reports whether the kind fills positional slots.
func (k ParamKind) positionalLike() bool {
	return k == KindPositional || k == KindSubCommand
}

// recognized reports whether the kind is one of the closed set. Values
// outside it come from hand-built Parameter structs and are rejected at
// table-build time.
func (k ParamKind) recognized() bool {
	return k < kindCount
}

// DashPolicy governs whether a dash-prefixed token may be consumed as a
// value for a parameter instead of being treated as an option string.
type DashPolicy uint8

const (
	// DashNumeric accepts dash-prefixed tokens that parse as numbers
	// (-2, -1.5). This is the default for options and positionals.
	DashNumeric DashPolicy = iota
	// DashNever treats every dash-prefixed token as an option string.
	DashNever
	// DashAlways accepts any dash-prefixed token except the bare
	// pass-thru marker.
	DashAlways
)

// String returns the policy name.
func (d DashPolicy) String() string {
	switch d {
	case DashNumeric:
		return "numeric"
	case DashNever:
		return "never"
	case DashAlways:
		return "always"
	default:
		return "unknown"
	}
}

// ValueFunc converts one raw token into a parameter's final value type.
type ValueFunc func(raw string) (any, error)

// Parameter is one declared argument: the unit the table builder merges,
// the matcher routes tokens to, and the store accumulates values for.
// Parameters hold no parsed state; all per-parse data lives in the
// Context's value store.
type Parameter struct {
	Name        string
	Kind        ParamKind
	Description string
	MetaVar     string

	// Accepted spellings, canonical form with dashes ("--name", "-n").
	// Alt forms are the negating spellings of a TriFlag.
	LongForms     []string
	ShortForms    []string
	AltLongForms  []string
	AltShortForms []string

	NArgs    NArgs
	Action   Action
	Required bool
	Hidden   bool

	Default    any
	HasDefault bool
	Const      any
	AltConst   any

	Choices []string
	Type    ValueFunc

	EnvVars   []string
	StrictEnv bool

	LeadingDash DashPolicy
	Combinable  bool

	Group *ParameterGroup

	// ActionFlag callback scheduling. An always-available flag short
	// circuits parsing when invoked: validation is skipped and main
	// never runs, the way --help behaves.
	Callback        func(*Context) error
	Before          bool
	Order           int
	AlwaysAvailable bool

	validators []func(any) error
	actionSet  bool // action was set explicitly; stop deriving it from arity
	choicesSet bool
	altPrefix  string // TriFlag long-form negation prefix, default "no"
	defErr     *ParseError
}

// Parameter constructors. Builders call these, then mutate through the
// fluent setters; definition violations are recorded on the parameter
// and surface at first table build.

func newParameter(kind ParamKind, name string) *Parameter {
	return &Parameter{
		Name:      name,
		Kind:      kind,
		StrictEnv: true,
	}
}

func newOption(name string) *Parameter {
	p := newParameter(KindOption, name)
	p.NArgs = OneValue
	p.Action = ActionStore
	p.Type = StringValue
	return p
}

func newFlag(name string) *Parameter {
	p := newParameter(KindFlag, name)
	p.NArgs = Exactly(0)
	p.Action = ActionStoreConst
	p.Default = false
	p.HasDefault = true
	p.Const = true
	p.Combinable = true
	return p
}

func newTriFlag(name string) *Parameter {
	p := newParameter(KindTriFlag, name)
	p.NArgs = Exactly(0)
	p.Action = ActionStoreConst
	p.Const = true
	p.AltConst = false
	p.Combinable = true
	p.altPrefix = "no"
	return p
}

func newCounter(name string) *Parameter {
	p := newParameter(KindCounter, name)
	p.NArgs = ZeroOrOne
	p.Action = ActionStore
	p.Type = IntValue
	p.Default = 0
	p.HasDefault = true
	p.Const = 1
	p.Combinable = true
	return p
}

func newActionFlag(name string, callback func(*Context) error) *Parameter {
	p := newFlag(name)
	p.Kind = KindActionFlag
	p.Callback = callback
	p.Before = true
	return p
}

func newPassThru(name string) *Parameter {
	p := newParameter(KindPassThru, name)
	p.NArgs = RemainderArgs
	p.Action = ActionStoreAll
	return p
}

func newPositional(name string) *Parameter {
	p := newParameter(KindPositional, name)
	p.NArgs = OneValue
	p.Action = ActionStore
	p.Type = StringValue
	p.Required = true
	return p
}

func newSubCommand(name string) *Parameter {
	p := newParameter(KindSubCommand, name)
	p.NArgs = OneValue
	p.Action = ActionStore
	p.Required = true
	return p
}

// setNArgs updates the arity and, unless an action was set explicitly,
// re-derives the accumulation action the same way the kind constructors
// do: store for a single value, append for anything wider.
func (p *Parameter) setNArgs(arity NArgs) {
	p.NArgs = arity
	if p.actionSet || p.Kind.flagLike() || p.Kind == KindPassThru {
		return
	}
	if arity.Fixed() && arity.Min == 1 {
		p.Action = ActionStore
	} else {
		p.Action = ActionAppend
	}
}

// recordDefError keeps the first definition violation.
func (p *Parameter) recordDefError(format string, args ...any) {
	if p.defErr == nil {
		p.defErr = newParameterDefinitionError(p.Name, format, args...)
	}
}

// validate checks the kind-specific declaration rules. It runs during
// table building so that malformed declarations surface at first use.
func (p *Parameter) validate() *ParseError {
	if p.defErr != nil {
		return p.defErr
	}
	if !p.Kind.recognized() {
		return newCommandDefinitionError("", "custom parameters must extend a recognized parameter kind (got %d for %s)", p.Kind, p.Name)
	}
	if p.Name == "" {
		return newParameterDefinitionError("", "%s parameters require a name", p.Kind)
	}
	if !p.Action.registered() {
		return newParameterDefinitionError(p.Name, "unregistered action: %d", p.Action)
	}
	if !p.NArgs.normalized() {
		return newParameterDefinitionError(p.Name, "invalid nargs=%s", p.NArgs)
	}
	if p.choicesSet && len(p.Choices) == 0 {
		return newParameterDefinitionError(p.Name, "choices cannot be empty")
	}

	switch p.Kind { // exhaustive over ParamKind
	case KindOption:
		if p.NArgs.Min == 0 {
			return newParameterDefinitionError(p.Name, "nargs=%s allows zero values; use a flag or counter instead", p.NArgs)
		}
		if p.Action.constant() || p.Action == ActionStoreAll {
			return newParameterDefinitionError(p.Name, "action=%s is not supported for options", p.Action)
		}
		if p.Action == ActionStore && !(p.NArgs.Fixed() && p.NArgs.Min == 1) {
			return newParameterDefinitionError(p.Name, "action=store requires nargs=1, not nargs=%s", p.NArgs)
		}
	case KindFlag, KindActionFlag:
		if _, ok := p.Const.(bool); !ok {
			return newParameterDefinitionError(p.Name, "flag constants must be booleans, got %T", p.Const)
		}
	case KindTriFlag:
		if p.Const == p.AltConst {
			return newParameterDefinitionError(p.Name, "primary and alternate constants must differ")
		}
		if len(p.AltLongForms) == 0 && len(p.AltShortForms) == 0 {
			return newParameterDefinitionError(p.Name, "no alternate spelling could be derived")
		}
	case KindCounter:
		if _, ok := p.Const.(int); !ok {
			return newParameterDefinitionError(p.Name, "counter constants must be ints, got %T", p.Const)
		}
	case KindPassThru:
		if p.Action != ActionStoreAll {
			return newParameterDefinitionError(p.Name, "pass thru parameters require action=store_all")
		}
	case KindPositional:
		if p.HasDefault && p.Required {
			return newParameterDefinitionError(p.Name, "defaults are not supported for required positionals")
		}
		if p.Action == ActionStore && !(p.NArgs.Fixed() && p.NArgs.Min == 1) {
			return newParameterDefinitionError(p.Name, "action=store requires nargs=1, not nargs=%s", p.NArgs)
		}
	case KindSubCommand:
		// Choice registration is checked against the merged table.
	}

	for _, spelling := range p.LongForms {
		if err := validateLongForm(p.Name, spelling); err != nil {
			return err
		}
	}
	for _, spelling := range p.AltLongForms {
		if err := validateLongForm(p.Name, spelling); err != nil {
			return err
		}
	}
	for _, spelling := range append(append([]string{}, p.ShortForms...), p.AltShortForms...) {
		if err := validateShortForm(p.Name, spelling); err != nil {
			return err
		}
	}
	return nil
}

func validateLongForm(param, spelling string) *ParseError {
	switch {
	case !strings.HasPrefix(spelling, "--") || len(spelling) < 3:
		return newParameterDefinitionError(param, "invalid long option string: %q", spelling)
	case strings.HasPrefix(spelling, "---"):
		return newParameterDefinitionError(param, "long option strings may not begin with three dashes: %q", spelling)
	case strings.ContainsAny(spelling, "= \t"):
		return newParameterDefinitionError(param, "long option strings may not contain '=' or whitespace: %q", spelling)
	}
	return nil
}

func validateShortForm(param, spelling string) *ParseError {
	if len(spelling) != 2 || spelling[0] != '-' || spelling[1] == '-' {
		return newParameterDefinitionError(param, "invalid short option string: %q", spelling)
	}
	return nil
}

// Spelling helpers

// optionStrings returns every accepted spelling in display order:
// long forms, alternate long forms, short forms, alternate short forms.
func (p *Parameter) optionStrings() []string {
	out := make([]string, 0, len(p.LongForms)+len(p.AltLongForms)+len(p.ShortForms)+len(p.AltShortForms))
	out = append(out, p.LongForms...)
	out = append(out, p.AltLongForms...)
	out = append(out, p.ShortForms...)
	out = append(out, p.AltShortForms...)
	return out
}

// isAltForm reports whether the spelling selects a TriFlag's alternate
// constant.
func (p *Parameter) isAltForm(spelling string) bool {
	for _, alt := range p.AltLongForms {
		if alt == spelling {
			return true
		}
	}
	for _, alt := range p.AltShortForms {
		if alt == spelling {
			return true
		}
	}
	return false
}

// acceptsInlineValue reports whether "-n5" style attachment is valid for
// the parameter's short form.
func (p *Parameter) acceptsInlineValue() bool {
	return p.Kind == KindOption || p.Kind == KindCounter
}

// acceptsValues reports whether the parameter consumes value tokens at
// all (flag-like kinds never do outside of "=" or inline attachment).
func (p *Parameter) acceptsValues() bool {
	return !p.Kind.flagLike()
}

// displayName returns the spelling used in error messages: the primary
// long form, falling back to the first short form, then the bare name.
func (p *Parameter) displayName() string {
	if len(p.LongForms) > 0 {
		return p.LongForms[0]
	}
	if len(p.ShortForms) > 0 {
		return p.ShortForms[0]
	}
	return p.Name
}

// missingHint returns extra context appended to missing-argument errors.
func (p *Parameter) missingHint() string {
	if p.Kind == KindPassThru {
		return "(missing pass thru args separated from others with '--')"
	}
	return ""
}

// metaVar returns the placeholder shown in usage text.
func (p *Parameter) metaVar() string {
	if p.MetaVar != "" {
		return p.MetaVar
	}
	return strings.ToUpper(strings.ReplaceAll(p.Name, "-", "_"))
}

// AddValidator appends a post-conversion validation hook. Hooks see the
// converted value and run in registration order; the builder's Validate
// method is the typed front end for this.
func (p *Parameter) AddValidator(fn func(any) error) {
	p.validators = append(p.validators, fn)
}

// convert applies the type function, choice restriction, and validators
// to one raw token.
func (p *Parameter) convert(raw string) (any, *ParseError) {
	var value any = raw
	if p.Type != nil {
		converted, err := p.Type(raw)
		if err != nil {
			return nil, newBadArgument(p.displayName(), raw, err)
		}
		value = converted
	}
	if len(p.Choices) > 0 {
		rendered := fmt.Sprint(value)
		if !containsString(p.Choices, rendered) {
			return nil, newInvalidChoice(p.displayName(), rendered, p.Choices)
		}
	}
	for _, check := range p.validators {
		if err := check(value); err != nil {
			return nil, newBadArgument(p.displayName(), raw, err)
		}
	}
	return value, nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
