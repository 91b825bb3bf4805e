package cmdparse

import (
	"os"
	"strconv"
	"strings"

	"github.com/google/shlex"
)

// finalize completes a parse after token accumulation: environment
// fallbacks, defaults, arity completion, and the deferred required and
// group checks, in that order. It runs once, against the resolved
// command's merged table.
func finalize(t *CommandTable, store *valueStore, warn func(string, ...any)) *ParseError {
	if warn == nil {
		warn = func(string, ...any) {}
	}
	for _, p := range t.Params {
		if err := applyEnvFallback(p, store, warn); err != nil {
			return err
		}
	}
	if err := checkArity(t, store); err != nil {
		return err
	}
	for _, p := range t.Params {
		if p.HasDefault && !store.hasValue(p) {
			store.setDefault(p)
		}
	}
	if err := checkGroups(t, store); err != nil {
		return err
	}
	return checkRequired(t, store)
}

// applyEnvFallback fills a parameter from its environment variables, in
// declaration order, when the command line did not provide it. A strict
// parameter surfaces the first invalid value as an error; a lenient one
// logs a warning and keeps looking.
func applyEnvFallback(p *Parameter, store *valueStore, warn func(string, ...any)) *ParseError {
	if len(p.EnvVars) == 0 || store.wasInvoked(p) {
		return nil
	}
	if p.Kind == KindSubCommand || p.Kind == KindPassThru {
		return nil
	}
	for _, name := range p.EnvVars {
		raw, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		perr := applyEnvValue(p, raw, store)
		if perr == nil {
			return nil
		}
		if p.StrictEnv {
			return perr
		}
		warn("ignoring invalid value from env var %s for %s: %v", name, p.displayName(), perr)
	}
	return nil
}

// applyEnvValue converts one environment value according to the
// parameter's kind. Boolean kinds use the strict parser; a value that
// merely restates the default records nothing.
func applyEnvValue(p *Parameter, raw string, store *valueStore) *ParseError {
	switch p.Kind { // exhaustive over the env-capable kinds
	case KindFlag, KindActionFlag:
		b, err := ParseStrictBool(raw)
		if err != nil {
			return newBadArgument(p.displayName(), raw, err)
		}
		if c, ok := p.Const.(bool); ok && c == b {
			return store.storeConst(p, false, SourceEnv)
		}
		return nil
	case KindTriFlag:
		b, err := ParseStrictBool(raw)
		if err != nil {
			return newBadArgument(p.displayName(), raw, err)
		}
		if c, ok := p.Const.(bool); ok && c == b {
			return store.storeConst(p, false, SourceEnv)
		}
		return store.storeConst(p, true, SourceEnv)
	case KindCounter:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return newBadArgument(p.displayName(), raw, err)
		}
		return store.addCount(p, n, SourceEnv)
	default:
		if p.Action.appends() {
			parts, err := shlex.Split(raw)
			if err != nil {
				return newBadArgument(p.displayName(), raw, err)
			}
			for _, part := range parts {
				if _, perr := p.convert(part); perr != nil {
					return perr
				}
			}
			for _, part := range parts {
				if perr := store.add(p, part, SourceEnv); perr != nil {
					return perr
				}
			}
			return nil
		}
		return store.add(p, raw, SourceEnv)
	}
}

// checkArity reports positional slots that accumulated some values but
// not enough to satisfy their arity.
func checkArity(t *CommandTable, store *valueStore) *ParseError {
	for _, p := range t.Positionals {
		if p.Kind != KindPositional || p.NArgs.Remainder {
			continue
		}
		if n := store.countOf(p); n > 0 && !p.NArgs.Satisfied(n) {
			return newBadArgCount(p.displayName(), p.NArgs, n)
		}
	}
	return nil
}

// checkGroups enforces the group constraints over what was actually
// provided (command line or environment; defaults do not count).
func checkGroups(t *CommandTable, store *valueStore) *ParseError {
	for _, g := range t.Groups {
		var present, absent []string
		for _, m := range g.Members {
			if store.provided(m) {
				present = append(present, m.displayName())
			} else {
				absent = append(absent, m.displayName())
			}
		}
		switch g.Constraint { // exhaustive over GroupConstraint
		case GroupMutuallyExclusive:
			if len(present) > 1 {
				pe := newParamConflict("mutually exclusive arguments may not be combined: %s",
					strings.Join(present, ", "))
				pe.Group = g.Name
				return pe
			}
		case GroupMutuallyDependent:
			if len(present) > 0 && len(absent) > 0 {
				pe := newParamConflict("mutually dependent arguments: %s must be provided together with %s",
					strings.Join(present, ", "), strings.Join(absent, ", "))
				pe.Group = g.Name
				pe.Missing = absent
				return pe
			}
		}
	}
	return nil
}

// checkRequired aggregates every unsatisfied required parameter into a
// single error. A member of a satisfied mutually exclusive group is
// exempt; the provided member absorbed the requirement. Sub-command
// slots are checked at dispatch time instead.
func checkRequired(t *CommandTable, store *valueStore) *ParseError {
	waived := make(map[*Parameter]bool)
	for _, g := range t.Groups {
		if g.Constraint != GroupMutuallyExclusive {
			continue
		}
		satisfied := false
		for _, m := range g.Members {
			if store.provided(m) {
				satisfied = true
				break
			}
		}
		if satisfied {
			for _, m := range g.Members {
				if !store.provided(m) {
					waived[m] = true
				}
			}
		}
	}

	var missing []string
	hints := make(map[string]string)
	for _, p := range t.Params {
		if !p.Required || p.Kind == KindSubCommand || waived[p] {
			continue
		}
		if store.hasValue(p) {
			continue
		}
		name := p.displayName()
		missing = append(missing, name)
		if hint := p.missingHint(); hint != "" {
			hints[name] = hint
		}
	}
	if len(missing) > 0 {
		return newParamsMissing(missing, hints)
	}
	return nil
}
