package cmdparse

import (
	"strconv"
	"strings"
)

// matcher drives the accumulation phase for one command table. It
// classifies raw tokens in priority order, routes values into the
// shared store, and stops early when a sub-command choice hands the
// remaining stream to a child command.
type matcher struct {
	table  *CommandTable
	store  *valueStore
	stream *tokenStream
	posIdx int
}

func newMatcher(t *CommandTable, store *valueStore, stream *tokenStream) *matcher {
	m := &matcher{table: t, store: store, stream: stream}
	m.skipFilled()
	return m
}

// skipFilled advances past positional slots that an ancestor dispatch
// already satisfied, so a child table resumes at its own slots.
func (m *matcher) skipFilled() {
	for m.posIdx < len(m.table.Positionals) {
		p := m.table.Positionals[m.posIdx]
		n := m.store.countOf(p)
		if n == 0 {
			return
		}
		if p.Kind != KindSubCommand && !p.NArgs.Satisfied(n) {
			return
		}
		m.posIdx++
	}
}

// run processes tokens until the stream is exhausted or a sub-command
// dispatch occurs. A non-nil command result is the child the remaining
// stream belongs to.
func (m *matcher) run() (*Command, *ParseError) {
	for {
		tok, ok := m.stream.next()
		if !ok {
			return nil, nil
		}
		switch v := m.classify(tok).(type) {
		case passThruMark:
			if m.table.PassThru == nil {
				return nil, newUsageError("unexpected pass-thru separator %q (no pass-thru parameter is defined)", tok)
			}
			if err := m.store.storeAll(m.table.PassThru, m.stream.drain()); err != nil {
				return nil, err
			}
		case optionMatch:
			if err := m.applyOption(v); err != nil {
				return nil, err
			}
		case clusterMatch:
			for _, om := range v.parts {
				if err := m.applyOption(om); err != nil {
					return nil, err
				}
			}
		case plainValue:
			child, err := m.routeValue(v.raw)
			if err != nil {
				return nil, err
			}
			if child != nil {
				return child, nil
			}
		case unknownOption:
			child, err := m.routeUnknown(v.raw)
			if err != nil {
				return nil, err
			}
			if child != nil {
				return child, nil
			}
		}
	}
}

// classify maps one raw token to its meaning under the current table.
// Registered option spellings always win over value interpretations;
// dash-prefixed tokens that match nothing are reported as unknown so
// the routing layer can decide between leading-dash values and
// NoSuchOption.
func (m *matcher) classify(tok string) classified {
	if tok == "--" {
		return passThruMark{}
	}
	if looksLikeLong(tok) {
		name, val, has := splitInline(tok)
		if p, ok := m.table.Lookup(name); ok {
			return optionMatch{param: p, spelling: name, inline: val, hasInline: has, alt: p.isAltForm(name)}
		}
		return unknownOption{raw: tok}
	}
	if looksLikeShort(tok) {
		if p, ok := m.table.Lookup(tok); ok {
			return optionMatch{param: p, spelling: tok, alt: p.isAltForm(tok)}
		}
		if name, val, has := splitInline(tok); has {
			if p, ok := m.table.Lookup(name); ok {
				return optionMatch{param: p, spelling: name, inline: val, hasInline: has, alt: p.isAltForm(name)}
			}
		}
		if parts := m.clusterParts(tok); parts != nil {
			return clusterMatch{raw: tok, parts: parts}
		}
		if p, ok := m.table.Lookup(tok[:2]); ok && p.acceptsInlineValue() {
			return optionMatch{param: p, spelling: tok[:2], inline: tok[2:], hasInline: true}
		}
		return unknownOption{raw: tok}
	}
	return plainValue{raw: tok}
}

// clusterParts resolves "-abc" into per-character option matches when
// every character maps to a combinable flag-like parameter.
func (m *matcher) clusterParts(tok string) []optionMatch {
	if len(tok) < 3 {
		return nil
	}
	parts := make([]optionMatch, 0, len(tok)-1)
	for i := 1; i < len(tok); i++ {
		p, ok := m.table.Combinable[tok[i]]
		if !ok {
			return nil
		}
		spelling := "-" + string(tok[i])
		parts = append(parts, optionMatch{param: p, spelling: spelling, alt: p.isAltForm(spelling)})
	}
	return parts
}

// isOptionToken reports whether a token would classify as a registered
// option under this table; value consumption stops at such tokens.
func (m *matcher) isOptionToken(tok string) bool {
	if tok == "--" {
		return true
	}
	if looksLikeLong(tok) {
		name, _, _ := splitInline(tok)
		_, ok := m.table.Lookup(name)
		return ok
	}
	if looksLikeShort(tok) {
		if _, ok := m.table.Lookup(tok); ok {
			return true
		}
		if name, _, has := splitInline(tok); has {
			if _, ok := m.table.Lookup(name); ok {
				return true
			}
		}
		if m.clusterParts(tok) != nil {
			return true
		}
		if p, ok := m.table.Lookup(tok[:2]); ok && p.acceptsInlineValue() {
			return true
		}
	}
	return false
}

// applyOption records one matched option occurrence, consuming any
// values its arity calls for.
func (m *matcher) applyOption(om optionMatch) *ParseError {
	p := om.param
	switch p.Kind { // exhaustive over the option-like kinds
	case KindFlag, KindActionFlag:
		if om.hasInline {
			return newParamUsage(p.displayName(), "%s does not accept a value (got %q)", om.spelling, om.inline)
		}
		return m.store.storeConst(p, false, SourceCLI)
	case KindTriFlag:
		if om.hasInline {
			return newParamUsage(p.displayName(), "%s does not accept a value (got %q)", om.spelling, om.inline)
		}
		return m.store.storeConst(p, om.alt, SourceCLI)
	case KindCounter:
		return m.applyCounter(om)
	case KindOption:
		values, err := m.gatherValues(p, om)
		if err != nil {
			return err
		}
		for _, raw := range values {
			if err := m.store.add(p, raw, SourceCLI); err != nil {
				return err
			}
		}
		return nil
	default:
		return newParamUsage(p.displayName(), "%s cannot be provided as an option", om.spelling)
	}
}

// applyCounter increments a counter, honoring an explicit amount given
// inline ("-v3") or as the next token ("-v 3").
func (m *matcher) applyCounter(om optionMatch) *ParseError {
	p := om.param
	if om.hasInline {
		n, err := strconv.Atoi(om.inline)
		if err != nil {
			return newBadArgument(p.displayName(), om.inline, err)
		}
		return m.store.addCount(p, n, SourceCLI)
	}
	if tok, ok := m.stream.peek(); ok && m.takesCount(p, tok) {
		m.stream.next()
		n, _ := strconv.Atoi(tok)
		return m.store.addCount(p, n, SourceCLI)
	}
	return m.store.addCount(p, p.Const.(int), SourceCLI)
}

// takesCount reports whether the next token is an explicit counter
// amount rather than an unrelated argument.
func (m *matcher) takesCount(p *Parameter, tok string) bool {
	if _, err := strconv.Atoi(tok); err != nil {
		return false
	}
	if strings.HasPrefix(tok, "-") {
		return !m.isOptionToken(tok) && dashTokenOK(p, tok)
	}
	return true
}

// gatherValues collects the values an option's arity calls for, either
// from its inline form or from following tokens. Consumption stops at
// anything that classifies as a registered option, at the pass-thru
// separator, and at dash-prefixed tokens the parameter's leading-dash
// policy rejects.
func (m *matcher) gatherValues(p *Parameter, om optionMatch) ([]string, *ParseError) {
	var values []string
	if om.hasInline {
		values = append(values, om.inline)
	} else {
		for !p.NArgs.Bounded() || len(values) < p.NArgs.Max {
			tok, ok := m.stream.peek()
			if !ok {
				break
			}
			if tok == "--" {
				break
			}
			if len(tok) > 1 && tok[0] == '-' {
				if m.isOptionToken(tok) || !dashTokenOK(p, tok) {
					break
				}
			}
			m.stream.next()
			values = append(values, tok)
		}
	}
	if len(values) < p.NArgs.Min {
		return nil, newBadArgCount(p.displayName(), p.NArgs, len(values))
	}
	return values, nil
}

// routeValue feeds a bare token to the current positional slot. At the
// sub-command slot it performs choice matching and may return the child
// command the remaining stream belongs to.
func (m *matcher) routeValue(raw string) (*Command, *ParseError) {
	if m.posIdx >= len(m.table.Positionals) {
		extra := append([]string{raw}, m.stream.drain()...)
		return nil, newUsageError("unrecognized arguments: %s", strings.Join(extra, " "))
	}
	p := m.table.Positionals[m.posIdx]
	if p.Kind == KindSubCommand {
		return m.matchChoice(p, raw)
	}
	if p.NArgs.Remainder {
		return nil, m.store.storeAll(p, append([]string{raw}, m.stream.drain()...))
	}
	if err := m.store.add(p, raw, SourceCLI); err != nil {
		return nil, err
	}
	if n := m.store.countOf(p); p.NArgs.Bounded() && n >= p.NArgs.Max {
		m.posIdx++
	}
	return nil, nil
}

// routeUnknown decides whether a dash-prefixed token that matched no
// option spelling is a legitimate leading-dash value for the current
// positional slot, or a NoSuchOption error.
func (m *matcher) routeUnknown(raw string) (*Command, *ParseError) {
	if m.posIdx < len(m.table.Positionals) {
		p := m.table.Positionals[m.posIdx]
		if p.Kind == KindPositional && (p.NArgs.Remainder || dashTokenOK(p, raw)) {
			return m.routeValue(raw)
		}
	}
	return nil, newNoSuchOption(raw)
}

// matchChoice resolves the sub-command slot against the registered
// choices, preferring the longest multi-word match. A nil child with a
// nil error means a local choice was stored and matching continues on
// the same table.
func (m *matcher) matchChoice(p *Parameter, raw string) (*Command, *ParseError) {
	choices := m.table.Choices
	if choices == nil || choices.Len() == 0 {
		return nil, newInvalidChoice(p.displayName(), raw, nil)
	}

	var ahead []string
	for len(ahead) < m.table.choiceWords()-1 {
		tok, ok := m.stream.next()
		if !ok {
			break
		}
		ahead = append(ahead, tok)
	}
	for n := len(ahead); n >= 0; n-- {
		candidate := raw
		if n > 0 {
			candidate = raw + " " + strings.Join(ahead[:n], " ")
		}
		child, ok := choices.Get(candidate)
		if !ok {
			continue
		}
		for i := len(ahead) - 1; i >= n; i-- {
			m.stream.pushBack(ahead[i])
		}
		if err := m.store.add(p, candidate, SourceCLI); err != nil {
			return nil, err
		}
		m.posIdx++
		return child, nil
	}
	for i := len(ahead) - 1; i >= 0; i-- {
		m.stream.pushBack(ahead[i])
	}
	return nil, newInvalidChoice(p.displayName(), raw, choiceKeys(choices))
}

// dashTokenOK applies a parameter's leading-dash policy to a candidate
// value token.
func dashTokenOK(p *Parameter, tok string) bool {
	switch p.LeadingDash { // exhaustive over DashPolicy
	case DashAlways:
		return true
	case DashNever:
		return false
	default:
		return numericToken(tok)
	}
}
