package cmdparse

// paramValue is the accumulation record for one parameter within a
// single parse.
type paramValue struct {
	set     bool
	value   any   // scalar result: store, store_const, counter total
	values  []any // accumulated results: append, append_const, store_all
	count   int
	source  ValueSource
	invoked bool
	alt     *bool // which constant form a tri-flag stored
}

// valueStore accumulates matched values for a parse, tracking how each
// value arrived so lower-precedence sources never overwrite higher
// ones. One store is shared across a dispatch chain; parameters merged
// into child tables keep the values their ancestors recorded.
type valueStore struct {
	entries map[*Parameter]*paramValue
}

func newValueStore() *valueStore {
	return &valueStore{entries: make(map[*Parameter]*paramValue)}
}

func (s *valueStore) entry(p *Parameter) *paramValue {
	pv, ok := s.entries[p]
	if !ok {
		pv = &paramValue{}
		s.entries[p] = pv
	}
	return pv
}

func (s *valueStore) mark(pv *paramValue, src ValueSource) {
	pv.set = true
	if src == SourceCLI {
		pv.invoked = true
	}
	if src > pv.source {
		pv.source = src
	}
}

// add converts and records one value token for a store or append
// parameter. Append arities bound the total accumulated across every
// invocation, not per occurrence.
func (s *valueStore) add(p *Parameter, raw string, src ValueSource) *ParseError {
	value, perr := p.convert(raw)
	if perr != nil {
		return perr
	}
	pv := s.entry(p)
	switch p.Action { // exhaustive over Action
	case ActionStore:
		if pv.set && pv.invoked && src == SourceCLI {
			return newParamUsage(p.displayName(), "%s may only be provided once", p.displayName())
		}
		pv.value = value
		pv.count = 1
	case ActionAppend:
		if p.NArgs.Bounded() && len(pv.values) >= p.NArgs.Max {
			return newParamUsage(p.displayName(), "too many values for %s: nargs=%s allows at most %d",
				p.displayName(), p.NArgs, p.NArgs.Max)
		}
		pv.values = append(pv.values, value)
		pv.count = len(pv.values)
	default:
		return newParamUsage(p.displayName(), "%s does not accept values", p.displayName())
	}
	s.mark(pv, src)
	return nil
}

// addCount adds an increment to a counter. The first increment seeds
// the total from the parameter's default, so explicit amounts and
// repeated occurrences both accrue onto the configured base.
func (s *valueStore) addCount(p *Parameter, n int, src ValueSource) *ParseError {
	pv := s.entry(p)
	if !pv.set {
		if base, ok := p.Default.(int); ok && p.HasDefault {
			pv.value = base
		} else {
			pv.value = 0
		}
	}
	total, _ := pv.value.(int)
	pv.value = total + n
	pv.count++
	s.mark(pv, src)
	return nil
}

// storeConst records a constant-valued occurrence for flag-like
// parameters. Repeating the same form is idempotent; mixing a
// tri-flag's primary and alternate forms is a conflict.
func (s *valueStore) storeConst(p *Parameter, alt bool, src ValueSource) *ParseError {
	pv := s.entry(p)
	if p.Kind == KindTriFlag && pv.set && pv.alt != nil && *pv.alt != alt {
		return newParamConflict("conflicting usage of %s: the primary and alternate forms cannot be combined",
			p.displayName())
	}
	c := p.Const
	if alt {
		c = p.AltConst
	}
	if p.Action == ActionAppendConst {
		pv.values = append(pv.values, c)
		pv.count = len(pv.values)
	} else {
		pv.value = c
		pv.count++
	}
	seen := alt
	pv.alt = &seen
	s.mark(pv, src)
	return nil
}

// storeAll records the full remainder of the stream for a pass-thru or
// remainder parameter in one shot.
func (s *valueStore) storeAll(p *Parameter, vals []string) *ParseError {
	pv := s.entry(p)
	if pv.invoked {
		return newParamUsage(p.displayName(), "%s may only be provided once", p.displayName())
	}
	converted := make([]any, 0, len(vals))
	for _, raw := range vals {
		v, perr := p.convert(raw)
		if perr != nil {
			return perr
		}
		converted = append(converted, v)
	}
	pv.values = converted
	pv.count = len(converted)
	s.mark(pv, SourceCLI)
	return nil
}

// setDefault records the parameter's default without marking it
// provided; it never overwrites a value from a higher source.
func (s *valueStore) setDefault(p *Parameter) {
	pv := s.entry(p)
	if pv.set {
		return
	}
	pv.value = p.Default
	pv.set = true
}

// countOf returns how many values have accumulated for a parameter.
func (s *valueStore) countOf(p *Parameter) int {
	if pv, ok := s.entries[p]; ok {
		return pv.count
	}
	return 0
}

// hasValue reports whether any source recorded a value.
func (s *valueStore) hasValue(p *Parameter) bool {
	pv, ok := s.entries[p]
	return ok && pv.set
}

// wasInvoked reports whether the parameter appeared on the command
// line.
func (s *valueStore) wasInvoked(p *Parameter) bool {
	pv, ok := s.entries[p]
	return ok && pv.invoked
}

// provided reports whether a value arrived from the command line or the
// environment, as opposed to a default.
func (s *valueStore) provided(p *Parameter) bool {
	pv, ok := s.entries[p]
	return ok && pv.set && pv.source > SourceDefault
}

// sourceOf returns where the parameter's value came from.
func (s *valueStore) sourceOf(p *Parameter) ValueSource {
	if pv, ok := s.entries[p]; ok && pv.set {
		return pv.source
	}
	return SourceDefault
}

// valueOf returns the recorded value: the accumulated slice for
// appending actions, the scalar otherwise.
func (s *valueStore) valueOf(p *Parameter) (any, bool) {
	pv, ok := s.entries[p]
	if !ok || !pv.set {
		return nil, false
	}
	if pv.values != nil {
		return pv.values, true
	}
	return pv.value, true
}
