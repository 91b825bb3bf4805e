package cmdparse

// Action identifies how a parameter accumulates values during a parse.
// The set is closed: every accumulation path is dispatched through an
// exhaustive switch, so an out-of-range Action is a definition error
// that surfaces at table-build time rather than a silent fallback.
type Action uint8

const (
	// ActionStore overwrites the stored value. Invoking it a second time
	// from the command line is a usage error.
	ActionStore Action = iota
	// ActionAppend pushes each value onto an ordered list, bounded by the
	// parameter's arity.
	ActionAppend
	// ActionStoreConst ignores the raw token and stores the parameter's
	// constant.
	ActionStoreConst
	// ActionAppendConst ignores the raw token and appends the parameter's
	// constant.
	ActionAppendConst
	// ActionStoreAll stores the entire remaining token list at once.
	// Only pass-thru parameters use it, and only once per parse.
	ActionStoreAll

	actionCount
)

// String returns the registered name for the action.
func (a Action) String() string {
	switch a { // exhaustive over Action
	case ActionStore:
		return "store"
	case ActionAppend:
		return "append"
	case ActionStoreConst:
		return "store_const"
	case ActionAppendConst:
		return "append_const"
	case ActionStoreAll:
		return "store_all"
	default:
		return "unregistered"
	}
}

// registered reports whether the action is one of the closed set.
func (a Action) registered() bool {
	return a < actionCount
}

// constant reports whether the action stores a constant instead of a
// converted token value.
func (a Action) constant() bool {
	return a == ActionStoreConst || a == ActionAppendConst
}

// appends reports whether the action accumulates into a list.
func (a Action) appends() bool {
	return a == ActionAppend || a == ActionAppendConst
}
