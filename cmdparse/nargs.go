package cmdparse

import (
	"fmt"
	"strconv"
)

// NArgs describes how many values a parameter consumes. Max < 0 means
// unbounded. Remainder marks the pass-thru arity: everything left on the
// token stream, verbatim, with no per-value classification.
type NArgs struct {
	Min       int
	Max       int
	Remainder bool
}

// Common arities. OneValue is the default for options, ZeroOrOne for
// counters, RemainderArgs for pass-thru parameters.
var (
	OneValue      = NArgs{Min: 1, Max: 1}
	OneOrMore     = NArgs{Min: 1, Max: -1}
	ZeroOrMore    = NArgs{Min: 0, Max: -1}
	ZeroOrOne     = NArgs{Min: 0, Max: 1}
	RemainderArgs = NArgs{Min: 0, Max: -1, Remainder: true}
)

// Exactly returns an arity requiring exactly n values.
func Exactly(n int) NArgs {
	return NArgs{Min: n, Max: n}
}

// Between returns an inclusive min..max arity.
func Between(minValues, maxValues int) NArgs {
	return NArgs{Min: minValues, Max: maxValues}
}

// AtLeast returns an arity with a lower bound and no upper bound.
func AtLeast(n int) NArgs {
	return NArgs{Min: n, Max: -1}
}

// Satisfied reports whether count values meet the arity's lower bound
// without exceeding its upper bound.
func (n NArgs) Satisfied(count int) bool {
	if count < n.Min {
		return false
	}
	return !n.Bounded() || count <= n.Max
}

// Allows reports whether one more value may be consumed after count.
func (n NArgs) Allows(count int) bool {
	return !n.Bounded() || count < n.Max
}

// Bounded reports whether the arity has an upper bound.
func (n NArgs) Bounded() bool {
	return n.Max >= 0
}

// Fixed reports whether the arity accepts exactly one count.
func (n NArgs) Fixed() bool {
	return n.Max == n.Min
}

// AllowsZero reports whether zero values satisfy the arity.
func (n NArgs) AllowsZero() bool {
	return n.Min == 0
}

// String renders the arity the way usage text shows it.
func (n NArgs) String() string {
	switch {
	case n.Remainder:
		return "REMAINDER"
	case n.Fixed():
		return strconv.Itoa(n.Min)
	case !n.Bounded() && n.Min == 0:
		return "*"
	case !n.Bounded() && n.Min == 1:
		return "+"
	case !n.Bounded():
		return fmt.Sprintf("%d+", n.Min)
	case n.Min == 0 && n.Max == 1:
		return "?"
	default:
		return fmt.Sprintf("%d..%d", n.Min, n.Max)
	}
}

// normalized reports whether the arity is internally consistent. A
// bounded arity with Max < Min, or a negative Min, never matches any
// count and is rejected at definition time.
func (n NArgs) normalized() bool {
	if n.Min < 0 {
		return false
	}
	return !n.Bounded() || n.Max >= n.Min
}
