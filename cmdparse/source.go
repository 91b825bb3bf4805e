package cmdparse

import (
	"fmt"
	"strings"
)

// ValueSource records where a stored value came from. Sources are
// ordered by precedence: command-line tokens win over environment
// variables, which win over declared defaults. The finalize pass never
// overwrites a value with one from a lower-precedence source.
type ValueSource int

const (
	SourceDefault ValueSource = iota
	SourceEnv
	SourceCLI
)

// String returns a human-readable source name.
func (s ValueSource) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceEnv:
		return "environment"
	case SourceCLI:
		return "command line"
	default:
		return "unknown"
	}
}

// ParseStrictBool parses the boolean spellings accepted from environment
// variables: 1/true/yes/on and 0/false/no/off, case-insensitive.
// Anything else is an error; the caller decides whether that error is
// fatal (strict env policy) or logged and ignored.
func ParseStrictBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %q", s)
	}
}
