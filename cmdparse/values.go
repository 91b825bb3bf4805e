package cmdparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Built-in value conversion functions. Typed builder entry points wire
// these up; ValueFunc is exported so callers can plug in their own.

// StringValue passes the raw token through unchanged.
func StringValue(raw string) (any, error) {
	return raw, nil
}

// IntValue parses a base-10 integer.
func IntValue(raw string) (any, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid integer: %q", raw)
	}
	return v, nil
}

// Float64Value parses a float.
func Float64Value(raw string) (any, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number: %q", raw)
	}
	return v, nil
}

// BoolValue parses the strict boolean spellings (1/true/yes/on,
// 0/false/no/off).
func BoolValue(raw string) (any, error) {
	v, err := ParseStrictBool(raw)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// DurationValue parses a Go duration ("1h30m15s", "250ms").
func DurationValue(raw string) (any, error) {
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid duration: %q", raw)
	}
	return v, nil
}

// TimeValue parses a timestamp in any of the formats dateparse
// recognizes ("2023-01-15", "Jan 15 2023 10:00", unix seconds, ...),
// interpreted in the local timezone.
func TimeValue(raw string) (any, error) {
	v, err := dateparse.ParseLocal(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp: %q", raw)
	}
	return v, nil
}

// numericToken reports whether a dash-prefixed token parses as a number,
// which is what DashNumeric admits as a value.
func numericToken(token string) bool {
	if len(token) < 2 || token[0] != '-' {
		return false
	}
	if _, err := strconv.ParseFloat(token, 64); err == nil {
		return true
	}
	_, err := strconv.ParseInt(token, 10, 64)
	return err == nil
}
