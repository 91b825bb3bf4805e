package cmdparse

import (
	"errors"
	"fmt"
	"os"
	"regexp"
)

// Validators for common value shapes. Each returns a function suitable
// for the builder's Validate hook.

// ValidateFile checks file path values. With mustExist set, the path
// must name an existing regular file.
func ValidateFile(mustExist bool) func(string) error {
	return func(path string) error {
		if path == "" {
			return errors.New("empty file path")
		}
		if !mustExist {
			return nil
		}
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("no such file: %s", path)
		case err != nil:
			return fmt.Errorf("stat %s: %w", path, err)
		case info.IsDir():
			return fmt.Errorf("%s is a directory, not a file", path)
		}
		return nil
	}
}

// ValidateDir checks directory path values. With mustExist set, the
// path must name an existing directory.
func ValidateDir(mustExist bool) func(string) error {
	return func(path string) error {
		if path == "" {
			return errors.New("empty directory path")
		}
		if !mustExist {
			return nil
		}
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("no such directory: %s", path)
		case err != nil:
			return fmt.Errorf("stat %s: %w", path, err)
		case !info.IsDir():
			return fmt.Errorf("%s is not a directory", path)
		}
		return nil
	}
}

// ValidateRegex matches values against pattern. The pattern compiles
// once; a bad pattern yields a validator that always fails with the
// compilation error.
func ValidateRegex(pattern string) func(string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return func(string) error {
			return fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
	}
	return func(value string) error {
		if re.MatchString(value) {
			return nil
		}
		return fmt.Errorf("value %q does not match pattern %s", value, pattern)
	}
}

// ValidateOneOf restricts values to the given set.
func ValidateOneOf[T comparable](values ...T) func(T) error {
	return func(value T) error {
		for _, allowed := range values {
			if value == allowed {
				return nil
			}
		}
		return fmt.Errorf("value %v is not one of %v", value, values)
	}
}

// Convenience wrappers over the builder's Validate hook. These are free
// functions because methods cannot introduce extra type constraints.

// Range requires min <= value <= max for numeric parameters.
func Range[T int | float64, P any](b *ParamBuilder[T, P], minValue, maxValue T) *ParamBuilder[T, P] {
	return b.Validate(func(value T) error {
		if value < minValue || value > maxValue {
			return fmt.Errorf("value %v is not within range [%v, %v]", value, minValue, maxValue)
		}
		return nil
	})
}

// OneOf restricts a string parameter to the given values through
// validation rather than choice matching.
func OneOf[P any](b *ParamBuilder[string, P], values ...string) *ParamBuilder[string, P] {
	return b.Validate(ValidateOneOf(values...))
}

// File applies file path validation to a string parameter.
func File[P any](b *ParamBuilder[string, P], mustExist bool) *ParamBuilder[string, P] {
	return b.Validate(ValidateFile(mustExist))
}

// Dir applies directory path validation to a string parameter.
func Dir[P any](b *ParamBuilder[string, P], mustExist bool) *ParamBuilder[string, P] {
	return b.Validate(ValidateDir(mustExist))
}

// Regex applies pattern validation to a string parameter.
func Regex[P any](b *ParamBuilder[string, P], pattern string) *ParamBuilder[string, P] {
	return b.Validate(ValidateRegex(pattern))
}
