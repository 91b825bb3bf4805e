package middleware

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ValidatorFunc checks business-logic preconditions before an action runs.
// Structural rules (required, mutually exclusive, value choices) belong in
// the command definition; validators are for checks that need runtime state,
// such as file existence, conditional requirements, or reachability probes.
type ValidatorFunc func(ctx Context) error

// NamedValidator pairs a ValidatorFunc with the name used in error reports.
type NamedValidator struct {
	Name string
	Fn   ValidatorFunc
}

// Custom wraps an arbitrary ValidatorFunc under a report name.
func Custom(name string, fn ValidatorFunc) NamedValidator {
	return NamedValidator{Name: name, Fn: fn}
}

// File requires the named string parameters, when set, to point at existing
// regular files.
func File(params ...string) NamedValidator {
	return Custom("file_exists", FileExists(params...))
}

// Dir requires the named string parameters, when set, to point at existing
// directories.
func Dir(params ...string) NamedValidator {
	return Custom("directory_exists", DirectoryExists(params...))
}

// Validate composes validators into a middleware. They run in declaration
// order ahead of the action and the first failure aborts the run. Failures
// surface as *ValidationError, wrapping the validator's error when it
// returned something else.
//
//	builder.Use(middleware.Validate(
//	    middleware.Custom("replica_count", checkReplicas),
//	    middleware.File("manifest"),
//	))
func Validate(validators ...NamedValidator) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			for _, v := range validators {
				if v.Fn == nil {
					continue
				}
				if err := v.Fn(ctx); err != nil {
					return intoValidationError(v.Name, err)
				}
			}
			return next(ctx)
		}
	}
}

// intoValidationError passes *ValidationError results through untouched and
// wraps anything else under the validator's name.
func intoValidationError(name string, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	return &ValidationError{Field: name, Message: "validation failed", Cause: err}
}

// RequiredWhen requires the named parameters whenever cond reports no error.
// It covers conditional requirements that structural groups cannot express,
// like "a TLS key is required once --secure is given".
func RequiredWhen(cond ValidatorFunc, params ...string) NamedValidator {
	return Custom("required_when", func(ctx Context) error {
		if cond(ctx) != nil {
			return nil
		}
		var missing []string
		for _, name := range params {
			if !provided(ctx, name) {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			joined := strings.Join(missing, ", ")
			return &ValidationError{
				Field:   joined,
				Message: "parameters required when condition is met: " + joined,
			}
		}
		return nil
	})
}

// FileExists builds a ValidatorFunc checking that each named parameter, when
// it carries a non-empty value, names an existing regular file.
func FileExists(names ...string) ValidatorFunc {
	return func(ctx Context) error {
		for _, name := range names {
			path, ok := ctx.String(name)
			if !ok || path == "" {
				continue
			}
			if err := wantFile(path); err != nil {
				return &ValidationError{
					Field:   name,
					Value:   path,
					Message: fmt.Sprintf("file check failed for parameter '%s'", name),
					Cause:   err,
				}
			}
		}
		return nil
	}
}

// DirectoryExists is the directory counterpart of FileExists.
func DirectoryExists(names ...string) ValidatorFunc {
	return func(ctx Context) error {
		for _, name := range names {
			path, ok := ctx.String(name)
			if !ok || path == "" {
				continue
			}
			if err := wantDir(path); err != nil {
				return &ValidationError{
					Field:   name,
					Value:   path,
					Message: fmt.Sprintf("directory check failed for parameter '%s'", name),
					Cause:   err,
				}
			}
		}
		return nil
	}
}

// provided reports whether the parameter carries any non-zero value, probing
// each accessor in turn since middleware cannot see the declared type.
func provided(ctx Context, name string) bool {
	if v, ok := ctx.String(name); ok && v != "" {
		return true
	}
	if v, ok := ctx.Bool(name); ok && v {
		return true
	}
	if v, ok := ctx.Int(name); ok && v != 0 {
		return true
	}
	if v, ok := ctx.Float(name); ok && v != 0 {
		return true
	}
	if v, ok := ctx.Duration(name); ok && v != 0 {
		return true
	}
	if v, ok := ctx.Strings(name); ok && len(v) > 0 {
		return true
	}
	if v, ok := ctx.Ints(name); ok && len(v) > 0 {
		return true
	}
	return ctx.Count(name) > 0
}

func wantFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func wantDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
