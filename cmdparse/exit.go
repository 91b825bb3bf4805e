package cmdparse

import (
	"context"
	"errors"
	"reflect"

	"github.com/dskrypa/command-parser/middleware"
)

// ExitError is a sentinel used to request a specific exit code from
// inside callbacks.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "exit"
}

// Unwrap exposes the error the exit request was recorded for.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCodeDefaults supplies the fallback codes used when no explicit
// mapping matches an error. conventionalExitCodes fills it with the
// usual shell and sysexits values.
type ExitCodeDefaults struct {
	Success         int
	GeneralError    int
	UsageError      int
	ValidationError int
	DefinitionError int
	PermissionError int
	NotFoundError   int
	Interrupted     int
}

func conventionalExitCodes() ExitCodeDefaults {
	return ExitCodeDefaults{
		Success:         0,
		GeneralError:    1,
		UsageError:      2,
		ValidationError: 3,
		DefinitionError: 70,  // EX_SOFTWARE
		PermissionError: 126,
		NotFoundError:   127,
		Interrupted:     130, // 128 + SIGINT
	}
}

// ExitCodeManager resolves the process exit code for an error,
// consulting explicit registrations before the category defaults.
type ExitCodeManager struct {
	codesByName map[string]int
	codesByType map[reflect.Type]int
	codesByKind map[ErrorType]int
	defaults    ExitCodeDefaults
}

// NewExitCodeManager returns a manager prewired with the conventional
// mappings: user mistakes exit 2, definition bugs exit 70, middleware
// failures exit by their class.
func NewExitCodeManager() *ExitCodeManager {
	m := &ExitCodeManager{
		codesByName: make(map[string]int),
		codesByType: make(map[reflect.Type]int),
		codesByKind: make(map[ErrorType]int),
		defaults:    conventionalExitCodes(),
	}
	for _, t := range []ErrorType{
		ErrorNoSuchOption, ErrorInvalidChoice, ErrorBadArgument, ErrorMissingArgument,
		ErrorParamsMissing, ErrorParamConflict, ErrorParamUsage, ErrorUsage,
	} {
		m.codesByKind[t] = m.defaults.UsageError
	}
	m.codesByKind[ErrorParameterDefinition] = m.defaults.DefinitionError
	m.codesByKind[ErrorCommandDefinition] = m.defaults.DefinitionError

	m.codesByType[reflect.TypeOf(&middleware.ValidationError{})] = m.defaults.ValidationError
	for _, err := range []error{&middleware.TimeoutError{}, &middleware.RecoveryError{}} {
		m.codesByType[reflect.TypeOf(err)] = m.defaults.GeneralError
	}
	return m
}

// Define registers a named exit code for use with Context.ExitNamed.
// Names do not affect error resolution.
func (e *ExitCodeManager) Define(name string, code int) *ExitCodeManager {
	e.codesByName[name] = code
	return e
}

// Named returns the code registered under name, or the general error
// code when the name is unknown.
func (e *ExitCodeManager) Named(name string) int {
	if code, ok := e.codesByName[name]; ok {
		return code
	}
	return e.defaults.GeneralError
}

// DefineError maps a concrete error value (by its dynamic type) to an
// exit code. A matching type takes precedence over the default codes
// but is secondary to an explicit ExitError requested by a callback.
func (e *ExitCodeManager) DefineError(err error, code int) *ExitCodeManager {
	if err == nil {
		return e
	}
	e.codesByType[reflect.TypeOf(err)] = code
	return e
}

// DefineKind overrides the exit code used for one parse error kind.
func (e *ExitCodeManager) DefineKind(kind ErrorType, code int) *ExitCodeManager {
	e.codesByKind[kind] = code
	return e
}

// Default replaces the manager's default codes.
func (e *ExitCodeManager) Default(d ExitCodeDefaults) *ExitCodeManager {
	e.defaults = d
	return e
}

// resolve converts an error to an exit code according to registered
// mappings. Precedence:
//  1. ExitError (requested code)
//  2. Context cancellation (interrupted)
//  3. Parse error kind mapping (DefineKind), wrapped or bare
//  4. Concrete error type mapping (DefineError)
//  5. Default codes
func (e *ExitCodeManager) resolve(err error) int {
	if err == nil {
		return e.defaults.Success
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, context.Canceled) {
		return e.defaults.Interrupted
	}

	var cli *CLIError
	if errors.As(err, &cli) {
		if code, ok := e.codesByKind[cli.Type]; ok {
			return code
		}
		return e.defaults.GeneralError
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		if code, ok := e.codesByKind[pe.Type]; ok {
			return code
		}
		return e.defaults.GeneralError
	}

	for t, code := range e.codesByType {
		if errors.As(err, reflect.New(t).Interface()) {
			return code
		}
	}
	return e.defaults.GeneralError
}
