package cmdparse

import (
	"fmt"
	"strings"

	"github.com/dskrypa/command-parser/internal/fuzzy"
)

// ErrorType categorizes everything that can go wrong while defining
// commands or parsing arguments. The categories drive exit-code mapping
// (via ExitCodeManager) and the suggestion logic in ErrorHandler.
type ErrorType string

const (
	// Definition-time errors: the program is wrong, not the user.
	ErrorParameterDefinition ErrorType = "parameter_definition"
	ErrorCommandDefinition   ErrorType = "command_definition"

	// Parse-time errors caused by the supplied arguments.
	ErrorNoSuchOption    ErrorType = "no_such_option"
	ErrorInvalidChoice   ErrorType = "invalid_choice"
	ErrorBadArgument     ErrorType = "bad_argument"
	ErrorMissingArgument ErrorType = "missing_argument"
	ErrorParamsMissing   ErrorType = "params_missing"
	ErrorParamConflict   ErrorType = "param_conflict"
	ErrorParamUsage      ErrorType = "param_usage"
	ErrorUsage           ErrorType = "usage"
)

// IsUsage reports whether the category describes a user mistake (as
// opposed to a malformed command definition). Usage-class errors map to
// exit code 2 by default; definition errors indicate a programming bug.
func (t ErrorType) IsUsage() bool {
	switch t {
	case ErrorNoSuchOption, ErrorInvalidChoice, ErrorBadArgument, ErrorMissingArgument,
		ErrorParamsMissing, ErrorParamConflict, ErrorParamUsage, ErrorUsage:
		return true
	case ErrorParameterDefinition, ErrorCommandDefinition:
		return false
	default:
		return false
	}
}

// ParseError is the error type produced by the core: definition
// validation, table merging, token matching, value accumulation, and the
// finalize pass all report through it.
type ParseError struct {
	Type    ErrorType
	Message string
	Param   string   // primary parameter involved, if any
	Other   string   // second parameter for conflicts/collisions
	Command string   // command path where the error occurred
	Group   string   // group name for constraint violations
	Value   string   // offending raw value, if any
	Missing []string // parameter names for params_missing aggregates
	Cause   error
}

func (e *ParseError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause (e.g. a failed value conversion).
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewParseError creates a ParseError with the given type and message.
func NewParseError(errType ErrorType, message string) *ParseError {
	return &ParseError{Type: errType, Message: message}
}

// Error constructors used throughout the core. Message shapes are part
// of the tested surface; change them together with the tests.

func newParameterDefinitionError(param, format string, args ...any) *ParseError {
	msg := fmt.Sprintf(format, args...)
	if param != "" {
		msg = fmt.Sprintf("parameter %s: %s", param, msg)
	}
	return &ParseError{Type: ErrorParameterDefinition, Message: msg, Param: param}
}

func newCommandDefinitionError(command, format string, args ...any) *ParseError {
	return &ParseError{
		Type:    ErrorCommandDefinition,
		Message: fmt.Sprintf(format, args...),
		Command: command,
	}
}

func newNoSuchOption(token string) *ParseError {
	return &ParseError{
		Type:    ErrorNoSuchOption,
		Message: fmt.Sprintf("no such option: %s", token),
		Value:   token,
	}
}

func newInvalidChoice(param, value string, choices []string) *ParseError {
	msg := fmt.Sprintf("invalid choice for %s: %q", param, value)
	if len(choices) > 0 {
		msg += fmt.Sprintf(" (choose from: %s)", strings.Join(choices, ", "))
	}
	return &ParseError{
		Type:    ErrorInvalidChoice,
		Message: msg,
		Param:   param,
		Value:   value,
	}
}

func newBadArgument(param, value string, cause error) *ParseError {
	return &ParseError{
		Type:    ErrorBadArgument,
		Message: fmt.Sprintf("bad value for %s: %q (%v)", param, value, cause),
		Param:   param,
		Value:   value,
		Cause:   cause,
	}
}

func newBadArgCount(param string, arity NArgs, found int) *ParseError {
	return &ParseError{
		Type:    ErrorBadArgument,
		Message: fmt.Sprintf("bad arguments for %s: expected nargs=%s values but found %d", param, arity, found),
		Param:   param,
	}
}

func newMissingArgument(param, hint string) *ParseError {
	msg := fmt.Sprintf("missing required argument: %s", param)
	if hint != "" {
		msg += " " + hint
	}
	return &ParseError{Type: ErrorMissingArgument, Message: msg, Param: param}
}

func newParamsMissing(missing []string, hints map[string]string) *ParseError {
	parts := make([]string, 0, len(missing))
	for _, name := range missing {
		if hint := hints[name]; hint != "" {
			parts = append(parts, name+" "+hint)
		} else {
			parts = append(parts, name)
		}
	}
	return &ParseError{
		Type:    ErrorParamsMissing,
		Message: fmt.Sprintf("missing required arguments: %s", strings.Join(parts, ", ")),
		Missing: missing,
	}
}

func newParamConflict(format string, args ...any) *ParseError {
	return &ParseError{Type: ErrorParamConflict, Message: fmt.Sprintf(format, args...)}
}

func newParamUsage(param, format string, args ...any) *ParseError {
	return &ParseError{
		Type:    ErrorParamUsage,
		Message: fmt.Sprintf(format, args...),
		Param:   param,
	}
}

func newUsageError(format string, args ...any) *ParseError {
	return &ParseError{Type: ErrorUsage, Message: fmt.Sprintf(format, args...)}
}

// CLIError is the presentation-side wrapper: it carries the core error
// plus suggestions and free-form context collected by the ErrorHandler.
// The core never produces CLIError; Run and RunWithArgs build it when an
// error is about to be shown to a user.
type CLIError struct {
	Type           ErrorType
	Message        string
	Suggestions    []string
	Cause          error
	Context        map[string]any
	formattedError string
}

// Error implements the error interface, preferring the fully formatted
// message (with suggestions) when one has been built.
func (e *CLIError) Error() string {
	if e.formattedError != "" {
		return e.formattedError
	}
	return e.Message
}

// Unwrap exposes the wrapped core error.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// NewCLIError creates an empty presentation error with the given type
// and message.
func NewCLIError(typ ErrorType, message string) *CLIError {
	return &CLIError{
		Type:        typ,
		Message:     message,
		Suggestions: make([]string, 0),
		Context:     make(map[string]any),
	}
}

// WithSuggestion adds a suggestion line to the error.
func (e *CLIError) WithSuggestion(suggestion string) *CLIError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithCause records the underlying error.
func (e *CLIError) WithCause(cause error) *CLIError {
	e.Cause = cause
	return e
}

// WithContext attaches context information for custom handlers.
func (e *CLIError) WithContext(key string, value any) *CLIError {
	e.Context[key] = value
	return e
}

// ErrorHandler turns core ParseErrors into user-facing CLIErrors,
// optionally decorating them with fuzzy-matched suggestions. Matching
// itself never consults the handler: an unknown option is an error even
// when an obvious near-miss exists. Suggestions are presentation only.
type ErrorHandler struct {
	suggestOptions bool
	suggestChoices bool
	maxDistance    int
	customHandlers map[ErrorType]func(*CLIError) *CLIError
	showUsage      bool
}

// NewErrorHandler creates an error handler with suggestions disabled.
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{
		maxDistance:    2,
		customHandlers: make(map[ErrorType]func(*CLIError) *CLIError),
	}
}

// SuggestOptions enables "did you mean" hints for unknown options.
func (eh *ErrorHandler) SuggestOptions(enabled bool) *ErrorHandler {
	eh.suggestOptions = enabled
	return eh
}

// SuggestChoices enables "did you mean" hints for invalid choices.
func (eh *ErrorHandler) SuggestChoices(enabled bool) *ErrorHandler {
	eh.suggestChoices = enabled
	return eh
}

// MaxDistance sets the maximum edit distance for suggestions.
func (eh *ErrorHandler) MaxDistance(distance int) *ErrorHandler {
	eh.maxDistance = distance
	return eh
}

// ShowUsage controls whether usage text is printed after an error.
func (eh *ErrorHandler) ShowUsage(enabled bool) *ErrorHandler {
	eh.showUsage = enabled
	return eh
}

// Handle registers a custom handler for one error category.
func (eh *ErrorHandler) Handle(typ ErrorType, handler func(*CLIError) *CLIError) *ErrorHandler {
	eh.customHandlers[typ] = handler
	return eh
}

// Process wraps a core error for presentation, applying custom handlers
// and suggestion decoration against the command whose table was active
// when the error occurred.
func (eh *ErrorHandler) Process(err *ParseError, cmd *Command) *CLIError {
	cli := NewCLIError(err.Type, err.Message).WithCause(err)
	if err.Param != "" {
		cli.WithContext("param", err.Param)
	}
	if err.Group != "" {
		cli.WithContext("group", err.Group)
	}
	if err.Value != "" {
		cli.WithContext("value", err.Value)
	}

	if handler, exists := eh.customHandlers[err.Type]; exists {
		cli = handler(cli)
	}

	switch err.Type { // every ErrorType has a case
	case ErrorNoSuchOption:
		if eh.suggestOptions && cmd != nil {
			eh.addOptionSuggestion(cli, err.Value, cmd)
		}
	case ErrorInvalidChoice:
		if eh.suggestChoices && cmd != nil {
			eh.addChoiceSuggestion(cli, err.Value, cmd)
		}
	case ErrorParamConflict, ErrorUsage:
		if err.Group != "" && cmd != nil {
			cli.WithSuggestion(fmt.Sprintf(
				"Run '%s --help' to see valid combinations for group '%s'", cmd.Path(), err.Group))
		}
	case ErrorParameterDefinition, ErrorCommandDefinition, ErrorBadArgument,
		ErrorMissingArgument, ErrorParamsMissing, ErrorParamUsage:
		// No decoration for these by default.
	}

	return eh.format(cli)
}

// addOptionSuggestion adds a fuzzy-matched option hint using internal/fuzzy.
func (eh *ErrorHandler) addOptionSuggestion(cli *CLIError, token string, cmd *Command) {
	table, err := cmd.Table()
	if err != nil {
		return
	}
	candidates := make([]string, 0, table.Options.Len())
	for pair := table.Options.Oldest(); pair != nil; pair = pair.Next() {
		candidates = append(candidates, strings.TrimLeft(pair.Key, "-"))
	}
	if best := fuzzy.FindBestOption(strings.TrimLeft(token, "-"), candidates, eh.maxDistance); best != "" {
		cli.WithSuggestion(fmt.Sprintf("Did you mean '--%s'?", best))
	}
}

// addChoiceSuggestion adds a fuzzy-matched sub-command/choice hint.
func (eh *ErrorHandler) addChoiceSuggestion(cli *CLIError, value string, cmd *Command) {
	table, err := cmd.Table()
	if err != nil || table.Choices == nil {
		return
	}
	candidates := make([]string, 0, table.Choices.Len())
	for pair := table.Choices.Oldest(); pair != nil; pair = pair.Next() {
		candidates = append(candidates, pair.Key)
	}
	if best := fuzzy.FindBestChoice(value, candidates, eh.maxDistance); best != "" {
		cli.WithSuggestion(fmt.Sprintf("Did you mean '%s'?", best))
	}
}

// format builds the final message with suggestions attached.
func (eh *ErrorHandler) format(cli *CLIError) *CLIError {
	if len(cli.Suggestions) == 0 {
		cli.formattedError = "Error: " + cli.Message
		return cli
	}
	var builder strings.Builder
	builder.WriteString("Error: ")
	builder.WriteString(cli.Message)
	for _, suggestion := range cli.Suggestions {
		builder.WriteString("\n  ")
		builder.WriteString(suggestion)
	}
	cli.formattedError = builder.String()
	return cli
}

// Display prints a processed error to the command's error stream,
// followed by usage text when configured.
func (eh *ErrorHandler) Display(cli *CLIError, cmd *Command) {
	if cmd == nil {
		return
	}
	iom := cmd.IO()
	fmt.Fprintln(iom.Err(), iom.Colorize(cli.Error(), "31"))
	if eh.showUsage {
		fmt.Fprintln(iom.Err())
		fmt.Fprint(iom.Err(), UsageText(cmd))
	}
}
