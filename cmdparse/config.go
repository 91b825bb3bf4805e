package cmdparse

import (
	"fmt"
	"strings"
)

// NameMode controls how long option spellings are derived from
// multi-word parameter names.
type NameMode int

const (
	// NameDash derives "--foo-bar" from "foo_bar".
	NameDash NameMode = iota
	// NameUnderscore derives "--foo_bar" and leaves underscores alone.
	NameUnderscore
	// NameBoth registers both spellings.
	NameBoth
)

func (m NameMode) String() string {
	switch m { // exhaustive over NameMode
	case NameDash:
		return "dash"
	case NameUnderscore:
		return "underscore"
	case NameBoth:
		return "both"
	default:
		return fmt.Sprintf("NameMode(%d)", int(m))
	}
}

// Config carries the behavior settings shared by a command hierarchy.
// Only the root command owns a Config; descendants inherit it through
// Command.Config.
type Config struct {
	// SubCommandName is the parameter name used for sub-command slots
	// that are created implicitly by registering a child command.
	SubCommandName string

	// OptionNameMode selects the spelling(s) derived for long options
	// from parameter names containing underscores or spaces.
	OptionNameMode NameMode

	// AddHelp controls the automatic --help / -h action flag on the
	// root command.
	AddHelp bool

	// UsageWidth is the column where help text begins in rendered
	// usage output.
	UsageWidth int

	// ShowDefaults appends "(default: X)" to option help lines.
	ShowDefaults bool

	// ShowEnvVars appends "(env: X)" to option help lines for
	// parameters with environment fallbacks.
	ShowEnvVars bool
}

// ConfigOption mutates a Config during construction.
type ConfigOption func(*Config)

// DefaultConfig returns the settings used when no explicit Config is
// attached to a root command.
func DefaultConfig() *Config {
	return &Config{
		SubCommandName: "subcommand",
		OptionNameMode: NameDash,
		AddHelp:        true,
		UsageWidth:     30,
		ShowDefaults:   true,
		ShowEnvVars:    true,
	}
}

// NewConfig builds a Config from the defaults plus any overrides.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithSubCommandName overrides the implicit sub-command slot name.
func WithSubCommandName(name string) ConfigOption {
	return func(c *Config) { c.SubCommandName = name }
}

// WithOptionNameMode selects the derived long-option spelling mode.
func WithOptionNameMode(mode NameMode) ConfigOption {
	return func(c *Config) { c.OptionNameMode = mode }
}

// WithoutHelp disables the automatic --help action flag.
func WithoutHelp() ConfigOption {
	return func(c *Config) { c.AddHelp = false }
}

// WithUsageWidth sets the help text column for usage rendering.
func WithUsageWidth(width int) ConfigOption {
	return func(c *Config) { c.UsageWidth = width }
}

// WithShowDefaults toggles "(default: X)" suffixes in help output.
func WithShowDefaults(show bool) ConfigOption {
	return func(c *Config) { c.ShowDefaults = show }
}

// WithShowEnvVars toggles "(env: X)" suffixes in help output.
func WithShowEnvVars(show bool) ConfigOption {
	return func(c *Config) { c.ShowEnvVars = show }
}

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SubCommandName) == "" {
		return fmt.Errorf("sub-command name cannot be empty")
	}
	if c.UsageWidth < 1 {
		return fmt.Errorf("usage width must be positive, got %d", c.UsageWidth)
	}
	return nil
}

// LongFormsFor derives the registered long-option spellings for a
// parameter name under the configured name mode.
func (c *Config) LongFormsFor(name string) []string {
	base := strings.ToLower(strings.Join(strings.Fields(strings.TrimSpace(name)), "_"))
	dashed := strings.ReplaceAll(base, "_", "-")
	switch c.OptionNameMode { // exhaustive over NameMode
	case NameUnderscore:
		return []string{"--" + base}
	case NameBoth:
		if dashed == base {
			return []string{"--" + base}
		}
		return []string{"--" + dashed, "--" + base}
	default:
		return []string{"--" + dashed}
	}
}
