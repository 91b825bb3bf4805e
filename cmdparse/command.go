package cmdparse

import (
	"strings"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	parseio "github.com/dskrypa/command-parser/io"
	"github.com/dskrypa/command-parser/middleware"
)

// Command is one node in the command hierarchy: a named set of parameter
// declarations plus an optional entry point. Nodes are built through
// CommandBuilder and are immutable once parsing starts; per-parse state
// lives entirely in the Context.
type Command struct {
	name        string
	description string
	parent      *Command
	config      *Config

	params []*Parameter
	groups []*ParameterGroup

	subCommand *Parameter
	choices    *orderedmap.OrderedMap[string, *Command]

	mainFn   func(*Context) error
	beforeFn func(*Context) error
	afterFn  func(*Context) error

	defErr    *ParseError
	helpWired bool

	tableMu  sync.Mutex
	table    *CommandTable
	tableErr *ParseError

	// Runtime surface, meaningful on the root node only; descendants
	// delegate through Root.
	io         *parseio.IOManager
	exitCodes  *ExitCodeManager
	errHandler *ErrorHandler
	chain      middleware.MiddlewareChain
}

func newCommand(name, description string, parent *Command) *Command {
	return &Command{
		name:        name,
		description: description,
		parent:      parent,
	}
}

// Name returns the command's own name.
func (c *Command) Name() string {
	return c.name
}

// Description returns the command's description.
func (c *Command) Description() string {
	return c.description
}

// Parent returns the parent command, or nil for the root.
func (c *Command) Parent() *Command {
	return c.parent
}

// Path returns the space-joined command path from the root, the form
// used in error messages and usage text.
func (c *Command) Path() string {
	if c.parent == nil {
		return c.name
	}
	return c.parent.Path() + " " + c.name
}

// Root returns the top of the command hierarchy.
func (c *Command) Root() *Command {
	root := c
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Config returns the effective configuration: the root's Config, with
// defaults applied when none was set.
func (c *Command) Config() *Config {
	root := c.Root()
	if root.config == nil {
		root.config = DefaultConfig()
	}
	return root.config
}

// IO returns the terminal manager usage and error output go through.
func (c *Command) IO() *parseio.IOManager {
	root := c.Root()
	if root.io == nil {
		root.io = parseio.New()
	}
	return root.io
}

// ExitCodes returns the exit code manager used by Run.
func (c *Command) ExitCodes() *ExitCodeManager {
	root := c.Root()
	if root.exitCodes == nil {
		root.exitCodes = NewExitCodeManager()
	}
	return root.exitCodes
}

// errorHandler returns the presentation-side handler applied to parse
// errors before they are shown.
func (c *Command) errorHandler() *ErrorHandler {
	root := c.Root()
	if root.errHandler == nil {
		root.errHandler = NewErrorHandler()
	}
	return root.errHandler
}

// addParam appends a locally-declared parameter in declaration order.
func (c *Command) addParam(p *Parameter) {
	c.params = append(c.params, p)
	if p.Kind == KindSubCommand {
		if c.subCommand != nil && c.defErr == nil {
			c.defErr = newCommandDefinitionError(c.Path(),
				"command=%s declares multiple sub-command parameters (%s and %s)",
				c.Path(), c.subCommand.Name, p.Name)
		}
		c.subCommand = p
	}
}

// addGroup appends a locally-declared group.
func (c *Command) addGroup(g *ParameterGroup) {
	c.groups = append(c.groups, g)
}

// ensureSubCommand returns the node's sub-command parameter, declaring
// one on first use so that Command registrations always have a dispatch
// slot to bind to. When an ancestor already declared a slot, the new one
// takes over its identity so the merge replaces it instead of producing
// two competing slots.
func (c *Command) ensureSubCommand() *Parameter {
	if c.subCommand != nil {
		return c.subCommand
	}
	p := newSubCommand(c.Config().SubCommandName)
	if inherited := c.inheritedSubCommand(); inherited != nil {
		p.Name = inherited.Name
		p.Description = inherited.Description
		p.Required = inherited.Required
		p.Hidden = inherited.Hidden
	}
	c.addParam(p)
	return c.subCommand
}

// inheritedSubCommand finds the nearest ancestor's sub-command slot.
func (c *Command) inheritedSubCommand() *Parameter {
	for node := c.parent; node != nil; node = node.parent {
		if node.subCommand != nil {
			return node.subCommand
		}
	}
	return nil
}

// registerChoice binds a choice string to a child command (nil for a
// local choice handled by this command). Multi-word choices are matched
// greedily across consecutive tokens.
func (c *Command) registerChoice(choice string, child *Command) {
	c.ensureSubCommand()
	if c.choices == nil {
		c.choices = orderedmap.New[string, *Command]()
	}
	if _, exists := c.choices.Get(choice); exists && c.defErr == nil {
		c.defErr = newCommandDefinitionError(c.Path(),
			"choice=%q was already registered for command=%s", choice, c.Path())
	}
	c.choices.Set(choice, child)
}

// Children returns the registered child commands in registration order.
func (c *Command) Children() []*Command {
	if c.choices == nil {
		return nil
	}
	out := make([]*Command, 0, c.choices.Len())
	for pair := c.choices.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value != nil {
			out = append(out, pair.Value)
		}
	}
	return out
}

// Lookup returns the child command registered under a choice string.
func (c *Command) Lookup(choice string) (*Command, bool) {
	if c.choices == nil {
		return nil, false
	}
	child, ok := c.choices.Get(choice)
	return child, ok
}

// Table returns the command's merged parameter table, building and
// memoizing it on first use. Concurrent first builds are serialized per
// node; a rebuild would produce a structurally identical table, so the
// memoization is idempotent rather than order-sensitive.
func (c *Command) Table() (*CommandTable, error) {
	c.tableMu.Lock()
	defer c.tableMu.Unlock()
	if c.table != nil {
		return c.table, nil
	}
	if c.tableErr != nil {
		return nil, c.tableErr
	}
	table, err := buildTable(c)
	if err != nil {
		c.tableErr = err
		return nil, err
	}
	c.table = table
	return table, nil
}

// mainName returns the path with the program name, suitable for usage
// lines.
func (c *Command) mainName() string {
	return strings.TrimSpace(c.Path())
}
