package cmdparse

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/google/shlex"

	parseio "github.com/dskrypa/command-parser/io"
	"github.com/dskrypa/command-parser/middleware"
)

// parseOutcome carries the state of a completed accumulation pass:
// the resolved command, its merged table, the shared store, and whether
// an always-available action flag short-circuited validation.
type parseOutcome struct {
	resolved *Command
	table    *CommandTable
	store    *valueStore
	bypass   bool
}

// Parse runs the full pipeline against args: token accumulation with
// sub-command dispatch, environment fallbacks, defaults, and the
// deferred validation checks. Callbacks do not run; the returned
// Context is the inspection surface. Errors are the core *ParseError
// values, without presentation decoration.
func (c *Command) Parse(args []string) (*Context, error) {
	outcome, perr, _ := c.parseAll(args)
	if perr != nil {
		return nil, perr
	}
	return c.newContext(context.Background(), nil, outcome, args), nil
}

// ParseString splits a shell-style line and parses the result.
func (c *Command) ParseString(line string) (*Context, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return nil, newUsageError("failed to split command line: %v", err)
	}
	return c.Parse(args)
}

// parseAll drives matching across the dispatch chain and finalizes the
// resolved table. The third result is the command whose table was
// active when an error occurred, for suggestion context.
func (c *Command) parseAll(args []string) (*parseOutcome, *ParseError, *Command) {
	store := newValueStore()
	stream := newTokenStream(args)
	defer stream.release()
	active := c

	var table *CommandTable
	for {
		t, err := active.Table()
		if err != nil {
			pe, ok := err.(*ParseError)
			if !ok {
				pe = newCommandDefinitionError(active.Path(), "%v", err)
			}
			return nil, pe, active
		}
		table = t

		child, perr := newMatcher(table, store, stream).run()
		if perr != nil {
			return nil, perr, active
		}
		if child == nil {
			break
		}
		active = child
	}

	outcome := &parseOutcome{resolved: active, table: table, store: store}
	for _, p := range table.Params {
		if p.Kind == KindActionFlag && p.AlwaysAvailable && store.wasInvoked(p) {
			outcome.bypass = true
			break
		}
	}
	if outcome.bypass {
		return outcome, nil, active
	}

	if sub := table.SubCommand; sub != nil && sub.Required && !store.hasValue(sub) {
		hint := ""
		if keys := choiceKeys(table.Choices); len(keys) > 0 {
			hint = "(choose from: " + strings.Join(keys, ", ") + ")"
		}
		return nil, newMissingArgument(sub.Name, hint), active
	}

	logger := parseio.NewLogger(c.IO()).WithFormat(parseio.LogFormatTagged)
	warn := func(format string, fmtArgs ...any) {
		logger.Warning(format, fmtArgs...)
	}
	if perr := finalize(table, store, warn); perr != nil {
		return nil, perr, active
	}
	return outcome, nil, active
}

// newContext assembles the per-parse Context handed to callbacks.
func (c *Command) newContext(ctx context.Context, cancel context.CancelFunc, outcome *parseOutcome, args []string) *Context {
	return &Context{
		root:     c,
		command:  outcome.resolved,
		table:    outcome.table,
		store:    outcome.store,
		args:     args,
		ctx:      ctx,
		cancel:   cancel,
		metadata: make(map[string]any),
	}
}

// Run parses os.Args and executes the resolved command.
func (c *Command) Run() error {
	return c.RunContext(context.Background())
}

// RunContext runs with a context for cancellation.
func (c *Command) RunContext(ctx context.Context) error {
	return c.RunWithArgs(ctx, os.Args[1:])
}

// RunWithArgs parses the provided arguments and executes the resolved
// command: before hooks from the root down, the deepest main wrapped in
// the middleware chain, then after hooks back up. Action flag callbacks
// run around main according to their scheduling.
func (c *Command) RunWithArgs(ctx context.Context, args []string) error {
	if runtime.GOOS == "windows" && c.IO().IsTTY() && os.Getenv("CMDPARSE_DISABLE_VT") == "" {
		_ = c.IO().EnableVirtualTerminal()
	}

	outcome, perr, at := c.parseAll(args)
	if perr != nil {
		return c.presentError(perr, at)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	execCtx := c.newContext(runCtx, cancel, outcome, args)

	if err := runActionFlags(execCtx, outcome, true); err != nil {
		return c.finishRun(execCtx, err)
	}
	if outcome.bypass {
		return c.finishRun(execCtx, nil)
	}

	for _, node := range commandChain(c, outcome.resolved) {
		if node.beforeFn != nil {
			if err := node.beforeFn(execCtx); err != nil {
				return c.finishRun(execCtx, err)
			}
		}
	}

	main := effectiveMain(c, outcome.resolved)
	if main == nil {
		fmt.Fprint(c.IO().Out(), HelpText(outcome.resolved))
		return c.finishRun(execCtx, nil)
	}

	action := func(middleware.Context) error { return main(execCtx) }
	if err := c.Root().chain.Apply(action)(execCtx); err != nil {
		return c.finishRun(execCtx, err)
	}

	if err := runActionFlags(execCtx, outcome, false); err != nil {
		return c.finishRun(execCtx, err)
	}
	chain := commandChain(c, outcome.resolved)
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].afterFn != nil {
			if err := chain[i].afterFn(execCtx); err != nil {
				return c.finishRun(execCtx, err)
			}
		}
	}
	return c.finishRun(execCtx, nil)
}

// finishRun folds in an exit request recorded by Context.Exit.
func (c *Command) finishRun(execCtx *Context, err error) error {
	if exitErr, ok := execCtx.Get(exitMetadataKey).(*ExitError); ok {
		return exitErr
	}
	return err
}

// RunAndGetExitCode runs and maps the result through the exit code
// manager.
func (c *Command) RunAndGetExitCode() int {
	err := c.Run()
	if err == nil {
		return c.ExitCodes().defaults.Success
	}
	return c.ExitCodes().resolve(err)
}

// RunAndExit terminates the process with the mapped exit code.
func (c *Command) RunAndExit() {
	os.Exit(c.RunAndGetExitCode())
}

// presentError turns a core error into its user-facing form, printing
// it through the error handler.
func (c *Command) presentError(perr *ParseError, at *Command) error {
	if at == nil {
		at = c
	}
	handler := c.errorHandler()
	cli := handler.Process(perr, at)
	handler.Display(cli, at)
	return cli
}

// runActionFlags executes invoked action flag callbacks scheduled for
// the requested phase, in Order then Name order.
func runActionFlags(execCtx *Context, outcome *parseOutcome, before bool) error {
	var flags []*Parameter
	for _, p := range outcome.table.Params {
		if p.Kind != KindActionFlag || p.Callback == nil || p.Before != before {
			continue
		}
		if outcome.store.wasInvoked(p) {
			flags = append(flags, p)
		}
	}
	sort.Slice(flags, func(i, j int) bool {
		if flags[i].Order != flags[j].Order {
			return flags[i].Order < flags[j].Order
		}
		return flags[i].Name < flags[j].Name
	})
	for _, p := range flags {
		if err := p.Callback(execCtx); err != nil {
			return err
		}
	}
	return nil
}

// commandChain lists the nodes from the parse root down to the resolved
// command.
func commandChain(root, resolved *Command) []*Command {
	var chain []*Command
	for node := resolved; node != nil; node = node.parent {
		chain = append(chain, node)
		if node == root {
			break
		}
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// effectiveMain finds the entry point dispatch resolved to: the deepest
// main in the chain, so children inherit an ancestor's main unless they
// declare their own.
func effectiveMain(root, resolved *Command) func(*Context) error {
	for node := resolved; node != nil; node = node.parent {
		if node.mainFn != nil {
			return node.mainFn
		}
		if node == root {
			break
		}
	}
	return nil
}

// ensureHelp attaches the automatic --help action flag to the root
// once, unless configuration disables it or a parameter named help
// already exists. It runs at first table build so every composed table
// sees the flag.
func (c *Command) ensureHelp() {
	if c.helpWired || !c.Config().AddHelp {
		return
	}
	c.helpWired = true
	for _, p := range c.params {
		if p.Name == "help" {
			return
		}
	}
	help := newActionFlag("help", helpAction)
	help.Description = "Show this help message and exit"
	help.LongForms = []string{"--help"}
	help.AlwaysAvailable = true
	help.Order = -1000
	if !c.shortFormTaken("-h") {
		help.ShortForms = []string{"-h"}
	}
	c.addParam(help)
}

func (c *Command) shortFormTaken(short string) bool {
	for node := c; node != nil; node = node.parent {
		for _, p := range node.params {
			for _, s := range p.ShortForms {
				if s == short {
					return true
				}
			}
		}
	}
	return false
}

// helpAction renders the resolved command's help text.
func helpAction(ctx *Context) error {
	fmt.Fprint(ctx.Stdout(), HelpText(ctx.Resolved()))
	return nil
}
