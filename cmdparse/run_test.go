package cmdparse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	parseio "github.com/dskrypa/command-parser/io"
	"github.com/dskrypa/command-parser/middleware"
)

func captureIO() (*parseio.IOManager, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return parseio.New().WithOut(&out).WithErr(&errOut).NoColor(), &out, &errOut
}

// TestRunHookOrder tests before hooks running root first, after hooks
// leaf first, around the resolved main.
func TestRunHookOrder(t *testing.T) {
	var order []string
	record := func(tag string) ActionFunc {
		return func(*Context) error {
			order = append(order, tag)
			return nil
		}
	}

	b := New("app", "")
	b.Before(record("root-before"))
	b.After(record("root-after"))
	b.Command("deploy", "").
		Before(record("child-before")).
		After(record("child-after")).
		Main(record("main"))

	if err := b.Build().RunWithArgs(context.Background(), []string{"deploy"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []string{"root-before", "child-before", "main", "child-after", "root-after"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("Execution order mismatch (-want +got):\n%s", diff)
	}
}

// TestMainInheritance tests a child without its own entry point running
// the nearest ancestor's.
func TestMainInheritance(t *testing.T) {
	var ranAt string
	b := New("app", "")
	b.Main(func(ctx *Context) error {
		ranAt = ctx.Path()
		return nil
	})
	b.Command("sub", "")

	if err := b.Build().RunWithArgs(context.Background(), []string{"sub"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if ranAt != "app sub" {
		t.Errorf("Expected the inherited main to see path 'app sub', got %q", ranAt)
	}

	// A child main shadows the inherited one.
	var childRan bool
	b2 := New("app", "")
	b2.Main(func(*Context) error {
		t.Error("Root main should not run")
		return nil
	})
	b2.Command("sub", "").Main(func(*Context) error {
		childRan = true
		return nil
	})
	if err := b2.Build().RunWithArgs(context.Background(), []string{"sub"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !childRan {
		t.Error("Expected the child main to run")
	}
}

// TestRunWithoutMainPrintsHelp tests the fallback when no entry point is
// defined anywhere in the chain.
func TestRunWithoutMainPrintsHelp(t *testing.T) {
	iom, out, _ := captureIO()
	b := New("app", "Test application")
	b.WithIO(iom)
	b.Flag("force", "Force the thing")

	if err := b.Build().RunWithArgs(context.Background(), nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.String(), "usage: app") {
		t.Errorf("Expected help output, got: %q", out.String())
	}
	if !strings.Contains(out.String(), "--force") {
		t.Errorf("Expected the flag in help output, got: %q", out.String())
	}
}

// TestHelpFlagBypass tests that --help prints help and skips hooks,
// validation, and main.
func TestHelpFlagBypass(t *testing.T) {
	iom, out, _ := captureIO()
	var beforeRan, mainRan bool
	b := New("app", "Test application")
	b.WithIO(iom)
	b.Positional("file", "Input file")
	b.Before(func(*Context) error {
		beforeRan = true
		return nil
	})
	b.Main(func(*Context) error {
		mainRan = true
		return nil
	})

	if err := b.Build().RunWithArgs(context.Background(), []string{"--help"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if mainRan {
		t.Error("Expected main to be skipped under --help")
	}
	if beforeRan {
		t.Error("Expected before hooks to be skipped under --help")
	}
	if !strings.Contains(out.String(), "usage: app") {
		t.Errorf("Expected help output, got: %q", out.String())
	}
}

// TestActionFlagScheduling tests callback ordering around main: explicit
// Order first, declaration order as the tiebreaker, RunAfter callbacks
// after main.
func TestActionFlagScheduling(t *testing.T) {
	var order []string
	record := func(tag string) ActionFunc {
		return func(*Context) error {
			order = append(order, tag)
			return nil
		}
	}

	b := New("app", "")
	b.ActionFlag("init", "", record("init"))
	b.ActionFlag("audit", "", record("audit")).Order(-1)
	b.ActionFlag("cleanup", "", record("cleanup")).RunAfter()
	b.Main(record("main"))

	err := b.Build().RunWithArgs(context.Background(), []string{"--init", "--audit", "--cleanup"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []string{"audit", "init", "main", "cleanup"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("Callback order mismatch (-want +got):\n%s", diff)
	}

	// Uninvoked action flags stay silent.
	order = nil
	err = b.Build().RunWithArgs(context.Background(), []string{"--init"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if diff := cmp.Diff([]string{"init", "main"}, order); diff != "" {
		t.Errorf("Callback order mismatch (-want +got):\n%s", diff)
	}

	// Name breaks ties between flags sharing an Order.
	order = nil
	b2 := New("app", "")
	b2.ActionFlag("zeta", "", record("zeta"))
	b2.ActionFlag("alpha", "", record("alpha"))
	b2.Main(record("main"))
	err = b2.Build().RunWithArgs(context.Background(), []string{"--zeta", "--alpha"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if diff := cmp.Diff([]string{"alpha", "zeta", "main"}, order); diff != "" {
		t.Errorf("Callback order mismatch (-want +got):\n%s", diff)
	}
}

// TestMiddlewareWrapOrder tests that the first middleware registered
// becomes the outermost wrapper.
func TestMiddlewareWrapOrder(t *testing.T) {
	var order []string
	mw := func(tag string) middleware.Middleware {
		return func(next middleware.ActionFunc) middleware.ActionFunc {
			return func(ctx middleware.Context) error {
				order = append(order, tag+"-in")
				err := next(ctx)
				order = append(order, tag+"-out")
				return err
			}
		}
	}

	b := New("app", "")
	b.Use(mw("outer"), mw("inner"))
	b.Main(func(*Context) error {
		order = append(order, "main")
		return nil
	})

	if err := b.Build().RunWithArgs(context.Background(), nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []string{"outer-in", "inner-in", "main", "inner-out", "outer-out"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("Wrap order mismatch (-want +got):\n%s", diff)
	}
}

// TestMainErrorSkipsAfterHooks tests that a failing main suppresses the
// after hooks and surfaces its error unchanged.
func TestMainErrorSkipsAfterHooks(t *testing.T) {
	boom := errors.New("boom")
	var afterRan bool
	b := New("app", "")
	b.Main(func(*Context) error { return boom })
	b.After(func(*Context) error {
		afterRan = true
		return nil
	})

	err := b.Build().RunWithArgs(context.Background(), nil)
	if !errors.Is(err, boom) {
		t.Errorf("Expected the main error, got %v", err)
	}
	if afterRan {
		t.Error("Expected after hooks to be skipped on main failure")
	}
}

// TestBeforeHookErrorSkipsMain tests that a failing before hook stops
// the run.
func TestBeforeHookErrorSkipsMain(t *testing.T) {
	boom := errors.New("not ready")
	var mainRan bool
	b := New("app", "")
	b.Before(func(*Context) error { return boom })
	b.Main(func(*Context) error {
		mainRan = true
		return nil
	})

	err := b.Build().RunWithArgs(context.Background(), nil)
	if !errors.Is(err, boom) {
		t.Errorf("Expected the hook error, got %v", err)
	}
	if mainRan {
		t.Error("Expected main to be skipped after a hook failure")
	}
}

func TestContextExit(t *testing.T) {
	b := New("app", "")
	b.Main(func(ctx *Context) error {
		ctx.Exit(5)
		return nil
	})

	err := b.Build().RunWithArgs(context.Background(), nil)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Expected *ExitError, got %v (%T)", err, err)
	}
	if exitErr.Code != 5 {
		t.Errorf("Expected code 5, got %d", exitErr.Code)
	}
}

// TestContextExitOnError tests the nil no-op and the mapped code for a
// plain error.
func TestContextExitOnError(t *testing.T) {
	b := New("app", "")
	b.Main(func(ctx *Context) error {
		ctx.ExitOnError(nil)
		return nil
	})
	if err := b.Build().RunWithArgs(context.Background(), nil); err != nil {
		t.Errorf("Expected nil to be a no-op, got %v", err)
	}

	fail := errors.New("backend unavailable")
	b2 := New("app", "")
	b2.Main(func(ctx *Context) error {
		ctx.ExitOnError(fail)
		return nil
	})
	err := b2.Build().RunWithArgs(context.Background(), nil)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Expected *ExitError, got %v (%T)", err, err)
	}
	if exitErr.Code != 1 {
		t.Errorf("Expected the general error code, got %d", exitErr.Code)
	}
	if !errors.Is(err, fail) {
		t.Error("Expected the original error to be wrapped")
	}
}

// TestContextMetadata tests values shared between hooks through the
// context.
func TestContextMetadata(t *testing.T) {
	b := New("app", "")
	b.Before(func(ctx *Context) error {
		ctx.Set("conn", "db-7")
		return nil
	})
	b.Main(func(ctx *Context) error {
		if conn, _ := ctx.Get("conn").(string); conn != "db-7" {
			return fmt.Errorf("expected metadata from the before hook, got %v", ctx.Get("conn"))
		}
		return nil
	})

	if err := b.Build().RunWithArgs(context.Background(), nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

// TestRunErrorPresentation tests the formatted error, the fuzzy option
// suggestion, and the CLIError returned to the caller.
func TestRunErrorPresentation(t *testing.T) {
	iom, _, errOut := captureIO()
	b := New("app", "")
	b.WithIO(iom)
	b.WithErrorHandler(NewErrorHandler().SuggestOptions(true))
	b.Flag("verbose", "").Short('v')
	b.Main(func(*Context) error { return nil })

	err := b.Build().RunWithArgs(context.Background(), []string{"--verbos"})
	if err == nil {
		t.Fatal("Expected an error for the unknown option")
	}
	var cli *CLIError
	if !errors.As(err, &cli) {
		t.Fatalf("Expected *CLIError, got %T", err)
	}
	if cli.Type != ErrorNoSuchOption {
		t.Errorf("Expected type %s, got %s", ErrorNoSuchOption, cli.Type)
	}
	if !strings.Contains(err.Error(), "Error: no such option: --verbos") {
		t.Errorf("Unexpected formatted error: %q", err.Error())
	}
	if !strings.Contains(err.Error(), "Did you mean '--verbose'?") {
		t.Errorf("Expected a suggestion, got: %q", err.Error())
	}
	shown := errOut.String()
	if !strings.Contains(shown, "no such option: --verbos") {
		t.Errorf("Expected the error on stderr, got: %q", shown)
	}
	if !strings.Contains(shown, "Did you mean '--verbose'?") {
		t.Errorf("Expected the suggestion on stderr, got: %q", shown)
	}
}

// TestRunErrorChoiceSuggestion tests the fuzzy hint for a mistyped
// sub-command choice.
func TestRunErrorChoiceSuggestion(t *testing.T) {
	iom, _, _ := captureIO()
	b := New("svc", "")
	b.WithIO(iom)
	b.WithErrorHandler(NewErrorHandler().SuggestChoices(true))
	b.Command("status", "")
	b.Command("restart", "")

	err := b.Build().RunWithArgs(context.Background(), []string{"statsu"})
	if err == nil {
		t.Fatal("Expected an error for the unknown choice")
	}
	if !strings.Contains(err.Error(), "Did you mean 'status'?") {
		t.Errorf("Expected a choice suggestion, got: %q", err.Error())
	}
}

// TestRunErrorShowUsage tests usage text after the error message.
func TestRunErrorShowUsage(t *testing.T) {
	iom, _, errOut := captureIO()
	b := New("app", "")
	b.WithIO(iom)
	b.WithErrorHandler(NewErrorHandler().ShowUsage(true))
	b.Positional("file", "")

	err := b.Build().RunWithArgs(context.Background(), nil)
	if err == nil {
		t.Fatal("Expected an error for the missing positional")
	}
	shown := errOut.String()
	if !strings.Contains(shown, "Error: missing required arguments: file") {
		t.Errorf("Expected the error message, got: %q", shown)
	}
	if !strings.Contains(shown, "usage: app") {
		t.Errorf("Expected usage text after the error, got: %q", shown)
	}
}

// TestExitCodeResolution tests mapping run results to process exit
// codes.
func TestExitCodeResolution(t *testing.T) {
	iom, _, _ := captureIO()
	b := New("app", "")
	b.WithIO(iom)
	b.StringOption("mode", "").Choices("fast", "slow")
	b.Main(func(*Context) error { return nil })
	cmd := b.Build()

	if err := cmd.RunWithArgs(context.Background(), nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if code := cmd.ExitCodes().resolve(nil); code != 0 {
		t.Errorf("Expected success code 0, got %d", code)
	}

	err := cmd.RunWithArgs(context.Background(), []string{"--mode", "turbo"})
	if code := cmd.ExitCodes().resolve(err); code != 2 {
		t.Errorf("Expected usage code 2, got %d", code)
	}

	err = cmd.RunWithArgs(context.Background(), []string{"--bogus"})
	if code := cmd.ExitCodes().resolve(err); code != 2 {
		t.Errorf("Expected usage code 2 for an unknown option, got %d", code)
	}
}
