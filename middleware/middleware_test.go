package middleware

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// stubCtx is a minimal Context for driving middleware without the parser.
// Values are stored untyped; accessors succeed when the stored value has the
// requested type.
type stubCtx struct {
	args   []string
	vals   map[string]any
	meta   map[string]any
	counts map[string]int
	done   chan struct{}
	stop   sync.Once
}

func newStubCtx() *stubCtx {
	return &stubCtx{
		vals:   make(map[string]any),
		meta:   make(map[string]any),
		counts: make(map[string]int),
		done:   make(chan struct{}),
	}
}

func (s *stubCtx) set(name string, v any) *stubCtx { s.vals[name] = v; return s }

func (s *stubCtx) Done() <-chan struct{}     { return s.done }
func (s *stubCtx) Cancel()                   { s.stop.Do(func() { close(s.done) }) }
func (s *stubCtx) Args() []string            { return s.args }
func (s *stubCtx) Set(key string, value any) { s.meta[key] = value }
func (s *stubCtx) Get(key string) any        { return s.meta[key] }
func (s *stubCtx) Command() Command          { return stubCmd{name: "test"} }
func (s *stubCtx) Count(name string) int     { return s.counts[name] }

func (s *stubCtx) String(name string) (string, bool) { return stubVal[string](s, name) }
func (s *stubCtx) Int(name string) (int, bool)       { return stubVal[int](s, name) }
func (s *stubCtx) Bool(name string) (bool, bool)     { return stubVal[bool](s, name) }
func (s *stubCtx) Float(name string) (float64, bool) { return stubVal[float64](s, name) }
func (s *stubCtx) Strings(name string) ([]string, bool) {
	return stubVal[[]string](s, name)
}
func (s *stubCtx) Ints(name string) ([]int, bool) { return stubVal[[]int](s, name) }
func (s *stubCtx) Duration(name string) (time.Duration, bool) {
	return stubVal[time.Duration](s, name)
}

func stubVal[T any](s *stubCtx, name string) (T, bool) {
	v, ok := s.vals[name].(T)
	return v, ok
}

type stubCmd struct{ name string }

func (c stubCmd) Name() string        { return c.name }
func (c stubCmd) Description() string { return "" }

func okAction(_ Context) error   { return nil }
func boomAction(_ Context) error { panic("boom") }

// sleepAction naps for d unless the context is canceled first.
func sleepAction(d time.Duration) ActionFunc {
	return func(ctx Context) error {
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return errors.New("canceled")
		}
	}
}

func TestChainWrapOrder(t *testing.T) {
	var trace []string
	tag := func(name string) Middleware {
		return func(next ActionFunc) ActionFunc {
			return func(ctx Context) error {
				trace = append(trace, name+"-pre")
				err := next(ctx)
				trace = append(trace, name+"-post")
				return err
			}
		}
	}

	chain := Chain(tag("outer"), tag("inner"))
	err := chain.Apply(func(_ Context) error {
		trace = append(trace, "action")
		return nil
	})(newStubCtx())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"outer-pre", "inner-pre", "action", "inner-post", "outer-post"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace[%d] = %q, want %q", i, trace[i], want[i])
		}
	}
}

func TestChainZeroAndUse(t *testing.T) {
	var chain MiddlewareChain
	if err := chain.Apply(okAction)(newStubCtx()); err != nil {
		t.Fatalf("zero chain: %v", err)
	}

	var hits int
	counting := func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			hits++
			return next(ctx)
		}
	}
	chain = chain.Use(counting, counting)
	if err := chain.Apply(okAction)(newStubCtx()); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if hits != 2 {
		t.Fatalf("hits = %d, want 2", hits)
	}
}

func TestLoggerTextRecords(t *testing.T) {
	var buf bytes.Buffer
	mw := LoggerWithWriter(&buf, WithLogLevel(LogLevelInfo))

	ctx := newStubCtx()
	ctx.args = []string{"deploy", "--env", "prod"}
	if err := mw(okAction)(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "SUCCESS") {
		t.Errorf("missing SUCCESS: %q", out)
	}
	if !strings.Contains(out, "command=test") {
		t.Errorf("missing command: %q", out)
	}
	if !strings.Contains(out, "args=deploy --env prod") {
		t.Errorf("missing args: %q", out)
	}

	buf.Reset()
	fail := func(_ Context) error { return errors.New("deploy blew up") }
	if err := mw(fail)(newStubCtx()); err == nil {
		t.Fatal("expected error to propagate")
	}
	if out := buf.String(); !strings.Contains(out, "ERROR") || !strings.Contains(out, `error="deploy blew up"`) {
		t.Errorf("error record missing fields: %q", out)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	// Error level suppresses success records.
	mw := LoggerWithWriter(&buf, WithLogLevel(LogLevelError))
	if err := mw(okAction)(newStubCtx()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected silence at error level, got %q", buf.String())
	}

	// Debug level adds a START record before the completion record.
	buf.Reset()
	mw = LoggerWithWriter(&buf, WithLogLevel(LogLevelDebug))
	if err := mw(okAction)(newStubCtx()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "START") {
		t.Errorf("missing START record: %q", out)
	}
	if got := strings.Count(out, "\n"); got != 2 {
		t.Errorf("record count = %d, want 2: %q", got, out)
	}
}

func TestLoggerJSONRecords(t *testing.T) {
	var buf bytes.Buffer
	mw := LoggerWithWriter(&buf, WithLogFormat(LogFormatJSON))

	ctx := newStubCtx()
	ctx.args = []string{`a "quoted"`, "line1\nline2"}
	if err := mw(okAction)(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, `{"timestamp":"`) {
		t.Fatalf("unexpected prefix: %q", out)
	}
	if !strings.Contains(out, `"level":"SUCCESS"`) || !strings.Contains(out, `"command":"test"`) {
		t.Errorf("missing fields: %q", out)
	}
	if !strings.Contains(out, `"args":[`) {
		t.Fatalf("missing args array: %q", out)
	}
	if !strings.Contains(out, `\"quoted\"`) {
		t.Errorf("quotes not escaped: %q", out)
	}
	if !strings.Contains(out, `line1\nline2`) {
		t.Errorf("newline not escaped: %q", out)
	}

	buf.Reset()
	fail := func(_ Context) error { return errors.New(`said "no"`) }
	_ = mw(fail)(newStubCtx())
	if out := buf.String(); !strings.Contains(out, `"error":"said \"no\""`) {
		t.Errorf("error not escaped: %q", out)
	}
}

func TestLoggerSilentModes(t *testing.T) {
	// LogOutputNone resolves to no sink; the middleware becomes transparent.
	mw := Logger(WithLogOutput(LogOutputNone))
	if err := mw(okAction)(newStubCtx()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	mw = LoggerWithWriter(&buf, WithLogLevel(LogLevelNone))
	if err := mw(okAction)(newStubCtx()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestSilentChainAllocations(t *testing.T) {
	chain := Chain(
		Logger(WithLogOutput(LogOutputNone)),
		Recovery(WithStackTrace(false)),
		Validate(),
	)
	action := chain.Apply(okAction)
	ctx := newStubCtx()

	for i := 0; i < 10; i++ {
		_ = action(ctx)
	}
	if allocs := testing.AllocsPerRun(100, func() { _ = action(ctx) }); allocs > 0 {
		t.Errorf("silent chain allocates %.2f per run, want 0", allocs)
	}
}

func TestRecoveryCatchesPanic(t *testing.T) {
	mw := Recovery(WithStackTrace(false))
	err := mw(boomAction)(newStubCtx())
	if err == nil {
		t.Fatal("expected recovery error")
	}

	var rec *RecoveryError
	if !errors.As(err, &rec) {
		t.Fatalf("expected *RecoveryError, got %T", err)
	}
	if rec.Panic != "boom" {
		t.Errorf("Panic = %v, want boom", rec.Panic)
	}
	if rec.Command != "test" {
		t.Errorf("Command = %q, want test", rec.Command)
	}
	if len(rec.Stack) != 0 {
		t.Errorf("expected no stack capture, got %d bytes", len(rec.Stack))
	}
}

func TestRecoveryStackCapture(t *testing.T) {
	mw := Recovery(WithStackTrace(true))
	err := mw(boomAction)(newStubCtx())

	var rec *RecoveryError
	if !errors.As(err, &rec) {
		t.Fatalf("expected *RecoveryError, got %T", err)
	}
	if len(rec.Stack) == 0 {
		t.Fatal("expected captured stack")
	}
	if !strings.Contains(string(rec.Stack), "boomAction") {
		t.Errorf("stack missing panic site:\n%s", rec.Stack)
	}
}

func TestRecoveryWithHandler(t *testing.T) {
	sentinel := errors.New("handled")
	var gotPanic any
	var gotCommand string

	mw := RecoveryWithHandler(func(panicVal any, command string, _ []byte) error {
		gotPanic = panicVal
		gotCommand = command
		return sentinel
	}, WithStackTrace(false))

	if err := mw(boomAction)(newStubCtx()); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	if gotPanic != "boom" || gotCommand != "test" {
		t.Errorf("handler saw (%v, %q)", gotPanic, gotCommand)
	}
}

func TestTimeoutExpires(t *testing.T) {
	mw := Timeout(15 * time.Millisecond)
	err := mw(sleepAction(250 * time.Millisecond))(newStubCtx())

	var terr *TimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TimeoutError, got %v", err)
	}
	if terr.Duration != 15*time.Millisecond {
		t.Errorf("Duration = %v", terr.Duration)
	}
	if terr.Command != "test" {
		t.Errorf("Command = %q", terr.Command)
	}
}

func TestTimeoutWithinLimit(t *testing.T) {
	mw := Timeout(2 * time.Second)
	if err := mw(okAction)(newStubCtx()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTimeoutCatchesPanic(t *testing.T) {
	mw := Timeout(2 * time.Second)
	err := mw(boomAction)(newStubCtx())

	var rec *RecoveryError
	if !errors.As(err, &rec) {
		t.Fatalf("expected *RecoveryError, got %v", err)
	}
	if rec.Panic != "boom" {
		t.Errorf("Panic = %v", rec.Panic)
	}
}

func TestTimeoutExternalCancel(t *testing.T) {
	ctx := newStubCtx()
	ctx.Cancel()

	// The action ignores cancellation, so only ctx.Done can win the select.
	nap := func(_ Context) error { time.Sleep(50 * time.Millisecond); return nil }
	if err := Timeout(2 * time.Second)(nap)(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTimeoutPerCommand(t *testing.T) {
	limits := map[string]time.Duration{"test": 15 * time.Millisecond}
	mw := TimeoutPerCommand(limits, 5*time.Second)

	err := mw(sleepAction(250 * time.Millisecond))(newStubCtx())
	var terr *TimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TimeoutError, got %v", err)
	}
	if terr.Duration != 15*time.Millisecond {
		t.Errorf("per-command limit not applied: %v", terr.Duration)
	}

	// Unlisted command falls back.
	mw = TimeoutPerCommand(map[string]time.Duration{"other": time.Millisecond}, 2*time.Second)
	if err := mw(okAction)(newStubCtx()); err != nil {
		t.Fatalf("fallback limit: %v", err)
	}
}

func TestDynamicTimeout(t *testing.T) {
	// Non-positive limit runs unbounded.
	mw := DynamicTimeout(func(Context) time.Duration { return 0 })
	if err := mw(sleepAction(20 * time.Millisecond))(newStubCtx()); err != nil {
		t.Fatalf("unbounded run: %v", err)
	}

	mw = DynamicTimeout(func(Context) time.Duration { return 15 * time.Millisecond })
	err := mw(sleepAction(250 * time.Millisecond))(newStubCtx())
	var terr *TimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TimeoutError, got %v", err)
	}
}

func TestTimeoutFromParam(t *testing.T) {
	mw := TimeoutFromParam("limit", 2*time.Second)

	ctx := newStubCtx().set("limit", 15*time.Millisecond)
	err := mw(sleepAction(250 * time.Millisecond))(ctx)
	var terr *TimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TimeoutError, got %v", err)
	}
	if terr.Duration != 15*time.Millisecond {
		t.Errorf("parameter limit not applied: %v", terr.Duration)
	}

	// Without the parameter the fallback is generous enough to finish.
	if err := mw(okAction)(newStubCtx()); err != nil {
		t.Fatalf("fallback limit: %v", err)
	}
}

func TestValidateOrderAndWrapping(t *testing.T) {
	base := errors.New("db unreachable")
	mw := Validate(
		Custom("check_db", func(Context) error { return base }),
		Custom("never_runs", func(Context) error { t.Fatal("second validator ran"); return nil }),
	)

	err := mw(okAction)(newStubCtx())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Field != "check_db" {
		t.Errorf("Field = %q, want check_db", verr.Field)
	}
	if !errors.Is(err, base) {
		t.Error("cause not reachable through Unwrap")
	}
}

func TestValidatePassthrough(t *testing.T) {
	ready := &ValidationError{Field: "port", Value: 99999, Message: "out of range"}
	mw := Validate(Custom("port_range", func(Context) error { return ready }))

	err := mw(okAction)(newStubCtx())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr != ready {
		t.Errorf("validation error was rewrapped: %+v", verr)
	}

	// Passing validators reach the action.
	ran := false
	mw = Validate(Custom("ok", func(Context) error { return nil }))
	if err := mw(func(Context) error { ran = true; return nil })(newStubCtx()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Fatal("action did not run")
	}
}

func TestRequiredWhen(t *testing.T) {
	secure := func(ctx Context) error {
		if on, _ := ctx.Bool("secure"); on {
			return nil
		}
		return errors.New("not secure")
	}
	mw := Validate(RequiredWhen(secure, "cert", "key"))

	// Condition unmet: nothing is required.
	if err := mw(okAction)(newStubCtx()); err != nil {
		t.Fatalf("condition off: %v", err)
	}

	// Condition met with both missing.
	ctx := newStubCtx().set("secure", true)
	err := mw(okAction)(ctx)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Message, "cert, key") {
		t.Errorf("Message = %q", verr.Message)
	}

	// Condition met and both provided.
	ctx = newStubCtx().set("secure", true).set("cert", "server.crt").set("key", "server.key")
	if err := mw(okAction)(ctx); err != nil {
		t.Fatalf("provided: %v", err)
	}
}

func TestFileAndDirValidators(t *testing.T) {
	dir := t.TempDir()
	f, err := os.CreateTemp(dir, "sample-*.txt")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	_ = f.Close()

	mw := Validate(File("config"), Dir("out"))

	// Unset parameters are skipped.
	if err := mw(okAction)(newStubCtx()); err != nil {
		t.Fatalf("unset params: %v", err)
	}

	// Both valid.
	ctx := newStubCtx().set("config", path).set("out", dir)
	if err := mw(okAction)(ctx); err != nil {
		t.Fatalf("valid paths: %v", err)
	}

	// Missing file.
	ctx = newStubCtx().set("config", filepath.Join(dir, "missing.txt"))
	if err := mw(okAction)(ctx); err == nil {
		t.Fatal("expected error for missing file")
	}

	// Directory where a file is required, and vice versa.
	ctx = newStubCtx().set("config", dir)
	if err := mw(okAction)(ctx); err == nil {
		t.Fatal("expected error for directory as file")
	}
	ctx = newStubCtx().set("out", path)
	err = mw(okAction)(ctx)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Field != "out" || verr.Value != path {
		t.Errorf("Field=%q Value=%v", verr.Field, verr.Value)
	}
}

func TestErrorMessages(t *testing.T) {
	terr := &TimeoutError{Duration: 2 * time.Second, Command: "sync"}
	if got := terr.Error(); got != "command 'sync' timed out after 2s" {
		t.Errorf("TimeoutError = %q", got)
	}

	cases := []struct {
		panicVal any
		want     string
	}{
		{"boom", "command 'run' panicked: boom"},
		{errors.New("bad state"), "command 'run' panicked: bad state"},
		{42, "command 'run' panicked: 42"},
		{nil, "command 'run' panicked: <nil>"},
	}
	for _, tc := range cases {
		rec := &RecoveryError{Panic: tc.panicVal, Command: "run"}
		if got := rec.Error(); got != tc.want {
			t.Errorf("RecoveryError(%v) = %q, want %q", tc.panicVal, got, tc.want)
		}
	}

	verr := &ValidationError{Message: "bad port", Cause: errors.New("NaN")}
	if got := verr.Error(); got != "bad port: NaN" {
		t.Errorf("ValidationError = %q", got)
	}
	verr = &ValidationError{Message: "bad port"}
	if got := verr.Error(); got != "bad port" {
		t.Errorf("ValidationError = %q", got)
	}
}

func TestErrorPropagation(t *testing.T) {
	sentinel := errors.New("original")
	chain := Chain(
		Logger(WithLogOutput(LogOutputNone)),
		Recovery(WithStackTrace(false)),
		Validate(),
	)
	err := chain.Apply(func(Context) error { return sentinel })(newStubCtx())
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
}
