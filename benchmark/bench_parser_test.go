package benchmark

import (
	"testing"

	"github.com/dskrypa/command-parser/cmdparse"
)

// Category: parser

func buildSimpleCommand() *cmdparse.Command {
	return cmdparse.New("bench", "bench").
		IntOption("port", "").Default(8080).Back().
		Flag("verbose", "").Back().
		Build()
}

func BenchmarkParserSimple(b *testing.B) {
	cmd := buildSimpleCommand()
	args := []string{"--port", "9000", "--verbose"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ctx, err := cmd.Parse(args)
		if err != nil || ctx == nil {
			b.Fatal(err)
		}
		if v, ok := ctx.Bool("verbose"); !ok || !v {
			b.Fatalf("verbose not parsed")
		}
	}
}

func BenchmarkParserSubCommand(b *testing.B) {
	root := cmdparse.New("bench", "bench").
		Flag("global", "").Back()
	root.Command("serve", "").
		IntOption("port", "").Default(8080).Back().
		StringOption("host", "").Default("localhost").Back()
	cmd := root.Build()

	args := []string{"--global", "serve", "--port", "9000", "--host", "0.0.0.0"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ctx, err := cmd.Parse(args)
		if err != nil {
			b.Fatal(err)
		}
		if ctx.Resolved().Name() != "serve" {
			b.Fatalf("command mismatch")
		}
	}
}

func BenchmarkParserInlineValues(b *testing.B) {
	cmd := cmdparse.New("bench", "bench").
		IntOption("port", "").Default(8080).Back().
		StringOption("config", "").Back().
		Flag("verbose", "").Back().
		Build()
	args := []string{"--port=9000", "--config=/path/to/config.json", "--verbose"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cmd.Parse(args); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParserShortCluster(b *testing.B) {
	cmd := cmdparse.New("bench", "bench").
		Flag("all", "").Short('a').Back().
		Flag("long", "").Short('l').Back().
		Counter("verbose", "").Short('v').Back().
		Build()
	args := []string{"-alvvv"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ctx, err := cmd.Parse(args)
		if err != nil {
			b.Fatal(err)
		}
		if ctx.Count("verbose") != 3 {
			b.Fatalf("cluster not parsed")
		}
	}
}

func BenchmarkParserUnknownOption(b *testing.B) {
	cmd := buildSimpleCommand()
	args := []string{"--prot", "9000"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cmd.Parse(args); err == nil {
			b.Fatal("expected error")
		}
	}
}

func BenchmarkParserTypedValues(b *testing.B) {
	cmd := cmdparse.New("bench", "bench").
		StringOption("name", "").Back().
		IntOption("port", "").Back().
		FloatOption("ratio", "").Back().
		DurationOption("timeout", "").Back().
		StringsOption("tags", "").Back().
		Flag("verbose", "").Back().
		Build()
	args := []string{
		"--name", "command-parser",
		"--port", "8443",
		"--ratio", "3.14",
		"--timeout", "1h30m",
		"--tags", "cli", "--tags", "parser",
		"--verbose",
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cmd.Parse(args); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParserGroups(b *testing.B) {
	cmd := cmdparse.New("bench", "bench").
		Group("output").
		MutuallyExclusive().
		Flag("json", "").Back().
		Flag("yaml", "").Back().
		EndGroup().
		StringOption("config", "").Back().
		Build()
	args := []string{"--json", "--config", "test.conf"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cmd.Parse(args); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParserPositionals(b *testing.B) {
	builder := cmdparse.New("bench", "bench")
	builder.Positional("src", "")
	builder.Positional("files", "").NArgs(cmdparse.OneOrMore)
	cmd := builder.Build()

	args := []string{"root", "a.txt", "b.txt", "c.txt"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cmd.Parse(args); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseString(b *testing.B) {
	cmd := buildSimpleCommand()
	line := `--port 9000 --verbose`
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cmd.ParseString(line); err != nil {
			b.Fatal(err)
		}
	}
}

// Table building: memoized lookup vs a full declare-and-build cycle.

func BenchmarkTableMemoized(b *testing.B) {
	cmd := buildSimpleCommand()
	if _, err := cmd.Table(); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cmd.Table(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTableBuild(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		cmd := cmdparse.New("bench", "bench").
			IntOption("port", "").Default(8080).Back().
			StringOption("host", "").Default("localhost").Back().
			Flag("verbose", "").Short('v').Back().
			Build()
		if _, err := cmd.Table(); err != nil {
			b.Fatal(err)
		}
	}
}
