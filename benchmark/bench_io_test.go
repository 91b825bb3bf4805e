package benchmark

import (
	"bytes"
	"testing"

	parseio "github.com/dskrypa/command-parser/io"
)

// Category: io

func BenchmarkIO_Colorize(b *testing.B) {
	b.Run("on", func(b *testing.B) {
		iom := parseio.New().ForceColor()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = iom.Colorize("deploy finished", "32")
		}
	})

	b.Run("off", func(b *testing.B) {
		iom := parseio.New().NoColor()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = iom.Colorize("deploy finished", "32")
		}
	})
}

func BenchmarkIO_StyledSprint(b *testing.B) {
	iom := parseio.New().ForceColor()
	style := parseio.NewStyle().Fg(parseio.Indexed(69)).Bold()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = style.Sprint(iom, "styled output")
	}
}

func BenchmarkIO_Write(b *testing.B) {
	var sink bytes.Buffer
	iom := parseio.New().WithOut(&sink)
	line := []byte("one line of command output\n")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = iom.Out().Write(line)
		sink.Reset()
	}
}

func BenchmarkIO_LoggerLine(b *testing.B) {
	var sink bytes.Buffer
	iom := parseio.New().NoColor().WithOut(&sink).WithErr(&sink)
	log := parseio.NewLogger(iom).WithFormat(parseio.LogFormatTagged)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		log.Info("parsed %d of %d arguments", i, b.N)
		sink.Reset()
	}
}
