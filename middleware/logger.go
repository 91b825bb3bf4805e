package middleware

import (
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/dskrypa/command-parser/internal/pool"
)

// RequestInfo captures one command execution for the Logger middleware.
// Instances are pooled; callbacks must not retain them past the request.
type RequestInfo struct {
	Command   string
	Args      []string
	StartTime time.Time
	Duration  time.Duration
	Error     error
	Metadata  map[string]any
}

var requestInfoPool = pool.NewPoolWithReset(
	func() *RequestInfo {
		return &RequestInfo{Metadata: make(map[string]any, 4)}
	},
	func(info *RequestInfo) {
		info.Command = ""
		info.Args = info.Args[:0]
		info.StartTime = time.Time{}
		info.Duration = 0
		info.Error = nil
		clear(info.Metadata)
	},
)

// Logger returns a middleware that records command executions to the stream
// named by the config (stderr unless overridden). Completed commands log at
// info (success) or error level; a start record is added at debug level.
func Logger(options ...MiddlewareOption) Middleware {
	config := newConfig(options)
	return logger(config.LogOutput.writer(), config)
}

// LoggerWithWriter is Logger with an explicit destination, ignoring the
// configured LogOutput. Useful for tests and for capturing logs in-process.
func LoggerWithWriter(w io.Writer, options ...MiddlewareOption) Middleware {
	return logger(w, newConfig(options))
}

func logger(sink io.Writer, config *MiddlewareConfig) Middleware {
	return func(next ActionFunc) ActionFunc {
		if sink == nil || config.LogLevel == LogLevelNone {
			return next
		}
		return func(ctx Context) error {
			info := requestInfoPool.Get()
			defer requestInfoPool.Put(info)

			info.Command = commandName(ctx)
			info.Args = append(info.Args, ctx.Args()...)
			info.StartTime = time.Now()

			record(sink, config, info, "START")

			err := next(ctx)

			info.Duration = time.Since(info.StartTime)
			info.Error = err
			if err != nil {
				record(sink, config, info, "ERROR")
			} else {
				record(sink, config, info, "SUCCESS")
			}
			return err
		}
	}
}

// threshold gives the minimum configured level at which a record with the
// given label is emitted.
func threshold(label string) LogLevel {
	switch label {
	case "ERROR":
		return LogLevelError
	case "START":
		return LogLevelDebug
	default:
		return LogLevelInfo
	}
}

// record formats one log line into a pooled buffer and writes it. Write
// errors are ignored; logging is best-effort.
func record(w io.Writer, config *MiddlewareConfig, info *RequestInfo, label string) {
	if config.LogLevel < threshold(label) {
		return
	}

	buf := pool.GetBuffer(256)
	b := (*buf)[:0]
	if config.LogFormat == LogFormatJSON {
		b = appendJSONRecord(b, info, label, config.IncludeArgs)
	} else {
		b = appendTextRecord(b, info, label, config.IncludeArgs)
	}
	b = append(b, '\n')
	_, _ = w.Write(b)
	*buf = b
	pool.PutBuffer(buf)
}

// appendTextRecord renders "[ts] LEVEL command=... duration=... args=... error=...".
func appendTextRecord(b []byte, info *RequestInfo, label string, withArgs bool) []byte {
	b = append(b, '[')
	b = info.StartTime.AppendFormat(b, "2006-01-02 15:04:05")
	b = append(b, "] "...)
	b = append(b, label...)
	b = append(b, " command="...)
	b = append(b, info.Command...)
	if info.Duration > 0 {
		b = append(b, " duration="...)
		b = append(b, info.Duration.String()...)
	}
	if withArgs && len(info.Args) > 0 {
		b = append(b, " args="...)
		for i, arg := range info.Args {
			if i > 0 {
				b = append(b, ' ')
			}
			b = append(b, arg...)
		}
	}
	if info.Error != nil {
		b = append(b, ` error="`...)
		b = append(b, info.Error.Error()...)
		b = append(b, '"')
	}
	return b
}

// appendJSONRecord renders the same record as a single JSON object.
func appendJSONRecord(b []byte, info *RequestInfo, label string, withArgs bool) []byte {
	b = append(b, `{"timestamp":"`...)
	b = info.StartTime.AppendFormat(b, time.RFC3339)
	b = append(b, `","level":"`...)
	b = append(b, label...)
	b = append(b, `","command":"`...)
	b = append(b, info.Command...)
	b = append(b, '"')
	if info.Duration > 0 {
		b = append(b, `,"duration_ms":`...)
		b = strconv.AppendInt(b, info.Duration.Milliseconds(), 10)
	}
	if withArgs && len(info.Args) > 0 {
		b = append(b, `,"args":[`...)
		for i, arg := range info.Args {
			if i > 0 {
				b = append(b, ',')
			}
			b = appendJSONString(b, arg)
		}
		b = append(b, ']')
	}
	if info.Error != nil {
		b = append(b, `,"error":`...)
		b = appendJSONString(b, info.Error.Error())
	}
	if len(info.Metadata) > 0 {
		if enc, err := json.Marshal(info.Metadata); err == nil {
			b = append(b, `,"metadata":`...)
			b = append(b, enc...)
		}
	}
	return append(b, '}')
}

func appendJSONString(b []byte, s string) []byte {
	enc, err := json.Marshal(s)
	if err != nil {
		return append(b, `""`...)
	}
	return append(b, enc...)
}
