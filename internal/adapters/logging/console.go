package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blinders/blinders-cli/internal/ports"
)

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// entry is one log line before encoding.
type entry struct {
	at     time.Time
	level  ports.Level
	msg    string
	fields []ports.Field
}

type encoder func(w io.Writer, e entry, stamp, label bool)

// ConsoleLogger writes one line per entry to a writer. Loggers derived
// with With share their parent's lock, so concurrent steps never
// interleave partial lines.
type ConsoleLogger struct {
	mu     *sync.Mutex
	out    io.Writer
	level  ports.Level
	fields []ports.Field
	encode encoder
	format string
	stamp  bool
	label  bool
	now    func() time.Time
}

// ConsoleLoggerOption configures a ConsoleLogger.
type ConsoleLoggerOption func(*ConsoleLogger)

// WithOutput sets the destination (default os.Stderr).
func WithOutput(w io.Writer) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.out = w }
}

// WithLevel sets the minimum level written (default info).
func WithLevel(level ports.Level) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.level = level }
}

// WithJSONFormat switches to JSON lines.
func WithJSONFormat(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		if enabled {
			l.encode, l.format = encodeJSON, FormatJSON
		} else {
			l.encode, l.format = encodeText, FormatText
		}
	}
}

// WithTimestamp toggles the timestamp.
func WithTimestamp(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.stamp = enabled }
}

// WithLevelLabel toggles the level label.
func WithLevelLabel(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.label = enabled }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.now = now }
}

// NewConsoleLogger creates a text logger on stderr at info level.
func NewConsoleLogger(opts ...ConsoleLoggerOption) *ConsoleLogger {
	l := &ConsoleLogger{
		mu:     &sync.Mutex{},
		out:    os.Stderr,
		level:  ports.LevelInfo,
		encode: encodeText,
		format: FormatText,
		stamp:  true,
		label:  true,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// New builds a logger from the log.level and log.format settings.
func New(w io.Writer, level, format string) (*ConsoleLogger, error) {
	lvl, err := ports.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var asJSON bool
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
	case FormatJSON:
		asJSON = true
	default:
		return nil, fmt.Errorf("unknown log format %q (expected text or json)", format)
	}
	return NewConsoleLogger(WithOutput(w), WithLevel(lvl), WithJSONFormat(asJSON)), nil
}

func (l *ConsoleLogger) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	l.write(ports.LevelDebug, msg, fields)
}

func (l *ConsoleLogger) Info(ctx context.Context, msg string, fields ...ports.Field) {
	l.write(ports.LevelInfo, msg, fields)
}

func (l *ConsoleLogger) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	l.write(ports.LevelWarn, msg, fields)
}

func (l *ConsoleLogger) Error(ctx context.Context, msg string, fields ...ports.Field) {
	l.write(ports.LevelError, msg, fields)
}

// With returns a logger that prefixes fields to every entry.
func (l *ConsoleLogger) With(fields ...ports.Field) ports.Logger {
	derived := *l
	derived.fields = append(append([]ports.Field(nil), l.fields...), fields...)
	return &derived
}

// Enabled reports whether level passes the logger's threshold.
func (l *ConsoleLogger) Enabled(level ports.Level) bool {
	return level >= l.level
}

// Format returns the output format in use.
func (l *ConsoleLogger) Format() string {
	return l.format
}

func (l *ConsoleLogger) write(level ports.Level, msg string, fields []ports.Field) {
	if !l.Enabled(level) {
		return
	}

	e := entry{
		at:     l.now(),
		level:  level,
		msg:    msg,
		fields: append(append(make([]ports.Field, 0, len(l.fields)+len(fields)), l.fields...), fields...),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.encode(l.out, e, l.stamp, l.label)
}

func encodeJSON(w io.Writer, e entry, stamp, label bool) {
	obj := make(map[string]interface{}, len(e.fields)+3)
	if stamp {
		obj["time"] = e.at.UTC().Format(time.RFC3339)
	}
	if label {
		obj["level"] = e.level.String()
	}
	obj["msg"] = e.msg
	for _, f := range e.fields {
		if err, ok := f.Value.(error); ok {
			obj[f.Key] = err.Error()
		} else {
			obj[f.Key] = f.Value
		}
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return
	}
	_, _ = w.Write(append(data, '\n'))
}

func encodeText(w io.Writer, e entry, stamp, label bool) {
	var b strings.Builder
	if stamp {
		b.WriteString(e.at.Format("15:04:05 "))
	}
	if label {
		b.WriteString("[" + e.level.String() + "] ")
	}
	b.WriteString(e.msg)
	for _, f := range e.fields {
		fmt.Fprintf(&b, " %s=%s", f.Key, quote(f.Value))
	}
	b.WriteByte('\n')
	_, _ = io.WriteString(w, b.String())
}

// quote wraps values that would otherwise break key=value parsing.
func quote(v interface{}) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

var _ ports.Logger = (*ConsoleLogger)(nil)
