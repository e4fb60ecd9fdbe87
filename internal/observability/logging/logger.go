// Package logging provides the leveled logger that packsmith commands
// thread through context. Two renderers exist: a pretty text form for
// interactive runs and a jsonl form for log pipelines.
package logging

import (
	"context"
	"io"
	"os"
)

// Logger is the command-side logging interface. The leveled methods
// take a component name and alternating key/value fields; Event emits
// a named machine event carrying the op id from ctx.
type Logger interface {
	Debug(component, msg string, fields ...any)
	Info(component, msg string, fields ...any)
	Warn(component, msg string, fields ...any)
	Error(component, msg string, fields ...any)
	Event(ctx context.Context, event string, fields map[string]any)
	Close() error
}

type loggerKey struct{}

func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// From returns the logger carried by ctx, or a no-op logger so call
// sites never need a nil check.
func From(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return &noopLogger{}
}

// Discard returns a logger that drops everything. Handy for callers
// that must pass a Logger but want silence.
func Discard() Logger {
	return &noopLogger{}
}

// NewLogger builds a logger for cfg. Unknown formats fall back to the
// pretty renderer.
func NewLogger(cfg Config) (Logger, error) {
	var w io.Writer
	var closer io.Closer

	switch cfg.Output {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		w = f
		closer = f
	}

	if cfg.Format == FormatJSONL {
		return &jsonlLogger{
			writer:   w,
			closer:   closer,
			minLevel: levelPriority(cfg.Level),
		}, nil
	}

	return &textLogger{
		writer:   w,
		closer:   closer,
		minLevel: levelPriority(cfg.Level),
	}, nil
}

type noopLogger struct{}

func (n *noopLogger) Debug(component, msg string, fields ...any) {}
func (n *noopLogger) Info(component, msg string, fields ...any)  {}
func (n *noopLogger) Warn(component, msg string, fields ...any)  {}
func (n *noopLogger) Error(component, msg string, fields ...any) {}
func (n *noopLogger) Event(ctx context.Context, event string, fields map[string]any) {
}
func (n *noopLogger) Close() error { return nil }

// fieldMap folds alternating key/value pairs into a map. Keys that are
// not strings are dropped along with their values.
func fieldMap(fields []any) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	m := make(map[string]any, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			m[key] = fields[i+1]
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
