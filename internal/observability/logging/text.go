package logging

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// textLogger renders one human-readable line per entry:
//
//	15:04:05 WARN  scanner: duplicate pack root=/work/packs
type textLogger struct {
	writer   io.Writer
	closer   io.Closer
	minLevel int
	mu       sync.Mutex
}

func (t *textLogger) log(level, component, msg string, fields ...any) {
	if levelPriority(level) < t.minLevel {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s: %s",
		time.Now().Format("15:04:05"), strings.ToUpper(level), component, msg)
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			fmt.Fprintf(&b, " %s=%v", key, fields[i+1])
		}
	}
	b.WriteByte('\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = io.WriteString(t.writer, b.String())
}

func (t *textLogger) Event(ctx context.Context, event string, fields map[string]any) {
	// Sort keys so repeated runs render events identically.
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	t.log(LevelInfo, "cli", eventPrefix+event, kv...)
}

func (t *textLogger) Debug(component, msg string, fields ...any) {
	t.log(LevelDebug, component, msg, fields...)
}

func (t *textLogger) Info(component, msg string, fields ...any) {
	t.log(LevelInfo, component, msg, fields...)
}

func (t *textLogger) Warn(component, msg string, fields ...any) {
	t.log(LevelWarn, component, msg, fields...)
}

func (t *textLogger) Error(component, msg string, fields ...any) {
	t.log(LevelError, component, msg, fields...)
}

func (t *textLogger) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}
