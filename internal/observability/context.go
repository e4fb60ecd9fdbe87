// Package observability carries per-invocation identifiers through
// context so that log entries and trace spans emitted by one command
// run can be correlated after the fact.
package observability

import (
	"context"

	"github.com/google/uuid"
)

type opIDKey struct{}

// WithOpID stamps ctx with a fresh operation id. Every CLI invocation
// calls this once at startup; all entries emitted under it share the value.
func WithOpID(ctx context.Context) context.Context {
	return context.WithValue(ctx, opIDKey{}, uuid.NewString())
}

// OpID returns the operation id from ctx, or "" when none was set.
func OpID(ctx context.Context) string {
	if id, ok := ctx.Value(opIDKey{}).(string); ok {
		return id
	}
	return ""
}
