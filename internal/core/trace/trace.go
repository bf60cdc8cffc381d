// Package trace carries request correlation identifiers through context.
package trace

import (
	"context"

	"github.com/google/uuid"
)

// Context contains request tracing information.
type Context struct {
	TraceID   string
	RequestID string
}

type traceContextKey struct{}

// With adds a trace Context to ctx.
func With(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, traceContextKey{}, tc)
}

// Get returns the trace Context from ctx, or nil.
func Get(ctx context.Context) *Context {
	if v, ok := ctx.Value(traceContextKey{}).(*Context); ok {
		return v
	}
	return nil
}

// New creates a trace Context with generated ids.
func New() *Context {
	return &Context{
		TraceID:   uuid.New().String(),
		RequestID: uuid.New().String(),
	}
}
