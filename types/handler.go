package types

import "context"

// Handler is the minimal task execution interface. The framework treats a
// task's payload as opaque; the handler alone interprets it.
//
// Execute may block arbitrarily long. The supplied context carries the
// cooperative cancellation signal: on cancel or timeout the dispatcher cancels
// the context and handlers are expected to poll ctx.Done(), not rely on
// preemption.
type Handler interface {
	// Execute runs the handler against the given payload and returns the result.
	Execute(ctx context.Context, payload any) (any, error)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, payload any) (any, error)

// Execute implements Handler.
func (f HandlerFunc) Execute(ctx context.Context, payload any) (any, error) {
	return f(ctx, payload)
}
