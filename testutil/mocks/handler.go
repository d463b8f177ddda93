// MockHandler is a scriptable types.Handler for dispatcher and agent tests.
//
// Supports fixed results, error injection, artificial latency and call
// counting.
package mocks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BaSui01/taskflow/types"
)

// MockHandler implements types.Handler with configurable behavior.
type MockHandler struct {
	mu sync.RWMutex

	result any
	err    error
	delay  time.Duration
	fn     func(ctx context.Context, payload any) (any, error)

	calls    atomic.Int64
	payloads []any
}

// NewMockHandler returns a handler that echoes its payload.
func NewMockHandler() *MockHandler {
	return &MockHandler{}
}

// WithResult makes Execute return result instead of echoing the payload.
func (h *MockHandler) WithResult(result any) *MockHandler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.result = result
	return h
}

// WithError makes Execute fail with err.
func (h *MockHandler) WithError(err error) *MockHandler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
	return h
}

// WithDelay makes Execute sleep before returning, honoring ctx cancellation.
func (h *MockHandler) WithDelay(d time.Duration) *MockHandler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.delay = d
	return h
}

// WithFunc replaces the scripted behavior entirely.
func (h *MockHandler) WithFunc(fn func(ctx context.Context, payload any) (any, error)) *MockHandler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fn = fn
	return h
}

// Execute implements types.Handler.
func (h *MockHandler) Execute(ctx context.Context, payload any) (any, error) {
	h.calls.Add(1)
	h.mu.Lock()
	h.payloads = append(h.payloads, payload)
	result, err, delay, fn := h.result, h.err, h.delay, h.fn
	h.mu.Unlock()

	if fn != nil {
		return fn(ctx, payload)
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}
	return payload, nil
}

// Calls reports how many times Execute ran.
func (h *MockHandler) Calls() int64 {
	return h.calls.Load()
}

// Payloads returns a copy of every payload Execute received, in order.
func (h *MockHandler) Payloads() []any {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]any, len(h.payloads))
	copy(out, h.payloads)
	return out
}

var _ types.Handler = (*MockHandler)(nil)
