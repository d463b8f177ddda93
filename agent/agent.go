package agent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/taskflow/types"
)

// Agent is a named executor owning one handler. It runs at most one task at a
// time: the dispatcher acquires the agent before handing it work, and the
// agent itself rejects overlapping executions defensively.
type Agent struct {
	id      string
	name    string
	handler types.Handler
	logger  *zap.Logger

	mu          sync.RWMutex
	state       State
	gen         uint64 // assignment generation, bumped on each Acquire
	lastRelease time.Time

	// running holds the generation currently inside Execute, 0 when none.
	// A force-released slot clears it so a replacement assignment can start
	// even while an abandoned handler is still unwinding.
	running atomic.Uint64
}

// New creates an Idle agent with a fresh unique id.
func New(name string, handler types.Handler, logger *zap.Logger) (*Agent, error) {
	if handler == nil {
		return nil, ErrHandlerNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Agent{
		id:      uuid.New().String(),
		name:    name,
		handler: handler,
		state:   StateIdle,
	}
	a.logger = logger.With(zap.String("agent_id", a.id), zap.String("agent", name))
	return a, nil
}

// ID returns the agent's unique identifier.
func (a *Agent) ID() string { return a.id }

// Name returns the agent's human-readable name.
func (a *Agent) Name() string { return a.name }

// State returns the current lifecycle state.
func (a *Agent) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// LastRelease returns when the agent last returned to Idle. Zero if it has
// never held a task. Used by the least-recently-used selection policy.
func (a *Agent) LastRelease() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastRelease
}

// Acquire transitions the agent Idle -> Busy and returns the new assignment
// generation. The generation stamps the assignment so that a completion
// arriving after a force-release is recognized as stale and discarded.
func (a *Agent) Acquire() (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case StateBusy:
		return 0, ErrAgentBusy
	case StateUnavailable:
		return 0, ErrAgentUnavailable
	}

	a.state = StateBusy
	a.gen++
	return a.gen, nil
}

// Release transitions the agent Busy -> Idle if gen is still the current
// assignment. Stale releases (the slot was already force-released and possibly
// re-acquired) are ignored.
func (a *Agent) Release(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.gen || a.state != StateBusy {
		return
	}
	a.state = StateIdle
	a.lastRelease = time.Now()
}

// ForceRelease unconditionally frees the agent slot. Called by the dispatcher
// when a timeout or cancellation grace period elapses without the handler
// acknowledging, so a runaway task cannot permanently starve capacity.
func (a *Agent) ForceRelease() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.running.Store(0)
	if a.state == StateBusy {
		a.state = StateIdle
		a.lastRelease = time.Now()
		a.logger.Warn("agent slot force-released")
	}
}

// MarkUnavailable takes the agent out of rotation.
func (a *Agent) MarkUnavailable() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !CanTransition(a.state, StateUnavailable) {
		return ErrInvalidTransition{From: a.state, To: StateUnavailable}
	}
	a.state = StateUnavailable
	a.running.Store(0)
	return nil
}

// MarkIdle returns an Unavailable agent to rotation.
func (a *Agent) MarkIdle() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !CanTransition(a.state, StateIdle) {
		return ErrInvalidTransition{From: a.state, To: StateIdle}
	}
	a.state = StateIdle
	return nil
}

// Execute runs the handler for the assignment identified by gen. It is
// synchronous from the agent's perspective; the dispatcher invokes it on a
// worker goroutine so the dispatcher itself never blocks.
//
// The agent enforces its single-task invariant even though the dispatcher
// should never violate it: a call for a stale generation, or while another
// execution is in progress, fails with ErrAgentBusy. Handler panics are
// captured and returned as HANDLER_PANIC errors; they never escape to the
// caller's goroutine.
func (a *Agent) Execute(ctx context.Context, gen uint64, payload any) (output any, err error) {
	a.mu.RLock()
	current, state := a.gen, a.state
	a.mu.RUnlock()

	if state != StateBusy || gen != current {
		return nil, ErrAgentBusy
	}
	if !a.running.CompareAndSwap(0, gen) {
		return nil, ErrAgentBusy
	}
	defer a.running.CompareAndSwap(gen, 0)

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("handler panicked", zap.Any("panic", r))
			output = nil
			err = types.NewError(types.ErrHandlerPanic,
				fmt.Sprintf("handler panicked: %v", r)).WithAgent(a.id)
		}
	}()

	return a.handler.Execute(ctx, payload)
}
