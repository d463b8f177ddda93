package agent

import (
	"sync"

	"go.uber.org/zap"
)

// Registry tracks all registered agents and their availability. Agents are
// held by reference, so state changes (Idle/Busy) are visible to the
// dispatcher immediately.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*Agent
	order  []string // registration order, drives deterministic selection
	policy SelectionPolicy
	logger *zap.Logger
}

// NewRegistry creates an empty registry using the given selection policy.
// A nil policy defaults to round-robin.
func NewRegistry(policy SelectionPolicy, logger *zap.Logger) *Registry {
	if policy == nil {
		policy = NewRoundRobin()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		agents: make(map[string]*Agent),
		policy: policy,
		logger: logger,
	}
}

// Register adds an agent. Fails with ErrDuplicateAgent if the id is taken.
func (r *Registry) Register(a *Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[a.ID()]; exists {
		return ErrDuplicateAgent
	}
	r.agents[a.ID()] = a
	r.order = append(r.order, a.ID())

	r.logger.Info("agent registered",
		zap.String("agent_id", a.ID()),
		zap.String("agent", a.Name()),
	)
	return nil
}

// Unregister removes an agent. A Busy agent is rejected with ErrAgentBusy
// unless force is set; the dispatcher is responsible for cancelling the held
// task before a forced removal.
func (r *Registry) Unregister(id string, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, exists := r.agents[id]
	if !exists {
		return ErrAgentNotFound
	}
	if a.State() == StateBusy && !force {
		return ErrAgentBusy
	}

	a.ForceRelease()
	if a.State() != StateUnavailable {
		if err := a.MarkUnavailable(); err != nil {
			return err
		}
	}
	delete(r.agents, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.logger.Info("agent unregistered",
		zap.String("agent_id", id),
		zap.Bool("force", force),
	)
	return nil
}

// Get returns the agent with the given id.
func (r *Registry) Get(id string) (*Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.agents[id]
	if !exists {
		return nil, ErrAgentNotFound
	}
	return a, nil
}

// List returns all registered agents in registration order.
func (r *Registry) List() []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Agent, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.agents[id])
	}
	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// SelectIdle returns an idle agent chosen by the selection policy, or false
// when no agent is idle.
func (r *Registry) SelectIdle() (*Agent, bool) {
	r.mu.RLock()
	candidates := make([]*Agent, 0, len(r.order))
	for _, id := range r.order {
		if a := r.agents[id]; a.State() == StateIdle {
			candidates = append(candidates, a)
		}
	}
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, false
	}
	a := r.policy.Select(candidates)
	if a == nil {
		return nil, false
	}
	return a, true
}

// CountByState returns the number of agents per lifecycle state.
func (r *Registry) CountByState() map[State]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[State]int, 3)
	for _, a := range r.agents {
		counts[a.State()]++
	}
	return counts
}
