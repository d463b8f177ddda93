package agent

import "sync"

// SelectionPolicy picks an agent from the idle set. The slice is always
// ordered by registration; given a fixed registry snapshot a policy must be
// deterministic so scheduling behavior stays testable.
type SelectionPolicy interface {
	// Select returns one of the candidates, or nil to decline selection.
	// Candidates is never empty.
	Select(candidates []*Agent) *Agent
}

// PolicyFunc adapts a function to the SelectionPolicy interface, for custom
// policies such as capability matching.
type PolicyFunc func(candidates []*Agent) *Agent

// Select implements SelectionPolicy.
func (f PolicyFunc) Select(candidates []*Agent) *Agent { return f(candidates) }

// RoundRobin cycles through idle agents in registration order.
type RoundRobin struct {
	mu   sync.Mutex
	next int
}

// NewRoundRobin returns a round-robin selection policy.
func NewRoundRobin() *RoundRobin { return &RoundRobin{} }

// Select implements SelectionPolicy.
func (p *RoundRobin) Select(candidates []*Agent) *Agent {
	p.mu.Lock()
	defer p.mu.Unlock()

	a := candidates[p.next%len(candidates)]
	p.next++
	return a
}

// LeastRecentlyUsed prefers the agent that has been idle longest, with
// registration order as the tie-break. Agents that never ran sort first.
type LeastRecentlyUsed struct{}

// NewLeastRecentlyUsed returns an LRU selection policy.
func NewLeastRecentlyUsed() *LeastRecentlyUsed { return &LeastRecentlyUsed{} }

// Select implements SelectionPolicy.
func (p *LeastRecentlyUsed) Select(candidates []*Agent) *Agent {
	best := candidates[0]
	bestAt := best.LastRelease()
	for _, a := range candidates[1:] {
		if at := a.LastRelease(); at.Before(bestAt) {
			best, bestAt = a, at
		}
	}
	return best
}
