package agent

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAgent(t *testing.T, name string) *Agent {
	t.Helper()
	a, err := New(name, echoHandler(), zap.NewNop())
	require.NoError(t, err)
	return a
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil, nil)
	a := newTestAgent(t, "a")

	require.NoError(t, reg.Register(a))
	require.ErrorIs(t, reg.Register(a), ErrDuplicateAgent)
	require.Equal(t, 1, reg.Len())
}

func TestRegistry_UnregisterStates(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil, nil)
	a := newTestAgent(t, "a")
	require.NoError(t, reg.Register(a))

	require.ErrorIs(t, reg.Unregister("nope", false), ErrAgentNotFound)

	_, err := a.Acquire()
	require.NoError(t, err)

	// Busy without force is rejected; the agent stays registered.
	require.ErrorIs(t, reg.Unregister(a.ID(), false), ErrAgentBusy)
	require.Equal(t, 1, reg.Len())

	// Force removes the agent and takes it out of rotation.
	require.NoError(t, reg.Unregister(a.ID(), true))
	require.Equal(t, 0, reg.Len())
	require.Equal(t, StateUnavailable, a.State())
}

func TestRegistry_SelectIdleRoundRobin(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(NewRoundRobin(), nil)
	a := newTestAgent(t, "a")
	b := newTestAgent(t, "b")
	require.NoError(t, reg.Register(a))
	require.NoError(t, reg.Register(b))

	first, ok := reg.SelectIdle()
	require.True(t, ok)
	second, ok := reg.SelectIdle()
	require.True(t, ok)
	require.NotEqual(t, first.ID(), second.ID(), "round robin must alternate over a fixed idle set")

	// Busy agents never come back from selection.
	gen, err := a.Acquire()
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		sel, ok := reg.SelectIdle()
		require.True(t, ok)
		require.Equal(t, b.ID(), sel.ID())
	}
	a.Release(gen)

	// No idle agents at all.
	ga, err := a.Acquire()
	require.NoError(t, err)
	gb, err := b.Acquire()
	require.NoError(t, err)
	_, ok = reg.SelectIdle()
	require.False(t, ok)
	a.Release(ga)
	b.Release(gb)
}

func TestRegistry_SelectIdleLRU(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(NewLeastRecentlyUsed(), nil)
	a := newTestAgent(t, "a")
	b := newTestAgent(t, "b")
	require.NoError(t, reg.Register(a))
	require.NoError(t, reg.Register(b))

	// Never-used agents sort by registration order.
	sel, ok := reg.SelectIdle()
	require.True(t, ok)
	require.Equal(t, a.ID(), sel.ID())

	// After a runs, b (never used) is the least recently used.
	gen, err := a.Acquire()
	require.NoError(t, err)
	a.Release(gen)

	sel, ok = reg.SelectIdle()
	require.True(t, ok)
	require.Equal(t, b.ID(), sel.ID())
}

func TestRegistry_ListAndCountByState(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil, nil)
	a := newTestAgent(t, "a")
	b := newTestAgent(t, "b")
	require.NoError(t, reg.Register(a))
	require.NoError(t, reg.Register(b))

	list := reg.List()
	require.Len(t, list, 2)
	require.Equal(t, a.ID(), list[0].ID())
	require.Equal(t, b.ID(), list[1].ID())

	_, err := a.Acquire()
	require.NoError(t, err)
	counts := reg.CountByState()
	require.Equal(t, 1, counts[StateIdle])
	require.Equal(t, 1, counts[StateBusy])
}
