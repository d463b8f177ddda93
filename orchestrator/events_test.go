package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/taskflow/types"
)

func testEvent(id string, status types.TaskStatus) TaskEvent {
	return TaskEvent{TaskID: id, TaskName: "t-" + id, Status: status, Timestamp: time.Now()}
}

func TestEventBusDeliversInOrder(t *testing.T) {
	bus := newEventBus(zap.NewNop())
	sub := bus.Subscribe()
	defer sub.Cancel()

	bus.Publish(testEvent("1", types.StatusCompleted))
	bus.Publish(testEvent("2", types.StatusFailed))
	bus.Publish(testEvent("3", types.StatusCancelled))

	for _, want := range []string{"1", "2", "3"} {
		select {
		case ev := <-sub.C:
			assert.Equal(t, want, ev.TaskID)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %s", want)
		}
	}
}

func TestEventBusFanOut(t *testing.T) {
	bus := newEventBus(zap.NewNop())
	a := bus.Subscribe()
	b := bus.Subscribe()
	defer a.Cancel()
	defer b.Cancel()

	bus.Publish(testEvent("1", types.StatusCompleted))

	for _, sub := range []*Subscription{a, b} {
		select {
		case ev := <-sub.C:
			assert.Equal(t, "1", ev.TaskID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestEventBusCloseFlushesBacklog(t *testing.T) {
	bus := newEventBus(zap.NewNop())
	sub := bus.Subscribe()

	bus.Publish(testEvent("1", types.StatusCompleted))
	bus.Publish(testEvent("2", types.StatusCompleted))
	bus.Close()

	// publish after close is dropped
	bus.Publish(testEvent("3", types.StatusCompleted))

	var got []string
	for ev := range sub.C {
		got = append(got, ev.TaskID)
	}
	assert.Equal(t, []string{"1", "2"}, got)
}

func TestSubscriptionCancelDiscards(t *testing.T) {
	bus := newEventBus(zap.NewNop())
	sub := bus.Subscribe()

	bus.Publish(testEvent("1", types.StatusCompleted))
	sub.Cancel()
	sub.Cancel() // idempotent

	// publishing to a bus with no subscribers must not block
	done := make(chan struct{})
	go func() {
		bus.Publish(testEvent("2", types.StatusCompleted))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked after subscription cancel")
	}
}

func TestEventBusSubscribeAfterClose(t *testing.T) {
	bus := newEventBus(zap.NewNop())
	bus.Close()

	sub := bus.Subscribe()
	_, open := <-sub.C
	require.False(t, open)
}
