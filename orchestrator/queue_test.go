package orchestrator

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/taskflow/types"
)

func queuedRecord(name string, p types.Priority) *taskRecord {
	return &taskRecord{task: types.NewTask(name, nil, p), done: make(chan struct{})}
}

func TestTaskQueuePriorityOrder(t *testing.T) {
	q := newTaskQueue()
	q.push(queuedRecord("low", 1), 1)
	q.push(queuedRecord("high", 10), 2)
	q.push(queuedRecord("mid", 5), 3)

	require.Equal(t, 3, q.Len())
	assert.Equal(t, "high", q.pop().task.Name)
	assert.Equal(t, "mid", q.pop().task.Name)
	assert.Equal(t, "low", q.pop().task.Name)
	assert.Nil(t, q.pop())
}

func TestTaskQueueFIFOWithinPriority(t *testing.T) {
	q := newTaskQueue()
	q.push(queuedRecord("first", 3), 1)
	q.push(queuedRecord("second", 3), 2)
	q.push(queuedRecord("third", 3), 3)

	assert.Equal(t, "first", q.pop().task.Name)
	assert.Equal(t, "second", q.pop().task.Name)
	assert.Equal(t, "third", q.pop().task.Name)
}

func TestTaskQueueRemove(t *testing.T) {
	q := newTaskQueue()
	keep := queuedRecord("keep", 1)
	victim := queuedRecord("victim", 5)
	q.push(keep, 1)
	q.push(victim, 2)

	require.True(t, q.remove(victim.task.ID))
	require.False(t, q.remove(victim.task.ID))
	require.False(t, q.remove("no-such-id"))

	assert.Equal(t, 1, q.Len())
	assert.Equal(t, "keep", q.pop().task.Name)
}

func TestTaskQueueDrain(t *testing.T) {
	q := newTaskQueue()
	q.push(queuedRecord("a", 1), 1)
	q.push(queuedRecord("b", 9), 2)
	q.push(queuedRecord("c", 4), 3)

	recs := q.drain()
	require.Len(t, recs, 3)
	assert.Equal(t, "b", recs[0].task.Name)
	assert.Equal(t, "c", recs[1].task.Name)
	assert.Equal(t, "a", recs[2].task.Name)
	assert.Equal(t, 0, q.Len())
}

// Property: pop order is always non-increasing priority, and FIFO among equal
// priorities.
func TestTaskQueueOrderProperty(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200

	properties := gopter.NewProperties(params)
	properties.Property("pop respects priority then submission order", prop.ForAll(
		func(priorities []int) bool {
			q := newTaskQueue()
			for i, p := range priorities {
				rec := queuedRecord("t", types.Priority(p))
				rec.task.Payload = i
				q.push(rec, uint64(i+1))
			}
			var prevPrio types.Priority
			prevIdx := -1
			first := true
			for {
				rec := q.pop()
				if rec == nil {
					return true
				}
				idx := rec.task.Payload.(int)
				if !first {
					if rec.task.Priority > prevPrio {
						return false
					}
					if rec.task.Priority == prevPrio && idx <= prevIdx {
						return false
					}
				}
				prevPrio = rec.task.Priority
				prevIdx = idx
				first = false
			}
		},
		gen.SliceOf(gen.IntRange(0, 5)),
	))
	properties.TestingRun(t)
}
