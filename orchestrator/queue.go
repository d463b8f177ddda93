package orchestrator

import (
	"container/heap"
)

// queueItem is one pending task plus its submission sequence number, which
// breaks priority ties in FIFO order.
type queueItem struct {
	rec   *taskRecord
	seq   uint64
	index int
}

// taskQueue is a max-heap over priority with FIFO tie-break. Not safe for
// concurrent use; the orchestrator serializes access under its mutex.
type taskQueue struct {
	items []*queueItem
}

func newTaskQueue() *taskQueue {
	return &taskQueue{}
}

func (q *taskQueue) Len() int { return len(q.items) }

func (q *taskQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.rec.task.Priority != b.rec.task.Priority {
		return a.rec.task.Priority > b.rec.task.Priority
	}
	return a.seq < b.seq
}

func (q *taskQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *taskQueue) Push(x any) {
	item := x.(*queueItem)
	item.index = len(q.items)
	q.items = append(q.items, item)
}

func (q *taskQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	q.items = old[:n-1]
	return item
}

// push enqueues a task record.
func (q *taskQueue) push(rec *taskRecord, seq uint64) {
	heap.Push(q, &queueItem{rec: rec, seq: seq})
}

// pop dequeues the highest-priority, earliest-submitted task. Returns nil when
// empty.
func (q *taskQueue) pop() *taskRecord {
	if len(q.items) == 0 {
		return nil
	}
	return heap.Pop(q).(*queueItem).rec
}

// remove deletes the entry for the given task id, for queued-task
// cancellation. Reports whether the id was present.
func (q *taskQueue) remove(taskID string) bool {
	for _, item := range q.items {
		if item.rec.task.ID == taskID {
			heap.Remove(q, item.index)
			return true
		}
	}
	return false
}

// drain empties the queue, returning the removed records in dispatch order.
func (q *taskQueue) drain() []*taskRecord {
	out := make([]*taskRecord, 0, len(q.items))
	for {
		rec := q.pop()
		if rec == nil {
			return out
		}
		out = append(out, rec)
	}
}

var _ heap.Interface = (*taskQueue)(nil)
