package orchestrator

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/taskflow/internal/channel"
	"github.com/BaSui01/taskflow/types"
)

// TaskEvent is the terminal record of one task. Exactly one event is
// published per submitted task, in completion order.
type TaskEvent struct {
	TaskID    string           `json:"task_id"`
	TaskName  string           `json:"task_name"`
	AgentID   string           `json:"agent_id,omitempty"`
	AgentName string           `json:"agent_name,omitempty"`
	Status    types.TaskStatus `json:"status"`
	Output    any              `json:"output,omitempty"`
	Err       error            `json:"-"`
	Error     string           `json:"error,omitempty"`
	Duration  time.Duration    `json:"duration_ns"`
	Timestamp time.Time        `json:"timestamp"`
}

// Subscription is one consumer's view of the event stream. Events arrive on
// C in publication order. Call Cancel when done; after Cancel the channel is
// drained and closed.
type Subscription struct {
	C      <-chan TaskEvent
	q      *channel.Unbounded[TaskEvent]
	bus    *eventBus
	id     uint64
	cancel sync.Once
}

// Cancel detaches the subscription from the bus and discards any undelivered
// events. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.cancel.Do(func() {
		s.bus.unsubscribe(s.id)
		s.q.Kill()
	})
}

// eventBus fans terminal events out to subscribers. Publish never blocks:
// each subscriber owns an unbounded queue, so a slow consumer only grows its
// own backlog.
type eventBus struct {
	mu     sync.Mutex
	subs   map[uint64]*channel.Unbounded[TaskEvent]
	nextID uint64
	closed bool
	logger *zap.Logger
}

func newEventBus(logger *zap.Logger) *eventBus {
	return &eventBus{
		subs:   make(map[uint64]*channel.Unbounded[TaskEvent]),
		logger: logger,
	}
}

func (b *eventBus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := channel.NewUnbounded[TaskEvent]()
	if b.closed {
		q.Close()
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = q
	return &Subscription{C: q.Out(), q: q, bus: b, id: id}
}

func (b *eventBus) unsubscribe(id uint64) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

func (b *eventBus) Publish(ev TaskEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.logger.Debug("event dropped after bus close", zap.String("task_id", ev.TaskID))
		return
	}
	for _, q := range b.subs {
		q.Push(ev)
	}
}

// Close stops publication. Already-queued events are still delivered to
// their subscribers, after which the subscriber channels close.
func (b *eventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, q := range b.subs {
		q.Close()
	}
}
