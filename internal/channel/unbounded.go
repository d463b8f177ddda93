// Package channel provides channel implementations backing the result/event
// stream.
package channel

import "sync"

// Unbounded is a FIFO queue with an unbounded buffer and a channel receive
// side. Push never blocks, which keeps slow event subscribers from ever
// stalling the dispatcher's publish path.
type Unbounded[T any] struct {
	mu     sync.Mutex
	buf    []T
	wake   chan struct{}
	out    chan T
	die    chan struct{}
	closed bool
	killed bool
}

// NewUnbounded creates the queue and starts its pump goroutine.
func NewUnbounded[T any]() *Unbounded[T] {
	u := &Unbounded[T]{
		wake: make(chan struct{}, 1),
		out:  make(chan T),
		die:  make(chan struct{}),
	}
	go u.pump()
	return u
}

// Push appends v to the queue. It never blocks. Pushes after Close are
// silently dropped.
func (u *Unbounded[T]) Push(v T) {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return
	}
	u.buf = append(u.buf, v)
	u.mu.Unlock()

	select {
	case u.wake <- struct{}{}:
	default:
	}
}

// Out returns the receive side. The channel is closed once Close has been
// called and every buffered value has been delivered.
func (u *Unbounded[T]) Out() <-chan T {
	return u.out
}

// Close stops the queue. Buffered values are still delivered before the out
// channel closes; the consumer must keep draining Out.
func (u *Unbounded[T]) Close() {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return
	}
	u.closed = true
	u.mu.Unlock()

	select {
	case u.wake <- struct{}{}:
	default:
	}
}

// Kill stops the queue immediately, discarding buffered values. Used when the
// consumer has walked away and will not drain.
func (u *Unbounded[T]) Kill() {
	u.mu.Lock()
	u.closed = true
	if !u.killed {
		u.killed = true
		close(u.die)
	}
	u.buf = nil
	u.mu.Unlock()

	select {
	case u.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of buffered values.
func (u *Unbounded[T]) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.buf)
}

func (u *Unbounded[T]) pump() {
	for {
		u.mu.Lock()
		if len(u.buf) == 0 {
			if u.closed {
				u.mu.Unlock()
				close(u.out)
				return
			}
			u.mu.Unlock()
			select {
			case <-u.wake:
			case <-u.die:
			}
			continue
		}
		v := u.buf[0]
		u.buf = u.buf[1:]
		u.mu.Unlock()

		select {
		case u.out <- v:
		case <-u.die:
			close(u.out)
			return
		}
	}
}
