// internal/bridge/queue.go
package bridge

import "sync"

// queue is an unbounded FIFO shared between the bridge goroutine and its
// polling consumer. Producers never block; a slow consumer accumulates
// entries in memory. The notify channel lets the bridge loop select on
// "something was enqueued" alongside inbound frames.
type queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	notify chan struct{}
}

func newQueue[T any]() *queue[T] {
	return &queue[T]{notify: make(chan struct{}, 1)}
}

// push appends an item. Returns false once the queue is closed.
func (q *queue[T]) push(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// tryPop removes and returns the oldest item, if any.
func (q *queue[T]) tryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return v, true
}

// wait returns the channel signalled on push.
func (q *queue[T]) wait() <-chan struct{} { return q.notify }

// close rejects further pushes. Already-queued items stay poppable so the
// consumer can drain the tail.
func (q *queue[T]) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// drained reports whether the queue is closed and empty.
func (q *queue[T]) drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.items) == 0
}
