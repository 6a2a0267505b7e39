package pool

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("queue is closed")

// Queue is an unbounded FIFO shared by any number of producers and
// consumers. Closing it rejects new items but keeps the queued ones
// available to Pop.
type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	closed bool
}

func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends v, or returns ErrClosed once the queue is closed
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	q.items = append(q.items, v)
	q.cond.Signal()
	return nil
}

// Pop blocks until an item is available. It returns false when the queue is
// closed and empty.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return v, true
}

// Close stops new pushes and wakes every waiting consumer
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
