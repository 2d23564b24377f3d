package lineserver

import (
	"errors"
	"sync"
)

var (
	errQueueFull   = errors.New("lineserver: queue full")
	errQueueClosed = errors.New("lineserver: queue closed")
)

// queue is the bounded hand-off between the accept loop and the worker.
// push never blocks; close is guarded so nothing is sent after it.
type queue struct {
	mu     sync.Mutex
	ch     chan *slot
	closed bool
}

func newQueue(capacity int) *queue {
	return &queue{ch: make(chan *slot, capacity)}
}

func (q *queue) push(s *slot) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errQueueClosed
	}
	select {
	case q.ch <- s:
		return nil
	default:
		return errQueueFull
	}
}

// close stops new input. Buffered entries remain readable.
func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

func (q *queue) items() <-chan *slot {
	return q.ch
}

func (q *queue) len() int {
	return len(q.ch)
}
