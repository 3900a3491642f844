package host

import (
	"context"
	"errors"
	"sync"
)

// ErrUnavailable is returned when no interpreter host accepts work.
var ErrUnavailable = errors.New("interpreter host not available")

// Queue is a thread-safe FIFO Dispatcher. The engine enqueues requests from
// its goroutine; interpreter workers drain them from theirs.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in worker loops.
type Queue struct {
	mu       sync.Mutex
	requests []CodeRequest
	closed   bool
	signal   chan struct{} // buffered, size 1
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		requests: make([]CodeRequest, 0, 16),
		signal:   make(chan struct{}, 1),
	}
}

// Dispatch enqueues req. It fails with ErrUnavailable once the queue is closed.
func (q *Queue) Dispatch(req CodeRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrUnavailable
	}
	q.requests = append(q.requests, req)

	// Non-blocking: the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return nil
}

// TryNext removes and returns the oldest request without blocking.
func (q *Queue) TryNext() (CodeRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.requests) == 0 {
		return CodeRequest{}, false
	}
	req := q.requests[0]
	q.requests[0] = CodeRequest{}
	if len(q.requests) == 1 {
		q.requests = q.requests[:0]
	} else {
		q.requests = q.requests[1:]
	}
	return req, true
}

// Next blocks until a request is available, the queue is closed and
// drained, or ctx is done.
func (q *Queue) Next(ctx context.Context) (CodeRequest, error) {
	for {
		if req, ok := q.TryNext(); ok {
			return req, nil
		}
		q.mu.Lock()
		done := q.closed && len(q.requests) == 0
		q.mu.Unlock()
		if done {
			return CodeRequest{}, ErrUnavailable
		}
		select {
		case <-ctx.Done():
			return CodeRequest{}, ctx.Err()
		case <-q.signal:
		}
	}
}

// Len returns the number of pending requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.requests)
}

// Close stops accepting requests and wakes blocked workers.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
