package engine

import "sync"

// job is one unit of work submitted to a Session.
type job struct {
	fn     func(*Controller) error
	result chan error // buffered, size 1
}

// jobQueue is a thread-safe FIFO queue for session jobs.
//
// Submitters enqueue from any goroutine while the Session's Run loop
// dequeues. The queue is unbounded so Do never blocks on a slow loop.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []job
	closed bool
	signal chan struct{} // Signals job availability (buffered, size 1)
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		jobs:   make([]job, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a job to the back of the queue.
// Returns false if the queue is closed.
func (q *jobQueue) Enqueue(j job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.jobs = append(q.jobs, j)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front job without blocking.
func (q *jobQueue) TryDequeue() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return job{}, false
	}

	j := q.jobs[0]
	// Nil out the slot so the closure can be collected.
	q.jobs[0] = job{}
	if len(q.jobs) == 1 {
		q.jobs = q.jobs[:0]
	} else {
		q.jobs = q.jobs[1:]
	}

	return j, true
}

// Wait returns a channel that signals when jobs may be available. It is
// closed by Close.
func (q *jobQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Close rejects further jobs and wakes the Run loop.
// Returns the jobs still queued.
func (q *jobQueue) Close() []job {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.signal)
	rest := q.jobs
	q.jobs = nil
	return rest
}
