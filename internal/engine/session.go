package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrSessionClosed is returned by Do after the session stopped.
var ErrSessionClosed = errors.New("session closed")

// Session serializes access to a Controller from many goroutines.
//
// Work submitted with Do runs on the goroutine executing Run, one job at a
// time in submission order, so the Controller never sees concurrent calls.
type Session struct {
	c     *Controller
	queue *jobQueue
}

// NewSession wraps c. Call Run to start processing.
func NewSession(c *Controller) *Session {
	return &Session{c: c, queue: newJobQueue()}
}

// Run processes jobs until ctx is cancelled or Close is called.
// Jobs still queued when Run stops fail with ErrSessionClosed.
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()
	for {
		j, ok := s.queue.TryDequeue()
		if ok {
			j.result <- s.runJob(j)
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, open := <-s.queue.Wait():
			if !open {
				return nil
			}
		}
	}
}

// runJob converts a panic in fn (an invariant violation) into an error so
// one bad job does not take the loop down.
func (s *Session) runJob(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.c.inFlight = nil
			if rtErr, ok := r.(*RuntimeError); ok {
				err = rtErr
				return
			}
			err = fmt.Errorf("session job panicked: %v", r)
		}
	}()
	return j.fn(s.c)
}

// Do runs fn on the session goroutine and waits for it to return.
//
// If ctx is cancelled first Do returns ctx.Err(); fn may still run later.
func (s *Session) Do(ctx context.Context, fn func(*Controller) error) error {
	j := job{fn: fn, result: make(chan error, 1)}
	if !s.queue.Enqueue(j) {
		return ErrSessionClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-j.result:
		return err
	}
}

// Pending returns the number of jobs waiting to run.
func (s *Session) Pending() int {
	return s.queue.Len()
}

// Close stops accepting jobs. Queued jobs fail with ErrSessionClosed.
func (s *Session) Close() {
	for _, j := range s.queue.Close() {
		j.result <- ErrSessionClosed
	}
}
