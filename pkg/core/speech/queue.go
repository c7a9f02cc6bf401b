// Package speech serializes speech synthesis and playback so spoken
// output never overlaps or reorders.
package speech

import (
	"context"
	"sync"
)

// Task is one asynchronous synthesize-then-play unit of work. Its
// error is swallowed by the queue; rejection of one task must not stop
// the ones behind it.
type Task func(ctx context.Context) error

// Queue runs tasks strictly one at a time in submission order. The
// next task starts only after the previous one settles. A queue is
// created fresh per turn and never reused after Drain.
type Queue struct {
	mu      sync.Mutex
	pending []Task
	running bool
	drained bool
	cancel  context.CancelFunc // cancels the running task
	idle    chan struct{}      // closed when the runner goes idle
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a task. Enqueueing after Drain is a no-op.
func (q *Queue) Enqueue(t Task) {
	if t == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.drained {
		return
	}
	q.pending = append(q.pending, t)
	if !q.running {
		q.running = true
		q.idle = make(chan struct{})
		go q.run()
	}
}

func (q *Queue) run() {
	for {
		q.mu.Lock()
		if q.drained || len(q.pending) == 0 {
			q.pending = nil
			q.running = false
			close(q.idle)
			q.mu.Unlock()
			return
		}
		t := q.pending[0]
		q.pending = q.pending[1:]
		ctx, cancel := context.WithCancel(context.Background())
		q.cancel = cancel
		q.mu.Unlock()

		_ = t(ctx) // task errors are swallowed; the queue proceeds

		cancel()
		q.mu.Lock()
		q.cancel = nil
		q.mu.Unlock()
	}
}

// Drain discards all not-yet-started tasks and signals the running one
// to stop as soon as possible. The queue is dead afterwards; callers
// create a fresh queue for the next turn.
func (q *Queue) Drain() {
	q.mu.Lock()
	q.drained = true
	q.pending = nil
	cancel := q.cancel
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the queue is idle (all started work settled).
func (q *Queue) Wait() {
	q.mu.Lock()
	idle := q.idle
	running := q.running
	q.mu.Unlock()
	if running {
		<-idle
	}
}
