// Package tasks runs best-effort side effects off the request path.
// A failed task is retried a few times, then dropped with a log entry;
// callers never observe task outcomes.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/codesage/codesage/core"
)

const (
	defaultQueueSize  = 256
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
	taskTimeout       = 30 * time.Second
)

type task struct {
	name string
	fn   func(context.Context) error
}

// Queue is a bounded in-process task queue backed by a single worker.
type Queue struct {
	logger core.Logger

	maxRetries int
	backoff    time.Duration

	ch   chan task
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithMaxRetries sets the retry count per task.
func WithMaxRetries(n int) Option {
	return func(q *Queue) { q.maxRetries = n }
}

// WithBackoff sets the base delay between retries.
func WithBackoff(d time.Duration) Option {
	return func(q *Queue) { q.backoff = d }
}

// NewQueue starts the worker. Call Close to drain and stop it.
func NewQueue(logger core.Logger, opts ...Option) *Queue {
	q := &Queue{
		logger:     logger,
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
		ch:         make(chan task, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(q)
	}

	q.wg.Add(1)
	go q.run()
	return q
}

// Enqueue schedules fn. When the queue is full or already closed the task
// is dropped and logged; enqueueing never blocks the caller.
func (q *Queue) Enqueue(name string, fn func(context.Context) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn(fmt.Sprintf("task queue closed, dropping %q", name))
		return
	}
	select {
	case q.ch <- task{name: name, fn: fn}:
	default:
		q.logger.Warn(fmt.Sprintf("task queue full, dropping %q", name))
	}
}

func (q *Queue) run() {
	defer q.wg.Done()
	for t := range q.ch {
		q.execute(t)
	}
}

func (q *Queue) execute(t task) {
	var err error
	for attempt := 0; attempt <= q.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(q.backoff * time.Duration(attempt))
		}
		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		err = t.fn(ctx)
		cancel()
		if err == nil {
			return
		}
	}
	q.logger.Error(fmt.Sprintf("task %q failed after %d attempts: %v", t.name, q.maxRetries+1, err), err)
}

// Close stops accepting tasks and waits for queued ones to finish.
func (q *Queue) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		close(q.ch)
	})
	q.wg.Wait()
}
