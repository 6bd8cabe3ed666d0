package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"

	testutil "github.com/codesage/codesage/tests"
)

func TestQueue_runsTasksInOrder(t *testing.T) {
	q := NewQueue(testutil.NopLogger{})

	var mu []int
	done := make(chan struct{})
	for i := 0; i < 3; i++ {
		i := i
		q.Enqueue("t", func(context.Context) error {
			mu = append(mu, i) // single worker, no race
			if i == 2 {
				close(done)
			}
			return nil
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks did not run")
	}
	q.Close()

	if len(mu) != 3 || mu[0] != 0 || mu[1] != 1 || mu[2] != 2 {
		t.Errorf("execution order = %v", mu)
	}
}

func TestQueue_retriesThenGivesUp(t *testing.T) {
	q := NewQueue(testutil.NopLogger{}, WithMaxRetries(2), WithBackoff(time.Millisecond))

	var attempts int32
	q.Enqueue("flaky", func(context.Context) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("boom")
	})
	q.Close()

	// initial attempt plus two retries
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestQueue_retriesUntilSuccess(t *testing.T) {
	q := NewQueue(testutil.NopLogger{}, WithMaxRetries(3), WithBackoff(time.Millisecond))

	var attempts int32
	q.Enqueue("flaky", func(context.Context) error {
		if atomic.AddInt32(&attempts, 1) < 2 {
			return errors.New("boom")
		}
		return nil
	})
	q.Close()

	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestQueue_dropsWhenFull(t *testing.T) {
	q := NewQueue(testutil.NopLogger{})

	// block the worker so the channel can fill up
	release := make(chan struct{})
	started := make(chan struct{})
	q.Enqueue("blocker", func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	var ran int32
	for i := 0; i < defaultQueueSize+10; i++ {
		q.Enqueue("filler", func(context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
	}
	close(release)
	q.Close()

	// the overflow was dropped, everything queued ran
	if got := atomic.LoadInt32(&ran); got != defaultQueueSize {
		t.Errorf("ran = %d, want %d", got, defaultQueueSize)
	}
}

func TestQueue_CloseIsIdempotent(t *testing.T) {
	q := NewQueue(testutil.NopLogger{})
	q.Close()
	q.Close() // must not panic
}

func TestQueue_enqueueAfterCloseIsDropped(t *testing.T) {
	q := NewQueue(testutil.NopLogger{})
	q.Close()

	var ran int32
	q.Enqueue("late", func(context.Context) error { // must not panic
		atomic.AddInt32(&ran, 1)
		return nil
	})
	if got := atomic.LoadInt32(&ran); got != 0 {
		t.Errorf("ran = %d, want 0", got)
	}
}
