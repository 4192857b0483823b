// Package workqueue implements a work-stealing parallel pool matching the
// public contract of kopia's internal/parallelwork package: a double-ended
// queue of work items, processed by a fixed number of worker goroutines
// that may themselves enqueue more work, with the queue bounded only by
// memory.
//
// This is the scheduler the spec requires for per-snapshot-root stat
// fan-out (internal/versionengine) and deleted-directory recursion
// (internal/deletedscanner): work can be pushed to either end, workers
// always pop from the front, and Process returns the first error any work
// item produced.
package workqueue

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// CallbackFunc is one unit of work submitted to a Queue.
type CallbackFunc func() error

// ProgressFunc is invoked after every state transition (enqueue or
// completion) if set on the Queue before Process runs.
type ProgressFunc func(ctx context.Context, enqueued, active, completed int64)

// Queue is a work-stealing double-ended queue of CallbackFunc. The zero
// value is not usable; construct with NewQueue.
type Queue struct {
	mu   sync.Mutex
	cond *sync.Cond
	work *list.List // of CallbackFunc

	enqueued  int64
	active    int64
	completed int64

	closed bool

	// ProgressCallback, if set before Process is called, is invoked after
	// every enqueue and every completion.
	ProgressCallback ProgressFunc
}

// NewQueue returns an empty Queue ready to accept work.
func NewQueue() *Queue {
	q := &Queue{work: list.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// EnqueueFront adds a work item to the front of the queue: it will be
// popped before anything already queued. Safe to call from inside a
// running work item.
func (q *Queue) EnqueueFront(ctx context.Context, cb CallbackFunc) {
	q.enqueue(ctx, cb, true)
}

// EnqueueBack adds a work item to the back of the queue. Safe to call from
// inside a running work item.
func (q *Queue) EnqueueBack(ctx context.Context, cb CallbackFunc) {
	q.enqueue(ctx, cb, false)
}

func (q *Queue) enqueue(ctx context.Context, cb CallbackFunc, front bool) {
	q.mu.Lock()
	if front {
		q.work.PushFront(cb)
	} else {
		q.work.PushBack(cb)
	}
	q.enqueued++
	q.reportLocked(ctx)
	q.cond.Signal()
	q.mu.Unlock()
}

func (q *Queue) reportLocked(ctx context.Context) {
	if q.ProgressCallback != nil {
		q.ProgressCallback(ctx, q.enqueued, q.active, q.completed)
	}
}

// Process runs numWorkers goroutines pulling from the queue until it is
// both empty and no worker has work in flight, or until one worker returns
// a non-nil error, whichever happens first. Process returns that first
// error, or nil once the queue has drained cleanly.
func (q *Queue) Process(ctx context.Context, numWorkers int) error {
	if numWorkers < 1 {
		numWorkers = 1
	}

	var (
		errOnce sync.Once
		firstErr error
		wg       sync.WaitGroup
	)

	recordErr := func(err error) {
		if err == nil {
			return
		}
		errOnce.Do(func() { firstErr = err })
	}

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.workerLoop(ctx, recordErr)
		}()
	}
	wg.Wait()

	return firstErr
}

func (q *Queue) workerLoop(ctx context.Context, recordErr func(error)) {
	for {
		cb, ok := q.popOrWait()
		if !ok {
			return
		}

		err := cb()

		q.mu.Lock()
		q.active--
		q.completed++
		if err != nil {
			q.closed = true
		}
		q.reportLocked(ctx)
		q.cond.Broadcast()
		q.mu.Unlock()

		recordErr(err)
	}
}

// popOrWait pops the front element if present. If the queue is empty but
// some other worker still has an item in flight, it waits for that worker
// to either enqueue more work or finish. It returns ok=false once the
// queue is empty and no work is outstanding anywhere, or once a work item
// has returned an error: the pool is done.
func (q *Queue) popOrWait() (CallbackFunc, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.closed {
			return nil, false
		}
		if el := q.work.Front(); el != nil {
			q.work.Remove(el)
			q.active++
			cb := el.Value.(CallbackFunc)
			return cb, true
		}
		if q.active == 0 {
			return nil, false
		}
		q.cond.Wait()
	}
}

// Stats returns a snapshot of the queue's enqueued/active/completed
// counters, useful for tests asserting on scheduling without racing the
// ProgressCallback.
func (q *Queue) Stats() (enqueued, active, completed int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enqueued, q.active, q.completed
}

// OnNthCompletion returns a CallbackFunc wrapping cb such that cb only
// actually runs the n-th time the returned function is invoked (useful for
// "run once all parents have checked in" barriers inside a work queue).
// Matches kopia's parallelwork.OnNthCompletion.
func OnNthCompletion(n int, cb CallbackFunc) CallbackFunc {
	var count int64
	target := int64(n)
	return func() error {
		if atomic.AddInt64(&count, 1) != target {
			return nil
		}
		return cb()
	}
}
