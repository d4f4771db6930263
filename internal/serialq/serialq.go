// Package serialq provides a run-to-empty serial dispatcher. Tasks
// dispatched to a Queue run strictly in dispatch order, one at a time,
// on a goroutine owned by the queue. The queue holds no goroutine while
// it is empty; the first dispatch after the queue drains starts a new
// one.
//
// A Queue is the single-writer execution context used to serialize all
// promise chain bookkeeping. Tasks must not block: a task that blocks
// stalls every task dispatched after it.
package serialq

import (
	"sync"

	"github.com/gammazero/deque"
)

// Queue is a serial task dispatcher. The zero value is ready to use and
// must not be copied after first use.
type Queue struct {
	mu      sync.Mutex
	pending deque.Deque[func()]
	running bool
}

// Dispatch enqueues task to run after all previously dispatched tasks
// have returned. It never blocks. Dispatching from within a running
// task is allowed; the new task runs after the current one returns.
func (q *Queue) Dispatch(task func()) {
	if task == nil {
		panic("serialq: task must be non-nil")
	}
	q.mu.Lock()
	q.pending.PushBack(task)
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()
	go q.drain()
}

// drain is run by at most one goroutine at a time. The running flag is
// the ownership handoff: whoever flips it from false to true owns the
// queue until it observes the queue empty.
func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if q.pending.Len() == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		task := q.pending.PopFront()
		q.mu.Unlock()
		task()
	}
}
