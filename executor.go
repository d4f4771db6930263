package promise

import "sync"

// An Executor runs tasks submitted to it. Work items bound to an
// executor have their closures run through it, so an executor decides
// where and with how much parallelism user code runs. Chain bookkeeping
// never runs on an executor.
//
// Execute must not block the caller: it is invoked from the chain's
// ordering context, which must stay responsive. Run the task on another
// goroutine, or apply capacity limits inside that goroutine, the way
// Pool does.
type Executor interface {
	Execute(task func())
}

// Pool is a goroutine-per-task Executor with an optional limit on the
// number of concurrently running tasks. Tasks submitted beyond the
// limit wait for a running task to finish, in no particular order.
type Pool struct {
	wg          sync.WaitGroup
	reserveChan chan struct{}
}

// NewPool creates a Pool running at most limit tasks at a time. A limit
// of zero or less means no limit.
func NewPool(limit int) *Pool {
	p := &Pool{}
	if limit > 0 {
		p.reserveChan = make(chan struct{}, limit)
	}
	return p
}

// Execute submits task to the pool. It never blocks; the task's
// goroutine waits for capacity instead.
func (p *Pool) Execute(task func()) {
	if task == nil {
		panic("promise: task must be non-nil")
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if p.reserveChan != nil {
			p.reserveChan <- struct{}{}
			defer func() { <-p.reserveChan }()
		}
		task()
	}()
}

// Wait blocks until every task submitted so far has returned. Tasks
// submitted while waiting are waited for as well.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// defaultPool is the shared, process-wide, unbounded executor used by
// all constructors and continuations that are not given one.
var defaultPool = NewPool(0)

// DefaultExecutor returns the shared unbounded pool used when no
// executor is specified.
func DefaultExecutor() Executor {
	return defaultPool
}
