package promise

import (
	"github.com/google/uuid"

	"github.com/donatorsky/go-promise/internal/serialq"
)

// workItem is one unit of chained asynchronous work bound to an
// executor. Its run closure receives the chain's current settlement and
// must invoke complete exactly once, synchronously or not.
type workItem struct {
	exec Executor
	run  func(in settlement, complete func(out settlement))

	// next links this item to its successor. It is owned by the chain
	// and written only inside the chain's ordering context.
	next *workItem

	// out publishes this item's settlement to the handles observing it.
	// It is written once, before done is closed.
	out  settlement
	done chan struct{}
}

func newWorkItem(exec Executor, run func(settlement, func(settlement))) *workItem {
	if exec == nil {
		exec = DefaultExecutor()
	}
	return &workItem{
		exec: exec,
		run:  run,
		done: make(chan struct{}),
	}
}

// serialChain owns an ordered sequence of work items and drains it one
// item at a time: an item starts only after its predecessor has
// completed, and no two items of the same chain ever run concurrently.
//
// All head/tail/settlement mutation happens inside the chain's ordering
// queue, a dedicated serial execution context. Item closures run
// outside it, on their own executors, so they may block or take
// arbitrary time without stalling bookkeeping of other chains.
type serialChain struct {
	ordering serialq.Queue
	id       uuid.UUID

	// The fields below are owned by the ordering queue.
	head    *workItem
	tail    *workItem
	current settlement
}

func newSerialChain() *serialChain {
	return &serialChain{
		id:      uuid.New(),
		current: pending(),
	}
}

// append links item at the tail of the chain. If the chain is idle the
// drain restarts from item; otherwise the drain reaches it when the
// chain naturally advances.
func (c *serialChain) append(item *workItem) {
	c.ordering.Dispatch(func() {
		if c.tail == nil {
			c.head = item
			c.tail = item
			c.startHead()
		} else {
			c.tail.next = item
			c.tail = item
		}
	})
}

// startHead hands the head item to its executor. Runs inside the
// ordering queue.
func (c *serialChain) startHead() {
	item := c.head
	in := c.current
	traceStart(c)
	item.exec.Execute(func() {
		item.run(in, func(out settlement) {
			c.complete(item, out)
		})
	})
}

// complete re-enters the ordering queue to record item's settlement and
// advance the drain. A rejected settlement does not stop the drain; it
// is forwarded to the next item like any other.
func (c *serialChain) complete(item *workItem, out settlement) {
	c.ordering.Dispatch(func() {
		c.current = out
		item.out = out
		close(item.done)
		traceSettle(c, out)

		c.head = item.next
		item.next = nil
		if c.head != nil {
			c.startHead()
		} else {
			c.tail = nil
		}
	})
}
