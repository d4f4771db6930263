package promise

import (
	"sync/atomic"
	"time"
)

// A Promise is a handle on one point of a serial chain of asynchronous
// work. Handles are cheap: all state lives in the shared chain, and
// every continuation method appends one work item to that same chain
// and returns a new handle sharing it.
//
// Promise implements Result, so a handler may return another promise to
// have its chain adopt that promise's eventual settlement (flattening).
// Note that Val and Err block until the promise settles.
//
// There is no cancellation: once a work item starts, it is expected to
// eventually complete. A work item that never does stalls its chain
// forever.
type Promise[T any] struct {
	chain *serialChain

	// item is the work item whose output this handle observes.
	item *workItem
}

// observable lets the chain adopt another promise's settlement without
// knowing its value type.
type observable interface {
	onSettle(fn func(out settlement))
}

func newPromise[T any](exec Executor, run func(settlement, func(settlement))) *Promise[T] {
	c := newSerialChain()
	item := newWorkItem(exec, run)
	c.append(item)
	return &Promise[T]{chain: c, item: item}
}

// New creates a promise from a callback-style body running on the
// default executor. The body receives two completion callbacks and must
// invoke exactly one of them exactly once, from any goroutine, before
// or after returning. Calling either callback a second time, or
// panicking after one has been called, is a protocol violation reported
// through the fatal handler. A panic before either callback rejects the
// promise.
func New[T any](body func(resolve Resolver[T], reject Rejector)) *Promise[T] {
	return NewOn[T](nil, body)
}

// NewOn is New with an explicit executor for the body.
func NewOn[T any](exec Executor, body func(resolve Resolver[T], reject Rejector)) *Promise[T] {
	if body == nil {
		panic(nilBodyPanicMsg)
	}
	return newPromise[T](exec, func(_ settlement, complete func(settlement)) {
		var settled atomic.Bool
		settle := func(out settlement) {
			if !settled.CompareAndSwap(false, true) {
				fatal(alreadySettledMsg)
				return
			}
			complete(out)
		}
		defer func() {
			if v := recover(); v != nil {
				if settled.CompareAndSwap(false, true) {
					complete(rejectedOf(panicReason(v)))
				} else {
					fatal(alreadySettledMsg)
				}
			}
		}()
		body(
			func(value T) { settle(fulfilledOf(value)) },
			func(reason error) { settle(rejectedOf(reason)) },
		)
	})
}

// Go creates a promise from a direct-return body running on the default
// executor: a returned value fulfills, a non-nil error or a panic
// rejects.
func Go[T any](body func() (T, error)) *Promise[T] {
	return GoOn[T](nil, body)
}

// GoOn is Go with an explicit executor for the body.
func GoOn[T any](exec Executor, body func() (T, error)) *Promise[T] {
	if body == nil {
		panic(nilBodyPanicMsg)
	}
	return newPromise[T](exec, func(_ settlement, complete func(settlement)) {
		defer func() {
			if v := recover(); v != nil {
				complete(rejectedOf(panicReason(v)))
			}
		}()
		value, err := body()
		if err != nil {
			complete(rejectedOf(err))
		} else {
			complete(fulfilledOf(value))
		}
	})
}

// Resolve creates a promise that fulfills with value as soon as its
// work item runs.
func Resolve[T any](value T) *Promise[T] {
	return ResolveOn(nil, value)
}

// ResolveOn is Resolve with an explicit executor.
func ResolveOn[T any](exec Executor, value T) *Promise[T] {
	return newPromise[T](exec, func(_ settlement, complete func(settlement)) {
		complete(fulfilledOf(value))
	})
}

// Reject creates a promise that rejects with reason as soon as its work
// item runs.
func Reject[T any](reason error) *Promise[T] {
	return RejectOn[T](nil, reason)
}

// RejectOn is Reject with an explicit executor.
func RejectOn[T any](exec Executor, reason error) *Promise[T] {
	return newPromise[T](exec, func(_ settlement, complete func(settlement)) {
		complete(rejectedOf(reason))
	})
}

// Pending creates a promise that never settles.
func Pending[T any]() *Promise[T] {
	return newPromise[T](nil, func(_ settlement, _ func(settlement)) {})
}

// follow appends a work item to p's chain and returns a handle on it.
func (p *Promise[T]) follow(exec Executor, run func(settlement, func(settlement))) *Promise[T] {
	item := newWorkItem(exec, run)
	p.chain.append(item)
	return &Promise[T]{chain: p.chain, item: item}
}

// Then appends a continuation. On a fulfilled input the fulfillment
// handler runs with the value; on a rejected input the optional
// rejection handler runs with the reason, or, if none was given, the
// rejection is forwarded unchanged and no handler runs.
func (p *Promise[T]) Then(fulfillment FulfillHandler[T], rejection ...RejectHandler[T]) *Promise[T] {
	return p.ThenOn(nil, fulfillment, rejection...)
}

// ThenOn is Then with an explicit executor for the handlers.
func (p *Promise[T]) ThenOn(exec Executor, fulfillment FulfillHandler[T], rejection ...RejectHandler[T]) *Promise[T] {
	if fulfillment == nil {
		panic(nilHandlerPanicMsg)
	}
	var onRejected RejectHandler[T]
	if len(rejection) != 0 {
		onRejected = rejection[0]
	}
	return p.follow(exec, func(in settlement, complete func(settlement)) {
		if in.state == StateRejected {
			if onRejected == nil {
				complete(in)
				return
			}
			runHandler(complete, func() Result[T] { return onRejected(in.err) })
			return
		}
		value, _ := in.value.(T)
		runHandler(complete, func() Result[T] { return fulfillment(value) })
	})
}

// Catch appends a rejection handler; a fulfilled input passes through
// untouched. Equivalent to Then with only a rejection handler.
func (p *Promise[T]) Catch(rejection RejectHandler[T]) *Promise[T] {
	return p.CatchOn(nil, rejection)
}

// CatchOn is Catch with an explicit executor for the handler.
func (p *Promise[T]) CatchOn(exec Executor, rejection RejectHandler[T]) *Promise[T] {
	if rejection == nil {
		panic(nilHandlerPanicMsg)
	}
	return p.follow(exec, func(in settlement, complete func(settlement)) {
		if in.state != StateRejected {
			complete(in)
			return
		}
		runHandler(complete, func() Result[T] { return rejection(in.err) })
	})
}

// Finally appends a finalizer that runs on both paths. The input
// settlement is forwarded unchanged unless the body itself fails, in
// which case the body's failure replaces it and the original settlement
// is discarded.
func (p *Promise[T]) Finally(body FinallyHandler[T]) *Promise[T] {
	return p.FinallyOn(nil, body)
}

// FinallyOn is Finally with an explicit executor for the body.
func (p *Promise[T]) FinallyOn(exec Executor, body FinallyHandler[T]) *Promise[T] {
	if body == nil {
		panic(nilHandlerPanicMsg)
	}
	return p.follow(exec, func(in settlement, complete func(settlement)) {
		var res Result[T]
		panicked := true
		defer func() {
			if panicked {
				complete(rejectedOf(panicReason(recover())))
				return
			}
			switch {
			case res == nil:
				complete(in)
			default:
				if inner, ok := res.(observable); ok {
					inner.onSettle(func(out settlement) {
						if out.state == StateRejected {
							complete(out)
						} else {
							complete(in)
						}
					})
					return
				}
				if err := res.Err(); err != nil {
					complete(rejectedOf(err))
				} else {
					complete(in)
				}
			}
		}()
		res = body()
		panicked = false
	})
}

// Delay appends a pass-through item that forwards the settlement after
// d has elapsed. The sleep happens on the item's executor.
func (p *Promise[T]) Delay(d time.Duration) *Promise[T] {
	return p.DelayOn(nil, d)
}

// DelayOn is Delay with an explicit executor.
func (p *Promise[T]) DelayOn(exec Executor, d time.Duration) *Promise[T] {
	return p.follow(exec, func(in settlement, complete func(settlement)) {
		time.Sleep(d)
		complete(in)
	})
}

// Then appends a type-changing continuation to p and returns a handle
// of the new type. It exists because a method cannot introduce a new
// type parameter; it is otherwise Promise.Then without the optional
// rejection handler, which cannot change a promise's type anyway.
func Then[T, U any](p *Promise[T], fulfillment func(value T) Result[U]) *Promise[U] {
	return ThenOn[T, U](nil, p, fulfillment)
}

// ThenOn is the type-changing Then with an explicit executor.
func ThenOn[T, U any](exec Executor, p *Promise[T], fulfillment func(value T) Result[U]) *Promise[U] {
	if fulfillment == nil {
		panic(nilHandlerPanicMsg)
	}
	item := newWorkItem(exec, func(in settlement, complete func(settlement)) {
		if in.state == StateRejected {
			complete(in)
			return
		}
		value, _ := in.value.(T)
		runHandler(complete, func() Result[U] { return fulfillment(value) })
	})
	p.chain.append(item)
	return &Promise[U]{chain: p.chain, item: item}
}

// runHandler runs a handler, turning its outcome into a settlement: a
// panic or Err result rejects, a nil or Val result fulfills, and a
// returned promise is flattened by adopting its eventual settlement.
func runHandler[T any](complete func(settlement), h func() Result[T]) {
	var res Result[T]
	panicked := true
	defer func() {
		if panicked {
			complete(rejectedOf(panicReason(recover())))
			return
		}
		settleResult(complete, res)
	}()
	res = h()
	panicked = false
}

func settleResult[T any](complete func(settlement), res Result[T]) {
	if res == nil {
		var zero T
		complete(fulfilledOf(zero))
		return
	}
	if inner, ok := res.(observable); ok {
		inner.onSettle(complete)
		return
	}
	if err := res.Err(); err != nil {
		complete(rejectedOf(err))
		return
	}
	complete(fulfilledOf(res.Val()))
}

// onSettle invokes fn with this handle's settlement once it exists,
// from a fresh goroutine.
func (p *Promise[T]) onSettle(fn func(out settlement)) {
	go func() {
		<-p.item.done
		fn(p.item.out)
	}()
}

// Await blocks until this handle's point in the chain settles and
// returns its value or rejection reason.
func (p *Promise[T]) Await() (T, error) {
	<-p.item.done
	out := p.item.out
	value, _ := out.value.(T)
	return value, out.err
}

// Wait blocks until this handle's point in the chain settles.
func (p *Promise[T]) Wait() {
	<-p.item.done
}

// WaitChan returns a channel that is closed once this handle's point in
// the chain settles.
func (p *Promise[T]) WaitChan() <-chan struct{} {
	return p.item.done
}

// Res blocks until the promise settles and returns its settlement as a
// plain Result.
func (p *Promise[T]) Res() Result[T] {
	value, err := p.Await()
	if err != nil {
		return Err[T](err)
	}
	return Val(value)
}

// State reports the settlement state of this handle's point in the
// chain without blocking.
func (p *Promise[T]) State() State {
	select {
	case <-p.item.done:
		return p.item.out.state
	default:
		return StatePending
	}
}

// Val blocks until the promise settles and returns its value, or the
// zero value if it rejected. Part of the Result interface.
func (p *Promise[T]) Val() T {
	value, _ := p.Await()
	return value
}

// Err blocks until the promise settles and returns its rejection
// reason, if any. Part of the Result interface.
func (p *Promise[T]) Err() error {
	_, err := p.Await()
	return err
}
