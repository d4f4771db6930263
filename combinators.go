package promise

import "github.com/donatorsky/go-promise/internal/serialq"

// All returns a promise that fulfills with the values of all input
// promises, in input order, once every one of them has fulfilled. The
// instant any input rejects, the returned promise rejects with that
// reason. Zero inputs fulfill immediately with an empty slice.
//
// Inputs drain independently and concurrently; All imposes no order on
// them. Inputs that settle after the aggregate has settled are not
// cancelled; they run to completion and their settlements are
// discarded.
func All[T any](promises ...*Promise[T]) *Promise[[]T] {
	return AllOn(nil, promises...)
}

// AllOn is All with an explicit executor for the aggregation handlers
// attached to each input.
func AllOn[T any](exec Executor, promises ...*Promise[T]) *Promise[[]T] {
	if len(promises) == 0 {
		return ResolveOn(exec, []T{})
	}
	return NewOn(exec, func(resolve Resolver[[]T], reject Rejector) {
		// Aggregation state is touched only inside agg, the
		// aggregator's own ordering queue. The finished flag makes sure
		// only the first terminal event is forwarded.
		var agg serialq.Queue
		results := make([]T, len(promises))
		remaining := len(promises)
		finished := false

		for i, p := range promises {
			i := i
			if p == nil {
				panic(nilPromisePanicMsg)
			}
			p.ThenOn(exec,
				func(value T) Result[T] {
					agg.Dispatch(func() {
						if finished {
							return
						}
						results[i] = value
						remaining--
						if remaining == 0 {
							finished = true
							resolve(results)
						}
					})
					return Val(value)
				},
				func(reason error) Result[T] {
					agg.Dispatch(func() {
						if finished {
							return
						}
						finished = true
						reject(reason)
					})
					return Err[T](reason)
				},
			)
		}
	})
}

// Race returns a promise that adopts the settlement of whichever input
// settles first in wall-clock order, fulfilled or rejected. The order
// of the inputs is irrelevant; only arrival order matters. Racing zero
// promises is a protocol violation reported through the fatal handler.
//
// Losing inputs are not cancelled; they run to completion and their
// settlements are discarded.
func Race[T any](promises ...*Promise[T]) *Promise[T] {
	return RaceOn(nil, promises...)
}

// RaceOn is Race with an explicit executor for the aggregation handlers
// attached to each input.
func RaceOn[T any](exec Executor, promises ...*Promise[T]) *Promise[T] {
	if len(promises) == 0 {
		fatal(emptyRaceMsg)
		// Only reachable through a fatal handler that violates its
		// never-return contract.
		return Pending[T]()
	}
	return NewOn(exec, func(resolve Resolver[T], reject Rejector) {
		var agg serialq.Queue
		finished := false

		for _, p := range promises {
			if p == nil {
				panic(nilPromisePanicMsg)
			}
			p.ThenOn(exec,
				func(value T) Result[T] {
					agg.Dispatch(func() {
						if !finished {
							finished = true
							resolve(value)
						}
					})
					return Val(value)
				},
				func(reason error) Result[T] {
					agg.Dispatch(func() {
						if !finished {
							finished = true
							reject(reason)
						}
					})
					return Err[T](reason)
				},
			)
		}
	})
}
