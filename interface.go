package promise

// State describes the settlement of one point in a promise chain.
type State string

const (
	StatePending   = State("pending")
	StateFulfilled = State("fulfilled")
	StateRejected  = State("rejected")
)

// Resolver fulfills a callback-style promise with a value.
type Resolver[T any] func(value T)

// Rejector rejects a callback-style promise with a reason.
type Rejector func(reason error)

// FulfillHandler handles the value of a fulfilled promise. See Result
// for the meaning of the returned value; returning nil fulfills the
// next link with the zero value of T.
type FulfillHandler[T any] func(value T) Result[T]

// RejectHandler handles the reason of a rejected promise. Returning a
// fulfilled Result (or nil) recovers the chain; returning Err keeps it
// rejected.
type RejectHandler[T any] func(reason error) Result[T]

// FinallyHandler runs on both the fulfillment and the rejection path.
// Its result cannot replace a settlement unless it is itself a failure:
// a nil or fulfilled Result forwards the original settlement, while a
// rejected Result (or a returned promise that rejects, or a panic)
// replaces the original settlement with that failure.
type FinallyHandler[T any] func() Result[T]

// Result is the outcome of a handler: a value, an error, or a promise
// of either. Build one with Val or Err, or return a *Promise[T] to have
// the chain adopt its eventual settlement instead.
type Result[T any] interface {
	Val() T
	Err() error
	State() State
}
