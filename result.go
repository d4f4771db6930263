package promise

// Val returns a fulfilled Result carrying value.
func Val[T any](value T) Result[T] {
	return valResult[T]{value: value}
}

// Err returns a rejected Result carrying reason. A nil reason counts as
// fulfilled with the zero value of T.
func Err[T any](reason error) Result[T] {
	return errResult[T]{reason: reason}
}

type valResult[T any] struct {
	value T
}

func (r valResult[T]) Val() T       { return r.value }
func (r valResult[T]) Err() error   { return nil }
func (r valResult[T]) State() State { return StateFulfilled }

type errResult[T any] struct {
	reason error
}

func (r errResult[T]) Val() T {
	var zero T
	return zero
}

func (r errResult[T]) Err() error { return r.reason }

func (r errResult[T]) State() State {
	if r.reason == nil {
		return StateFulfilled
	}
	return StateRejected
}
