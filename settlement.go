package promise

// settlement is the erased state record carried through a chain. The
// chain itself is not generic; each Promise[T] handle re-types the
// value at its handler boundary.
type settlement struct {
	state State
	value any
	err   error
}

func pending() settlement {
	return settlement{state: StatePending}
}

func fulfilledOf(value any) settlement {
	return settlement{state: StateFulfilled, value: value}
}

func rejectedOf(reason error) settlement {
	if reason == nil {
		reason = errNilReason
	}
	return settlement{state: StateRejected, err: reason}
}
