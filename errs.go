package promise

import "fmt"

type constError string

func (e constError) Error() string {
	return string(e)
}

// errNilReason replaces a nil rejection reason, so that a rejected
// settlement always carries a non-nil error.
const errNilReason = constError("promise: rejected with nil reason")

const nilBodyPanicMsg = "promise: body must be non-nil"
const nilHandlerPanicMsg = "promise: handler must be non-nil"
const nilPromisePanicMsg = "promise: promise must be non-nil"

// PanicError wraps a non-error value recovered from a panicking handler
// or constructor body. Panics with error values are used as the
// rejection reason directly.
type PanicError struct {
	V any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("promise: handler panicked: %v", e.V)
}

func panicReason(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return &PanicError{V: v}
}
