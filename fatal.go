package promise

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

const alreadySettledMsg = "Promise is already settled."
const emptyRaceMsg = "Cannot race with an empty array of promises."

// FatalError is the panic value used by the default fatal handler.
type FatalError struct {
	Msg  string
	File string
	Line int
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("promise: %s (%s:%d)", e.Msg, e.File, e.Line)
}

// A FatalHandler reports an unrecoverable protocol violation, such as
// settling a callback-style promise twice or racing zero promises. It
// receives a message and the source location that detected the
// violation, and must never return: violations are not representable as
// rejections, so the code raising one has no way to continue. The
// default handler panics with a *FatalError. Test harnesses that want
// to observe violations instead of terminating can install a handler
// that records the message and calls runtime.Goexit.
type FatalHandler func(msg string, file string, line int)

var fatalHandler atomic.Value

func init() {
	fatalHandler.Store(FatalHandler(defaultFatalHandler))
}

func defaultFatalHandler(msg, file string, line int) {
	panic(&FatalError{Msg: msg, File: file, Line: line})
}

// SetFatalHandler replaces the process-wide fatal handler and returns
// the previous one. Passing nil restores the default handler.
//
// If a handler returns despite the contract above, the violating
// operation is abandoned: the chain involved stalls, or Race returns a
// promise that never settles.
func SetFatalHandler(h FatalHandler) FatalHandler {
	if h == nil {
		h = defaultFatalHandler
	}
	prev := fatalHandler.Swap(h)
	return prev.(FatalHandler)
}

func fatal(msg string) {
	_, file, line, _ := runtime.Caller(1)
	fatalHandler.Load().(FatalHandler)(msg, file, line)
}
