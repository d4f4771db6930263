package promise

import (
	"log/slog"
	"sync/atomic"
)

// traceLogger is the optional trace hook. Nil means tracing is off.
var traceLogger atomic.Pointer[slog.Logger]

// SetLogger installs a logger that receives a debug-level record for
// every work item start and settlement, tagged with the owning chain's
// id. Passing nil, the default, disables tracing.
func SetLogger(l *slog.Logger) {
	traceLogger.Store(l)
}

func traceStart(c *serialChain) {
	if l := traceLogger.Load(); l != nil {
		l.Debug("work item started", "chain", c.id)
	}
}

func traceSettle(c *serialChain, out settlement) {
	if l := traceLogger.Load(); l != nil {
		l.Debug("work item settled", "chain", c.id, "state", string(out.state), "reason", out.err)
	}
}
