// Package promise provides a small promise runtime for composing
// sequences of asynchronous work.
//
// A promise chain is a serialized pipeline: every constructor creates a
// fresh chain with one work item, and every Then, Catch, Finally, and
// Delay call appends one more item to that same chain and returns a new
// handle sharing it. The chain drains itself one item at a time, in
// append order, forwarding each item's settlement (a value or a
// rejection reason) to the next. Items of the same chain never run
// concurrently; items of different chains run in parallel on their
// executors.
//
// Rejections are ordinary values: a failing handler or constructor body
// turns into a rejected settlement that flows through the chain until a
// rejection handler consumes it. Protocol violations (settling a
// callback-style promise twice, racing zero promises) are not
// rejections; they are reported through the process-wide fatal handler
// and cannot be caught.
//
// The package does not support cancelling in-flight work. A work item
// that never reports completion stalls its chain forever, and the
// losing inputs of All and Race keep running with their results
// discarded.
package promise
