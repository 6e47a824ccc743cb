// Package voteprocessing implements the per-question bulk vote operations
// inside the election-core context.
//
// The module owns the two phase-window operations the dispatcher invokes:
// annulling recorded votes cast during an invalidated voting period, and
// selecting each voter's latest valid vote for counting while annulling the
// superseded ones. State changes emit summary events through the outbox, which
// the worker relay publishes to the bus. Infrastructure stays behind ports and
// adapters.
package voteprocessing
