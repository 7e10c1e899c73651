// Package issuer implements the command-sending side of Lumen: it emits
// LED commands onto the bus, tracks them as pending, and correlates
// asynchronous acknowledgements against them.
//
// # Correlation model
//
// The transport gives no request/response linkage: commands and
// acknowledgements are independent, unordered messages. Correlation rests
// entirely on the request ID. The pieces:
//
//   - Allocator: monotonic request ID source, starting at 1 per session.
//   - Emitter: allocates an ID, publishes the command, registers it
//     pending, all within one loop tick, before the next drain.
//   - PendingTable: in-flight IDs with issue timestamps. Resolve matches
//     an acknowledgement and reports the round-trip latency; Sweep evicts
//     entries past the deadline.
//   - Loop: the single control goroutine. Each tick drains all available
//     acknowledgements, resolves them, then sweeps. Because drain,
//     resolve, and sweep are sequential within one goroutine, an ID is
//     removed exactly once: whichever of Resolve or Sweep sees it first
//     wins, and the other takes its no-op path.
//
// Three outcomes exist and none is an error: Matched (latency reported),
// Unmatched (late, duplicate, or foreign acknowledgement, silently
// discarded), and TimedOut (terminal; the command is not retried).
//
// State in this package is owned by the loop goroutine and needs no
// locking. The only cross-goroutine state is shutdown, carried by the
// context handed to Run.
package issuer
