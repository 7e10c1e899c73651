// Package transport adapts the push-style MQTT client into the drainable
// message bus the control loops consume.
//
// The correlation core is single-threaded by design: each role runs one
// control loop that drains all newly available messages, dispatches them,
// and (on the issuer) sweeps for timeouts, all within one tick. Paho
// delivers messages on its own goroutines, so this package buffers decoded
// messages in an inbox and exposes a non-blocking take-all drain.
//
// The buses provide exactly the four capabilities the core depends on:
//
//   - fire-and-forget publish per message type
//   - non-blocking drain of newly available messages
//   - a presence signal that a matching counterpart exists
//   - best-effort delivery with no cross-message ordering guarantee
//
// Malformed inbound payloads are dropped individually: the decode failure
// is logged and counted, and sibling messages in the same drain are
// unaffected.
package transport
