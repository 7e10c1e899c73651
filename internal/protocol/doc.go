// Package protocol defines the wire messages exchanged between the Lumen
// issuer and responder.
//
// Two message types travel over the bus, each on its own topic:
//
//   - Command: issuer → responder, requests one LED channel be switched
//     on or off. Carries a request ID for correlation.
//   - Acknowledgement: responder → issuer, echoes the request ID along
//     with the channel and resulting state.
//
// The transport provides no request/response linkage of its own; the
// request ID inside each message is the only correlation mechanism.
// Messages are JSON-encoded. Malformed payloads decode to an error and
// are dropped by the transport layer without affecting sibling messages.
//
// # Channels
//
// The three LED outputs are modelled as a closed enumeration (Red, Green,
// Blue) with an explicit ordinal-to-index mapping. The enumeration value
// doubles as the wire value and as the index into the responder's state
// array; Channel.Index makes that mapping explicit rather than relying on
// implicit numeric coercion.
package protocol
