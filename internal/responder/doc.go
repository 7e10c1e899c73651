// Package responder implements the device side of Lumen: it consumes LED
// commands from the bus, mutates the simulated channel states, and
// publishes acknowledgements echoing each command's correlation ID.
//
// Every well-formed command is accepted unconditionally; there is no
// rejection path. State is mutated before the acknowledgement is
// published, so once an issuer observes the acknowledgement, any read of
// the device state reflects the command's effect.
//
// Commands are applied in arrival order. The transport guarantees no
// ordering across messages, and none is needed: each command is
// self-contained, and two commands racing for the same channel simply
// leave it at whichever arrived last.
//
// The state store is owned by the responder's single loop goroutine and
// needs no locking.
package responder
