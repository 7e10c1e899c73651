package issuer

import (
	"fmt"

	"github.com/lumenctl/lumen-core/internal/protocol"
)

// CommandPublisher publishes commands toward the responder.
// Satisfied by *transport.IssuerBus; tests substitute a fake.
type CommandPublisher interface {
	PublishCommand(cmd protocol.Command) error
}

// Emitter builds and publishes commands, registering each as pending.
//
// It also remembers the command payload for every in-flight ID so that a
// later Matched or TimedOut outcome can be reported with the channel and
// state it concerned, not just a bare number. The PendingTable itself
// stays minimal (ID and timestamp only).
//
// Not safe for concurrent use; owned by the issuer control loop.
type Emitter struct {
	alloc    *Allocator
	pending  *PendingTable
	pub      CommandPublisher
	inflight map[uint64]protocol.Command
}

// NewEmitter creates an emitter over the given pending table and publisher.
func NewEmitter(pending *PendingTable, pub CommandPublisher) *Emitter {
	return &Emitter{
		alloc:    NewAllocator(),
		pending:  pending,
		pub:      pub,
		inflight: make(map[uint64]protocol.Command),
	}
}

// Emit allocates a request ID, publishes the command, and registers the
// ID as pending. Registration happens immediately after a successful
// publish, within the same loop tick and before the loop's next drain,
// so no acknowledgement for the ID can be observed while it is
// unregistered.
//
// A single publish attempt is made; on failure nothing is registered and
// the allocated ID is simply burned (IDs are never reused, so a gap is
// harmless).
//
// Returns:
//   - uint64: The allocated request ID (for correlation and logging)
//   - error: If the publish failed
func (e *Emitter) Emit(channel protocol.Channel, on bool) (uint64, error) {
	if !channel.Valid() {
		return 0, fmt.Errorf("%w: value %d", protocol.ErrUnknownChannel, int(channel))
	}

	cmd := protocol.Command{
		ID:      e.alloc.Next(),
		Channel: channel,
		On:      on,
	}

	if err := e.pub.PublishCommand(cmd); err != nil {
		return 0, err
	}

	e.pending.Register(cmd.ID)
	e.inflight[cmd.ID] = cmd
	return cmd.ID, nil
}

// Release returns the original command for a terminal ID and forgets it.
// Called once per ID, when the loop reports its Matched or TimedOut
// outcome. ok=false means the ID was never emitted by this emitter.
func (e *Emitter) Release(id uint64) (protocol.Command, bool) {
	cmd, ok := e.inflight[id]
	if ok {
		delete(e.inflight, id)
	}
	return cmd, ok
}
