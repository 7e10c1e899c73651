package responder

import "github.com/lumenctl/lumen-core/internal/protocol"

// Handler applies commands to the device state and produces
// acknowledgements.
//
// Handle is a pure transformation plus one side effect: the state
// mutation. Applying the same command twice is idempotent: the second
// application leaves the state unchanged and still acknowledges success.
type Handler struct {
	states *StateStore
}

// NewHandler creates a handler over the given state store.
func NewHandler(states *StateStore) *Handler {
	return &Handler{states: states}
}

// Handle applies one command and returns its acknowledgement.
//
// The state mutation happens before the acknowledgement is built, so by
// the time a caller publishes (and an issuer observes) the
// acknowledgement, the state change is already visible to any
// collaborator reading the store.
//
// Every well-formed command is accepted; there is no rejection path.
// Malformed commands never reach this point; the transport drops them
// at decode.
func (h *Handler) Handle(cmd protocol.Command) protocol.Acknowledgement {
	h.states.Set(cmd.Channel, cmd.On)
	return protocol.NewAcknowledgement(cmd)
}
