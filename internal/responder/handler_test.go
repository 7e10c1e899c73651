package responder

import (
	"testing"

	"github.com/lumenctl/lumen-core/internal/protocol"
)

func TestHandleMutatesStateAndAcknowledges(t *testing.T) {
	states := NewStateStore()
	handler := NewHandler(states)

	cmd := protocol.Command{ID: 5, Channel: protocol.ChannelBlue, On: true}
	ack := handler.Handle(cmd)

	if !states.Get(protocol.ChannelBlue) {
		t.Error("state not mutated by Handle")
	}
	if ack.ID != cmd.ID {
		t.Errorf("ack.ID = %d, want %d", ack.ID, cmd.ID)
	}
	if !ack.Success {
		t.Error("ack.Success = false, want true")
	}
	if ack.Channel != cmd.Channel || ack.On != cmd.On {
		t.Errorf("ack echoes %v/%v, want %v/%v", ack.Channel, ack.On, cmd.Channel, cmd.On)
	}
}

func TestHandleIsIdempotent(t *testing.T) {
	states := NewStateStore()
	handler := NewHandler(states)

	cmd := protocol.Command{ID: 1, Channel: protocol.ChannelRed, On: true}

	first := handler.Handle(cmd)
	second := handler.Handle(cmd)

	if !states.Get(protocol.ChannelRed) {
		t.Error("state wrong after duplicate command")
	}
	if !second.Success {
		t.Error("duplicate command not acknowledged with success")
	}
	if first.Channel != second.Channel || first.On != second.On {
		t.Error("duplicate command acknowledged differently")
	}
}

func TestHandleAcceptsEveryWellFormedCommand(t *testing.T) {
	states := NewStateStore()
	handler := NewHandler(states)

	// On then off for every channel; all accepted.
	for _, channel := range protocol.Channels {
		for _, on := range []bool{true, false} {
			ack := handler.Handle(protocol.Command{ID: 1, Channel: channel, On: on})
			if !ack.Success {
				t.Errorf("Handle(%s, %v).Success = false, want true", channel, on)
			}
			if states.Get(channel) != on {
				t.Errorf("state for %s = %v, want %v", channel, states.Get(channel), on)
			}
		}
	}
}
