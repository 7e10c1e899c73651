package protocol

import (
	"encoding/json"
	"fmt"
)

// ackMessage is the detail text carried by every successful acknowledgement.
const ackMessage = "LED control successful"

// Command requests that one LED channel be switched on or off.
// Topic: lumen/{domain}/command
//
// Commands are immutable once created. The ID is allocated by the issuer
// and is strictly increasing within an issuer session; it is the sole
// correlation key between a command and its acknowledgement.
type Command struct {
	// ID uniquely identifies this command for correlation.
	ID uint64 `json:"id"`

	// Channel is the target LED output.
	Channel Channel `json:"channel"`

	// On is the desired output state.
	On bool `json:"on"`
}

// Acknowledgement reports the outcome of a handled command.
// Topic: lumen/{domain}/ack
//
// The ID echoes the originating command's ID; Channel and On echo the
// command's target and the state the responder applied.
type Acknowledgement struct {
	// ID is the request ID from the original command.
	ID uint64 `json:"id"`

	// Success indicates the command was applied. The responder accepts
	// every well-formed command, so this is always true on the wire today;
	// it exists so a rejection path can be added without a format change.
	Success bool `json:"success"`

	// Message is human-readable detail about the outcome.
	Message string `json:"message"`

	// Channel echoes the command's target.
	Channel Channel `json:"channel"`

	// On is the state the responder applied.
	On bool `json:"on"`
}

// NewAcknowledgement builds the success acknowledgement for a handled
// command, echoing its ID, channel, and applied state.
func NewAcknowledgement(cmd Command) Acknowledgement {
	return Acknowledgement{
		ID:      cmd.ID,
		Success: true,
		Message: ackMessage,
		Channel: cmd.Channel,
		On:      cmd.On,
	}
}

// EncodeCommand marshals a command to its JSON wire form.
func EncodeCommand(cmd Command) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encoding command %d: %w", cmd.ID, err)
	}
	return data, nil
}

// DecodeCommand unmarshals a command from its JSON wire form.
//
// Returns ErrMalformedPayload (wrapped) on invalid JSON, and
// ErrUnknownChannel (wrapped) if the channel value is out of range.
func DecodeCommand(payload []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if !cmd.Channel.Valid() {
		return Command{}, fmt.Errorf("%w: value %d in command %d", ErrUnknownChannel, int(cmd.Channel), cmd.ID)
	}
	return cmd, nil
}

// EncodeAck marshals an acknowledgement to its JSON wire form.
func EncodeAck(ack Acknowledgement) ([]byte, error) {
	data, err := json.Marshal(ack)
	if err != nil {
		return nil, fmt.Errorf("encoding ack %d: %w", ack.ID, err)
	}
	return data, nil
}

// DecodeAck unmarshals an acknowledgement from its JSON wire form.
//
// Returns ErrMalformedPayload (wrapped) on invalid JSON, and
// ErrUnknownChannel (wrapped) if the echoed channel is out of range.
func DecodeAck(payload []byte) (Acknowledgement, error) {
	var ack Acknowledgement
	if err := json.Unmarshal(payload, &ack); err != nil {
		return Acknowledgement{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if !ack.Channel.Valid() {
		return Acknowledgement{}, fmt.Errorf("%w: value %d in ack %d", ErrUnknownChannel, int(ack.Channel), ack.ID)
	}
	return ack, nil
}
