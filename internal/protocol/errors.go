package protocol

import "errors"

// Domain-specific errors for message encoding and decoding.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownChannel is returned when a channel value or index is
	// outside the three defined outputs.
	ErrUnknownChannel = errors.New("protocol: unknown channel")

	// ErrMalformedPayload is returned when an inbound payload cannot be
	// decoded as the expected message type.
	ErrMalformedPayload = errors.New("protocol: malformed payload")
)
