package protocol

import "fmt"

// Channel identifies one of the three addressable LED outputs.
// The zero value is ChannelRed.
type Channel int

// The three defined channels, in index order.
const (
	ChannelRed Channel = iota
	ChannelGreen
	ChannelBlue
)

// ChannelCount is the number of addressable channels.
const ChannelCount = 3

// Channels lists every valid channel in index order.
// Useful for iterating all outputs (e.g., the issuer's startup burst).
var Channels = [ChannelCount]Channel{ChannelRed, ChannelGreen, ChannelBlue}

// Index returns the state-array index for the channel (0..2).
//
// The mapping is the identity on the enumeration ordinal, but callers
// must go through this method rather than converting directly so the
// wire-value-to-index relationship stays in one place.
func (c Channel) Index() int {
	return int(c)
}

// Valid reports whether c is one of the three defined channels.
func (c Channel) Valid() bool {
	return c >= ChannelRed && c < ChannelCount
}

// String returns the lowercase channel name, or "unknown(n)" for
// out-of-range values.
func (c Channel) String() string {
	switch c {
	case ChannelRed:
		return "red"
	case ChannelGreen:
		return "green"
	case ChannelBlue:
		return "blue"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// ChannelFromIndex converts a state-array index back to a Channel.
//
// Returns ErrUnknownChannel (wrapped) if the index is outside 0..2.
func ChannelFromIndex(i int) (Channel, error) {
	if i < 0 || i >= ChannelCount {
		return 0, fmt.Errorf("%w: index %d", ErrUnknownChannel, i)
	}
	return Channel(i), nil
}
