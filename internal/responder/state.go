package responder

import "github.com/lumenctl/lumen-core/internal/protocol"

// StateStore holds the simulated LED panel: one boolean per channel,
// indexed by protocol.Channel.Index(). All outputs start off.
//
// The store lives for the responder process's lifetime and is never
// persisted; restarting the responder resets every output to off.
//
// Not safe for concurrent use. Only the responder control loop mutates
// it, which is what makes lock-free access sound.
type StateStore struct {
	states [protocol.ChannelCount]bool
}

// NewStateStore returns a store with every channel off.
func NewStateStore() *StateStore {
	return &StateStore{}
}

// Set records the state for a channel.
func (s *StateStore) Set(channel protocol.Channel, on bool) {
	s.states[channel.Index()] = on
}

// Get returns the current state of a channel.
func (s *StateStore) Get(channel protocol.Channel) bool {
	return s.states[channel.Index()]
}

// Snapshot returns a copy of all channel states, indexed by channel.
func (s *StateStore) Snapshot() [protocol.ChannelCount]bool {
	return s.states
}
