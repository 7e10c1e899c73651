package responder

import (
	"testing"

	"github.com/lumenctl/lumen-core/internal/protocol"
)

func TestStateStoreStartsAllOff(t *testing.T) {
	store := NewStateStore()

	for _, channel := range protocol.Channels {
		if store.Get(channel) {
			t.Errorf("Get(%s) = true at start, want false", channel)
		}
	}
}

func TestStateStoreSetGet(t *testing.T) {
	store := NewStateStore()

	store.Set(protocol.ChannelGreen, true)

	if !store.Get(protocol.ChannelGreen) {
		t.Error("Get(green) = false after Set(green, true)")
	}
	if store.Get(protocol.ChannelRed) || store.Get(protocol.ChannelBlue) {
		t.Error("setting green touched another channel")
	}

	store.Set(protocol.ChannelGreen, false)
	if store.Get(protocol.ChannelGreen) {
		t.Error("Get(green) = true after Set(green, false)")
	}
}

func TestStateStoreSnapshot(t *testing.T) {
	store := NewStateStore()
	store.Set(protocol.ChannelRed, true)
	store.Set(protocol.ChannelBlue, true)

	snapshot := store.Snapshot()
	want := [protocol.ChannelCount]bool{true, false, true}
	if snapshot != want {
		t.Errorf("Snapshot() = %v, want %v", snapshot, want)
	}

	// Snapshot is a copy: mutating the store afterwards must not
	// change it.
	store.Set(protocol.ChannelGreen, true)
	if snapshot[protocol.ChannelGreen.Index()] {
		t.Error("snapshot changed after store mutation")
	}
}
