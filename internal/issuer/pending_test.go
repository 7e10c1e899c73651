package issuer

import (
	"testing"
	"time"

	"github.com/lumenctl/lumen-core/internal/protocol"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestResolveMatchesPendingID(t *testing.T) {
	clock := newFakeClock()
	table := NewPendingTable(5 * time.Second)
	table.SetClock(clock.Now)

	table.Register(1)
	clock.Advance(40 * time.Millisecond)

	ack := protocol.Acknowledgement{ID: 1, Success: true, Channel: protocol.ChannelRed, On: true}
	match, ok := table.Resolve(ack)
	if !ok {
		t.Fatal("Resolve() ok = false, want true")
	}
	if match.ID != 1 {
		t.Errorf("match.ID = %d, want 1", match.ID)
	}
	if match.Latency != 40*time.Millisecond {
		t.Errorf("match.Latency = %v, want 40ms", match.Latency)
	}
	if match.Ack != ack {
		t.Errorf("match.Ack = %+v, want %+v", match.Ack, ack)
	}
	if table.Pending(1) {
		t.Error("ID 1 still pending after Resolve")
	}
}

func TestResolveUnknownIDIsUnmatched(t *testing.T) {
	table := NewPendingTable(5 * time.Second)

	_, ok := table.Resolve(protocol.Acknowledgement{ID: 99})
	if ok {
		t.Error("Resolve() ok = true for never-registered ID, want false")
	}
}

func TestResolveIsTerminal(t *testing.T) {
	table := NewPendingTable(5 * time.Second)
	table.Register(1)

	ack := protocol.Acknowledgement{ID: 1}
	if _, ok := table.Resolve(ack); !ok {
		t.Fatal("first Resolve() ok = false, want true")
	}

	// A duplicate acknowledgement must not match a second time.
	if _, ok := table.Resolve(ack); ok {
		t.Error("second Resolve() ok = true, want false")
	}
}

func TestSweepEvictsOnlyExpired(t *testing.T) {
	clock := newFakeClock()
	table := NewPendingTable(5 * time.Second)
	table.SetClock(clock.Now)

	table.Register(1)
	clock.Advance(3 * time.Second)
	table.Register(2)

	// ID 1 is 3s old, ID 2 brand new: neither past the deadline.
	if expired := table.Sweep(); len(expired) != 0 {
		t.Fatalf("Sweep() = %v, want none", expired)
	}

	// ID 1 is now 6s old, ID 2 is 3s old.
	clock.Advance(3 * time.Second)
	expired := table.Sweep()
	if len(expired) != 1 || expired[0] != 1 {
		t.Fatalf("Sweep() = %v, want [1]", expired)
	}
	if table.Pending(1) {
		t.Error("ID 1 still pending after Sweep")
	}
	if !table.Pending(2) {
		t.Error("ID 2 evicted early")
	}
}

func TestSweepExactDeadlineNotExpired(t *testing.T) {
	clock := newFakeClock()
	table := NewPendingTable(5 * time.Second)
	table.SetClock(clock.Now)

	table.Register(1)
	clock.Advance(5 * time.Second)

	// Eviction requires age strictly greater than the deadline.
	if expired := table.Sweep(); len(expired) != 0 {
		t.Errorf("Sweep() at exact deadline = %v, want none", expired)
	}
}

func TestSweepThenResolveIsUnmatched(t *testing.T) {
	clock := newFakeClock()
	table := NewPendingTable(5 * time.Second)
	table.SetClock(clock.Now)

	table.Register(1)
	clock.Advance(6 * time.Second)

	if expired := table.Sweep(); len(expired) != 1 {
		t.Fatalf("Sweep() = %v, want [1]", expired)
	}

	// The late acknowledgement finds nothing to match.
	if _, ok := table.Resolve(protocol.Acknowledgement{ID: 1}); ok {
		t.Error("Resolve() after Sweep ok = true, want false")
	}
}

func TestSweepEmptyTable(t *testing.T) {
	table := NewPendingTable(5 * time.Second)

	if expired := table.Sweep(); expired != nil {
		t.Errorf("Sweep() on empty table = %v, want nil", expired)
	}
}

func TestLen(t *testing.T) {
	table := NewPendingTable(5 * time.Second)

	if table.Len() != 0 {
		t.Errorf("Len() = %d, want 0", table.Len())
	}

	table.Register(1)
	table.Register(2)
	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2", table.Len())
	}
}
