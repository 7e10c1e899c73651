package issuer

import (
	"time"

	"github.com/lumenctl/lumen-core/internal/protocol"
)

// Match describes an acknowledgement successfully correlated with a
// pending request.
type Match struct {
	// ID is the correlated request ID.
	ID uint64

	// Latency is the elapsed time between emission and acknowledgement.
	Latency time.Duration

	// Ack is the acknowledgement payload as received.
	Ack protocol.Acknowledgement
}

// PendingTable tracks in-flight request IDs with their issue timestamps.
//
// An ID enters the table exactly once (Register, at emission) and leaves
// exactly once: either Resolve matches an acknowledgement for it, or
// Sweep evicts it past the deadline. The two removals are mutually
// exclusive: the table is touched only from the issuer's control loop,
// so whichever runs first wins and the other observes the ID absent.
//
// Not safe for concurrent use.
type PendingTable struct {
	entries  map[uint64]time.Time
	deadline time.Duration
	now      func() time.Time
}

// NewPendingTable creates an empty table with the given eviction deadline.
func NewPendingTable(deadline time.Duration) *PendingTable {
	return &PendingTable{
		entries:  make(map[uint64]time.Time),
		deadline: deadline,
		now:      time.Now,
	}
}

// SetClock replaces the table's time source. For testing deadline logic
// deterministically; production code leaves the default (time.Now).
func (t *PendingTable) SetClock(now func() time.Time) {
	t.now = now
}

// Register inserts id as pending at the current time.
//
// IDs come from the allocator and are unique per session, so a duplicate
// registration indicates a caller bug; the later registration wins (the
// issue timestamp resets) rather than failing, since there is no
// meaningful recovery either way.
func (t *PendingTable) Register(id uint64) {
	t.entries[id] = t.now()
}

// Resolve correlates an acknowledgement against the table.
//
// If the acknowledgement's ID is pending, the entry is removed and the
// match, including round-trip latency, is returned with ok=true.
// Otherwise ok=false: the acknowledgement is late, duplicate, or meant
// for another issuer sharing the topic. That is a defined outcome, not
// an error, and callers discard it silently.
func (t *PendingTable) Resolve(ack protocol.Acknowledgement) (Match, bool) {
	issuedAt, pending := t.entries[ack.ID]
	if !pending {
		return Match{}, false
	}
	delete(t.entries, ack.ID)
	return Match{
		ID:      ack.ID,
		Latency: t.now().Sub(issuedAt),
		Ack:     ack,
	}, true
}

// Sweep evicts every entry older than the deadline and returns the
// evicted IDs. Safe to call repeatedly on an empty or partially expired
// table; it never fails, only reports zero or more timed-out IDs.
//
// Cost is O(pending entries), which is bounded by caller concurrency
// (single digits in practice).
func (t *PendingTable) Sweep() []uint64 {
	var expired []uint64
	now := t.now()
	for id, issuedAt := range t.entries {
		if now.Sub(issuedAt) > t.deadline {
			expired = append(expired, id)
			delete(t.entries, id)
		}
	}
	return expired
}

// Len returns the number of pending entries.
func (t *PendingTable) Len() int {
	return len(t.entries)
}

// Pending reports whether id is currently in the table.
func (t *PendingTable) Pending(id uint64) bool {
	_, ok := t.entries[id]
	return ok
}
