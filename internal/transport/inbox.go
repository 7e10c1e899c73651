package transport

import "sync"

// inbox buffers decoded inbound messages until the owning control loop
// drains them. Subscription handlers run on paho's goroutines; the inbox
// is the hand-off point into the single-threaded loop.
type inbox[T any] struct {
	mu    sync.Mutex
	items []T
}

// put appends one message. Safe for concurrent use.
func (b *inbox[T]) put(item T) {
	b.mu.Lock()
	b.items = append(b.items, item)
	b.mu.Unlock()
}

// drain takes every buffered message, leaving the inbox empty.
// Returns nil when nothing is buffered. Messages are returned in arrival
// order, though callers must not depend on cross-message ordering; the
// broker provides none.
func (b *inbox[T]) drain() []T {
	b.mu.Lock()
	items := b.items
	b.items = nil
	b.mu.Unlock()
	return items
}

// size returns the number of buffered messages.
func (b *inbox[T]) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
