package issuer

// Allocator hands out request IDs: strictly increasing, starting at 1,
// never reused within a process lifetime. A fresh allocator starts over
// at 1; IDs are not persisted across restarts.
//
// Not safe for concurrent use. Emission happens from a single control
// loop, so the allocator carries no internal synchronisation; a second
// emitting goroutine would need its own issuer instance.
type Allocator struct {
	last uint64
}

// NewAllocator returns an allocator whose first Next() is 1.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next returns the next request ID.
func (a *Allocator) Next() uint64 {
	a.last++
	return a.last
}
