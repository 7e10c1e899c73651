package issuer

import "testing"

func TestAllocatorStartsAtOne(t *testing.T) {
	alloc := NewAllocator()

	if got := alloc.Next(); got != 1 {
		t.Errorf("first Next() = %d, want 1", got)
	}
}

func TestAllocatorStrictlyIncreasing(t *testing.T) {
	alloc := NewAllocator()

	var prev uint64
	for i := 0; i < 1000; i++ {
		id := alloc.Next()
		if id <= prev {
			t.Fatalf("Next() = %d after %d, want strictly increasing", id, prev)
		}
		prev = id
	}
}

func TestAllocatorFreshInstanceRestartsAtOne(t *testing.T) {
	first := NewAllocator()
	first.Next()
	first.Next()

	second := NewAllocator()
	if got := second.Next(); got != 1 {
		t.Errorf("fresh allocator Next() = %d, want 1", got)
	}
}
