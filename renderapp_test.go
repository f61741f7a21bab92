package vkr

import "testing"

func TestStallWhileMinimizedWaitsForArea(t *testing.T) {
	sizes := [][2]int{{0, 0}, {0, 600}, {800, 0}, {800, 600}}
	calls := 0
	waits := 0

	stallWhileMinimized(func() (int, int) {
		s := sizes[calls]
		calls++
		return s[0], s[1]
	}, func() {
		waits++
	})

	if calls != len(sizes) {
		t.Errorf("returned after %d size queries, want %d (a single zero dimension is still minimized)", calls, len(sizes))
	}
	if waits != len(sizes)-1 {
		t.Errorf("pumped events %d times, want %d", waits, len(sizes)-1)
	}
}

func TestStallWhileMinimizedPassesThrough(t *testing.T) {
	stallWhileMinimized(func() (int, int) {
		return 800, 600
	}, func() {
		t.Fatal("waited for events with a visible window")
	})
}

func TestIndexCount(t *testing.T) {
	if n := indexCount(IndexSliceUint16{0, 1, 2, 2, 3, 0}); n != 6 {
		t.Errorf("uint16 index count = %d, want 6", n)
	}
	if n := indexCount(IndexSliceUint32{0, 1, 2}); n != 3 {
		t.Errorf("uint32 index count = %d, want 3", n)
	}
}
