package vkr

import (
	"testing"
)

func TestAlign(t *testing.T) {
	if makeAlignUp(12, 3) != 12 {
		t.Fail()
	}

	if makeAlignUp(10, 3) != 12 {
		t.Fail()
	}

	if makeAlignUp(7, 0) != 7 {
		t.Fail()
	}
}

func TestLinearAllocator(t *testing.T) {

	a := LinearAllocator{Size: 1024}

	ra := a.Allocate(2048, 1)
	if ra != nil {
		t.Error("allocation larger than the region should fail")
	}

	first := a.Allocate(512, 1)
	if first == nil || first.Offset != 0 {
		t.Error("first allocation should start the region")
	}

	ra = a.Allocate(768, 1)
	if ra != nil {
		t.Error("allocation larger than the remaining space should fail")
	}

	second := a.Allocate(500, 1)
	if second == nil || second.Offset != 512 {
		t.Error("allocation should follow the previous one")
	}

	ra = a.Allocate(50, 1)
	if ra != nil {
		t.Error("allocation larger than the tail should fail")
	}

	third := a.Allocate(5, 1)
	if third == nil || third.Offset != 1012 {
		t.Error("small allocation should still fit the tail")
	}

	ra = a.Allocate(20, 1)
	if ra != nil {
		t.Error("full region should reject further allocations")
	}

	a.Free(second)
	ra = a.Allocate(500, 1)
	if ra == nil || ra.Offset != 512 {
		t.Error("freed gap should be reused")
	}

	a.Free(first)
	ra = a.Allocate(20, 1)
	if ra == nil || ra.Offset != 0 {
		t.Error("gap at the head should be reused")
	}

	ra = a.Allocate(40, 1)
	if ra == nil || ra.Offset != 20 {
		t.Error("remainder of the head gap should be reused")
	}

	ra = a.Allocate(16, 256)
	if ra == nil || ra.Offset != 256 {
		t.Error("aligned allocation should skip gaps smaller than the alignment")
	}
}

type destroyCounter struct {
	destroyed int
}

func (d *destroyCounter) Destroy() {
	d.destroyed++
}

func TestLinearAllocatorDestroyContents(t *testing.T) {
	a := LinearAllocator{Size: 64}

	c := &destroyCounter{}

	alloc := a.Allocate(32, 1)
	if alloc == nil {
		t.Fatal("allocation failed")
	}
	alloc.Object = c

	a.DestroyContents()

	if c.destroyed != 1 {
		t.Error("contained object should have been destroyed")
	}

	if a.Allocate(64, 1) == nil {
		t.Error("allocator should be empty after DestroyContents")
	}
}
