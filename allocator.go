package vkr

import (
	"fmt"
	"log"

	gu "github.com/docker/go-units"
)

// Allocation is a span handed out by an allocator. Object points back at
// whatever resource lives in the span so the allocator can destroy it when
// the pool goes away.
type Allocation struct {
	Offset uint64
	Size   uint64
	Object interface{}
}

func (a *Allocation) String() string {
	return fmt.Sprintf("[%d %d]", a.Offset, a.Size)
}

// IAllocator hands out spans of a fixed size region of device memory
type IAllocator interface {
	Allocate(size uint64, align uint64) *Allocation
	Free(a *Allocation)
	LogDetails()
	DestroyContents()
}

// LinearAllocator is a first fit allocator over a fixed size region. It keeps
// allocations sorted by offset and fills the first gap large enough for the
// aligned request.
type LinearAllocator struct {
	Size   uint64
	allocs []*Allocation
}

func makeAlignUp(a uint64, align uint64) uint64 {
	if align == 0 {
		return a
	}
	m := a % align
	if m == 0 {
		return a
	}
	a = (a - m) + align
	return a
}

func (p *LinearAllocator) Free(fa *Allocation) {
	for i, a := range p.allocs {
		if a == fa {
			p.allocs = append(p.allocs[:i], p.allocs[i+1:]...)
			return
		}
	}
}

// Allocate returns a span of at least size bytes whose offset is a multiple
// of align, or nil when no gap is large enough.
func (p *LinearAllocator) Allocate(size uint64, align uint64) *Allocation {
	if len(p.allocs) == 0 {
		if size > p.Size {
			return nil
		}
		na := &Allocation{Offset: 0, Size: size}
		p.allocs = append(p.allocs, na)
		return na
	}

	// Gap before the first allocation
	if p.allocs[0].Offset >= size {
		na := &Allocation{Offset: 0, Size: size}
		p.allocs = append([]*Allocation{na}, p.allocs...)
		return na
	}

	// Gaps between neighbours
	for i := 0; i+1 < len(p.allocs); i++ {
		c := p.allocs[i]
		n := p.allocs[i+1]

		l := makeAlignUp(c.Offset+c.Size, align)
		h := n.Offset

		if l <= h && h-l >= size {
			// FIXME: this should examine all possible allocation options and choose the best
			na := &Allocation{Offset: l, Size: size}
			p.allocs = append(p.allocs[:i+1], append([]*Allocation{na}, p.allocs[i+1:]...)...)
			return na
		}
	}

	// Tail of the region
	last := p.allocs[len(p.allocs)-1]
	nl := makeAlignUp(last.Offset+last.Size, align)
	if nl <= p.Size && p.Size-nl >= size {
		na := &Allocation{Offset: nl, Size: size}
		p.allocs = append(p.allocs, na)
		return na
	}

	return nil
}

func (p *LinearAllocator) LogDetails() {
	var used uint64
	for _, a := range p.allocs {
		used += a.Size
	}
	log.Printf("  %d allocations, %s used of %s", len(p.allocs), gu.BytesSize(float64(used)), gu.BytesSize(float64(p.Size)))
}

// DestroyContents destroys every resource still living in this allocator and
// resets it to empty. Resources free their own allocation as they go, so this
// iterates over a snapshot.
func (p *LinearAllocator) DestroyContents() {
	allocs := make([]*Allocation, len(p.allocs))
	copy(allocs, p.allocs)
	for _, a := range allocs {
		if d, ok := a.Object.(IDestructable); ok {
			d.Destroy()
		}
	}
	p.allocs = nil
}

func (p *LinearAllocator) String() string {
	return fmt.Sprintf("%v", p.allocs)
}
