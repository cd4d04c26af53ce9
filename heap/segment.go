package heap

import (
	"sync"
	"unsafe"

	"github.com/segheap/gcheap/internal/blockhdr"
	"github.com/segheap/gcheap/internal/memseg"
)

// Segment owns one contiguous, page-aligned memory region carved into a
// linear chain of blocks. It is move-only in spirit (callers hold it by
// pointer) and exclusively owned by a Heap; Lock guards every mutation of
// its block chain and free-list head.
//
// At construction the whole region is a single FREE, unmarked block whose
// header sits at offset 0.
type Segment struct {
	// Lock serializes all mutation of this segment's block chain and
	// free-list head. find_suitable_segment try-locks it;
	// allocate_from_segment and the coalescer hold it exclusively.
	// collect_garbage acquires every segment's Lock, in segment index
	// order, for the duration of a collection cycle.
	Lock sync.Mutex

	region *memseg.Region
	base   unsafe.Pointer
	size   int
}

// NewSegment reserves a size-byte region and writes its initial free
// header.
func NewSegment(size int) (*Segment, error) {
	r, err := memseg.Map(size)
	if err != nil {
		return nil, err
	}
	s := &Segment{
		region: r,
		base:   unsafe.Pointer(&r.Bytes()[0]),
		size:   size,
	}
	first := blockhdr.At(s.base, 0)
	first.Next = 0
	first.Size = uint32(size) - uint32(blockhdr.HeaderSize)
	first.SetFree(true)
	first.SetMarked(false)
	return s, nil
}

// Close releases the segment's backing memory. Not safe to call while any
// other goroutine may still be walking the segment.
func (s *Segment) Close() error {
	return s.region.Unmap()
}

// Base returns the address of byte 0 of the segment.
func (s *Segment) Base() unsafe.Pointer {
	return s.base
}

// Size returns the segment's total byte length.
func (s *Segment) Size() int {
	return s.size
}

// HeaderAt returns the Header whose first byte is offset bytes into the
// segment.
func (s *Segment) HeaderAt(offset uintptr) *blockhdr.Header {
	return blockhdr.At(s.base, offset)
}

// OffsetOf returns h's byte offset within this segment, the inverse of
// HeaderAt.
func (s *Segment) OffsetOf(h *blockhdr.Header) uintptr {
	return uintptr(unsafe.Pointer(h)) - uintptr(s.base)
}

// Walk invokes fn once per header in address order, starting at offset 0.
// The walk stops when the next header would spill past the segment end,
// when a header declares Size == 0, or when fn returns false. The first
// two are guards against walking a corrupted chain.
func (s *Segment) Walk(fn func(h *blockhdr.Header, offset uintptr) bool) {
	var off uintptr
	for off+blockhdr.HeaderSize <= uintptr(s.size) {
		h := s.HeaderAt(off)
		if h.Size == 0 {
			return
		}
		next := off + blockhdr.HeaderSize + uintptr(h.Size)
		if next > uintptr(s.size) {
			return
		}
		if !fn(h, off) {
			return
		}
		off = next
	}
}
