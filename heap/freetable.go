package heap

import (
	"sync/atomic"

	"github.com/segheap/gcheap/internal/blockhdr"
)

// FreeInfo is the per-segment summary the allocator and coalescer share:
// the head of the free-block chain and a running free-byte count. The head
// pointer is protected by the owning Segment's Lock; the counter is
// accessed atomically so probing readers can load it without contending
// for the lock.
type FreeInfo struct {
	// FreeBytes is updated with an atomic release store from the
	// coalescer, and by an atomic subtraction (AddFreeBytes) under the
	// segment lock from the allocator (both are safe: the allocator already holds the lock that
	// serializes it against every other writer of this field except a
	// concurrent coalescer, and a coalesce pass never runs concurrently
	// with an allocation against the same segment because
	// collect_garbage holds every segment lock for its whole duration).
	FreeBytes uint32

	// Head is the first FREE block in this segment's free-list, or nil.
	// Mutations require the owning Segment's Lock to be held.
	Head *blockhdr.Header
}

// LoadFreeBytes reads FreeBytes with acquire semantics, the way a probing
// allocator inspects segments it does not hold the lock for yet.
func (fi *FreeInfo) LoadFreeBytes() uint32 {
	return atomic.LoadUint32(&fi.FreeBytes)
}

// StoreFreeBytes writes FreeBytes with release semantics.
func (fi *FreeInfo) StoreFreeBytes(v uint32) {
	atomic.StoreUint32(&fi.FreeBytes, v)
}

// AddFreeBytes performs an atomic delta update, used by the allocator's
// subtraction path (delta negative) while under the segment lock. The
// result is clamped at zero.
func (fi *FreeInfo) AddFreeBytes(delta int64) {
	for {
		old := atomic.LoadUint32(&fi.FreeBytes)
		nv := int64(old) + delta
		if nv < 0 {
			nv = 0
		}
		if atomic.CompareAndSwapUint32(&fi.FreeBytes, old, uint32(nv)) {
			return
		}
	}
}

// FreeTable maps segment index (0..N) to its FreeInfo, one entry per
// segment across all three size classes, index-aligned with Heap's
// concatenated segment ordering (see Heap.SegmentAt).
type FreeTable struct {
	entries []FreeInfo
}

// NewFreeTable allocates a table with n zero-valued entries. Callers seed
// each entry's FreeBytes to the segment's initial free span right after
// construction.
func NewFreeTable(n int) *FreeTable {
	return &FreeTable{entries: make([]FreeInfo, n)}
}

// At returns the FreeInfo for segment index idx. Panics on out-of-range
// idx; callers are expected to have already validated idx against the
// heap's segment count (an out-of-range index is a programmer fault, not
// a routine error).
func (t *FreeTable) At(idx int) *FreeInfo {
	return &t.entries[idx]
}

// Len returns the number of tracked segments.
func (t *FreeTable) Len() int {
	return len(t.entries)
}
