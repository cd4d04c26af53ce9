package alloc

import (
	"sync/atomic"

	"github.com/segheap/gcheap/heap"
	"github.com/segheap/gcheap/internal/blockhdr"
)

// minSplitRemainder is sizeof(header) + 16: the smallest remainder worth
// carving into its own free block after a split. Anything smaller stays
// attached to the consumed block.
const minSplitRemainder = int(blockhdr.HeaderSize) + 16

// Allocator implements candidate segment selection and in-segment
// carving. It owns the per-size-class rotating cursor hints; everything
// else it reads (segments, free-byte counters, locks) lives on the Heap
// it was built for.
type Allocator struct {
	h *heap.Heap

	// cursor[class] is a rotation hint only: read acquire, written
	// release, its value may be stale and correctness never depends on
	// it. Scans start one past the hint so pressure spreads across the
	// class instead of convoying on whichever segment served last.
	cursor [3]uint32
}

// New builds an Allocator bound to h. Cursors start one before index 0 so
// the first scan of each class begins at its first segment.
func New(h *heap.Heap) *Allocator {
	a := &Allocator{h: h}
	for i := range a.cursor {
		a.cursor[i] = ^uint32(0)
	}
	return a
}

// FindSuitableSegment selects a candidate segment for a bytes-sized
// request within class. The second return value reports whether the
// returned segment's lock is already held (the try-lock path): callers
// must Lock() it themselves otherwise (the largest-qualifying fallback,
// taken when every candidate's try-lock lost). A negative index means no
// candidate existed at all.
func (a *Allocator) FindSuitableSegment(class heap.SizeClass, bytes uint32) (idx int, alreadyLocked bool) {
	segs := a.h.Segments(class)
	n := len(segs)
	if n == 0 {
		return -1, false
	}

	need := bytes + uint32(blockhdr.HeaderSize)
	hint := atomic.LoadUint32(&a.cursor[class])
	start := int((hint + 1) % uint32(n))

	fallbackLocal := -1
	var fallbackFree uint32

	for i := 0; i < n; i++ {
		local := (start + i) % n
		global, err := a.h.GlobalIndex(class, local)
		if err != nil {
			continue
		}
		fi := a.h.Free.At(global)
		free := fi.LoadFreeBytes()
		if free < need {
			continue
		}
		if fallbackLocal < 0 || free > fallbackFree {
			fallbackLocal, fallbackFree = local, free
		}
		if segs[local].Lock.TryLock() {
			atomic.StoreUint32(&a.cursor[class], uint32(local))
			return local, true
		}
	}

	if fallbackLocal >= 0 {
		atomic.StoreUint32(&a.cursor[class], uint32(fallbackLocal))
		return fallbackLocal, false
	}
	return -1, false
}

// AllocateFromSegment walks seg's free-list first-fit and carves out a
// bytes-sized block. The caller must already hold seg.Lock. Returns nil
// when no free block in this segment was large enough.
func (a *Allocator) AllocateFromSegment(class heap.SizeClass, local int, bytes uint32) *blockhdr.Header {
	seg := a.h.Segments(class)[local]
	global, err := a.h.GlobalIndex(class, local)
	if err != nil {
		return nil
	}
	fi := a.h.Free.At(global)

	var prev *blockhdr.Header
	cur := fi.Head
	for cur != nil {
		if cur.IsFree() && cur.Size >= bytes {
			break
		}
		prev = cur
		cur = nextOf(cur)
	}
	if cur == nil {
		return nil
	}

	remaining := cur.Size - bytes
	reclaimed := cur.Size
	if remaining >= uint32(minSplitRemainder) {
		splitOff := seg.OffsetOf(cur) + blockhdr.HeaderSize + uintptr(bytes)
		split := seg.HeaderAt(splitOff)
		split.Size = remaining - uint32(blockhdr.HeaderSize)
		split.Next = cur.Next
		split.SetFree(true)
		split.SetMarked(false)

		cur.Size = bytes
		cur.Next = split.Addr()
		reclaimed = bytes
	}

	unlink(fi, prev, cur)

	cur.Next = 0
	cur.SetMarked(false)
	cur.SetFree(false)

	fi.AddFreeBytes(-(int64(reclaimed) + int64(blockhdr.HeaderSize)))
	return cur
}

// nextOf dereferences h.Next as a Header, or nil at the end of the
// free-list.
func nextOf(h *blockhdr.Header) *blockhdr.Header {
	if h.Next == 0 {
		return nil
	}
	return blockhdr.FromAddr(h.Next)
}

// unlink removes cur from the free-list anchored at fi.Head, updating
// either prev.Next or the head.
func unlink(fi *heap.FreeInfo, prev, cur *blockhdr.Header) {
	if prev == nil {
		fi.Head = nextOf(cur)
		return
	}
	prev.Next = cur.Next
}
