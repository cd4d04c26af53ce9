package gc

import (
	"sync"
	"sync/atomic"

	"github.com/segheap/gcheap/heap"
	"github.com/segheap/gcheap/internal/blockhdr"
)

// Coalesce rebuilds every segment's free-list in parallel: consecutive
// runs of FREE blocks are absorbed into their leading block, and the
// resulting list of (now-larger) free blocks is threaded into a fresh
// free-list, published to the segment's FreeInfo. Segments with no
// FreeInfo entry are skipped, never created. The return value is the
// total number of free bytes (headers included) threaded into the
// rebuilt free-lists across all segments.
//
// Every segment Coalesce touches must already have its Lock held by the
// caller (true for the whole duration of a CollectGarbage cycle).
// Coalesce itself never locks, since its per-segment goroutines run on
// behalf of whatever goroutine is holding those locks.
func Coalesce(h *heap.Heap) uint64 {
	var wg sync.WaitGroup
	var total uint64
	n := h.NumSegments()
	wg.Add(n)
	for i := 0; i < n; i++ {
		idx := i
		go func() {
			defer wg.Done()
			seg, err := h.SegmentAt(idx)
			if err != nil {
				return
			}
			fi := h.Free.At(idx)
			if fi == nil {
				return
			}
			atomic.AddUint64(&total, uint64(coalesceSegment(seg, fi)))
		}()
	}
	wg.Wait()
	return atomic.LoadUint64(&total)
}

// coalesceSegment performs the run-merge walk over one segment and
// returns the rebuilt free-byte total. It assumes seg.Lock is already
// held by the caller (see Coalesce).
func coalesceSegment(seg *heap.Segment, fi *heap.FreeInfo) uint32 {
	size := uintptr(seg.Size())
	var head *blockhdr.Header
	var freeBytes uint32

	var off uintptr
	for off+blockhdr.HeaderSize <= size {
		h := seg.HeaderAt(off)
		if h.Size == 0 {
			break
		}
		next := off + blockhdr.HeaderSize + uintptr(h.Size)
		if next > size {
			break
		}

		if !h.IsFree() {
			off = next
			continue
		}

		mergedEnd := next
		for mergedEnd+blockhdr.HeaderSize <= size {
			n := seg.HeaderAt(mergedEnd)
			if n.Size == 0 {
				break
			}
			nnext := mergedEnd + blockhdr.HeaderSize + uintptr(n.Size)
			if nnext > size || !n.IsFree() {
				break
			}
			h.Size += uint32(blockhdr.HeaderSize) + n.Size
			mergedEnd = nnext
		}

		if head != nil {
			h.Next = head.Addr()
		} else {
			h.Next = 0
		}
		head = h
		freeBytes += uint32(blockhdr.HeaderSize) + h.Size

		off = mergedEnd
	}

	fi.Head = head
	fi.StoreFreeBytes(freeBytes)
	return freeBytes
}
