package gc

import (
	"time"

	"github.com/segheap/gcheap/heap"
	"github.com/segheap/gcheap/heap/roots"
)

// Summary describes one completed collection cycle.
type Summary struct {
	// RootsMarked is the number of root entries the mark phase visited.
	RootsMarked int
	// SegmentsSwept is the number of segments the sweep phase walked.
	SegmentsSwept int
	// FreeBytes is the total free bytes (headers included) across all
	// rebuilt free-lists after coalescing.
	FreeBytes uint64
	// Duration is the wall-clock length of the stop-the-world window.
	Duration time.Duration
}

// CollectGarbage runs one full stop-the-world cycle: every segment lock
// is acquired in index order (deadlock-free, since no other code path
// ever holds more than one segment lock at a time), the collector's mark
// and sweep phases run, the coalescer rebuilds every segment's free-list
// in parallel, and every lock is released on the way out via defer.
func CollectGarbage(h *heap.Heap, reg *roots.Registry) Summary {
	start := time.Now()
	n := h.NumSegments()
	for i := 0; i < n; i++ {
		seg, err := h.SegmentAt(i)
		if err != nil {
			continue
		}
		seg.Lock.Lock()
		defer seg.Lock.Unlock()
	}

	marked := Mark(reg)
	swept := Sweep(h)
	freeBytes := Coalesce(h)

	return Summary{
		RootsMarked:   marked,
		SegmentsSwept: swept,
		FreeBytes:     freeBytes,
		Duration:      time.Since(start),
	}
}
