package gc

import (
	"sync"

	"github.com/segheap/gcheap/heap"
	"github.com/segheap/gcheap/heap/roots"
	"github.com/segheap/gcheap/internal/blockhdr"
)

// markBarrier is the mark phase's completion latch: it counts the root
// entries covered by the dispatched tasks and blocks the phase until the
// last task finishes.
type markBarrier struct {
	wg    sync.WaitGroup
	roots int
}

func newMarkBarrier(buckets [][]roots.Root) *markBarrier {
	b := &markBarrier{}
	for _, bucket := range buckets {
		b.roots += len(bucket)
	}
	b.wg.Add(len(buckets))
	return b
}

func (b *markBarrier) taskDone() { b.wg.Done() }
func (b *markBarrier) wait()     { b.wg.Wait() }

// Count reports the total number of root entries the dispatched tasks
// cover.
func (b *markBarrier) Count() int { return b.roots }

// Mark visits every root registered in reg in parallel and sets the
// MARKED flag on every block any root currently references. It
// dispatches one task per non-empty registry bucket (Registry.Snapshot)
// rather than one per root entry, blocks until every dispatched task
// completes, and returns the number of root entries visited.
//
// Marking a block twice, or racing with another concurrent Mark call on
// the same block, is safe: the underlying flag write is an atomic OR
// (blockhdr.Header.Mark).
func Mark(reg *roots.Registry) int {
	buckets := reg.Snapshot()
	b := newMarkBarrier(buckets)
	for _, bucket := range buckets {
		bucket := bucket
		go func() {
			defer b.taskDone()
			for _, r := range bucket {
				r.Mark()
			}
		}()
	}
	b.wait()
	return b.Count()
}

// Sweep walks every segment's block chain once, in parallel across
// segments, and returns the number of segments swept. Per header: a
// MARKED block has its MARKED flag cleared (it survived this cycle); an
// unmarked block is set FREE (it did not). Sweep never rebuilds
// free-lists; that is Coalesce's job. A block that was already on a
// free-list and is also unmarked is simply re-flagged FREE, a no-op.
func Sweep(h *heap.Heap) int {
	var wg sync.WaitGroup
	n := h.NumSegments()
	swept := 0
	wg.Add(n)
	for i := 0; i < n; i++ {
		seg, err := h.SegmentAt(i)
		if err != nil {
			wg.Done()
			continue
		}
		swept++
		go func(seg *heap.Segment) {
			defer wg.Done()
			sweepSegment(seg)
		}(seg)
	}
	wg.Wait()
	return swept
}

func sweepSegment(seg *heap.Segment) {
	seg.Walk(func(h *blockhdr.Header, _ uintptr) bool {
		if h.IsMarked() {
			h.SetMarked(false)
		} else {
			h.SetFree(true)
		}
		return true
	})
}
