package gc

import (
	"testing"
	"time"

	"github.com/segheap/gcheap/heap"
	"github.com/segheap/gcheap/heap/alloc"
	"github.com/segheap/gcheap/heap/roots"
	"github.com/stretchr/testify/require"
)

func testConfig() heap.Config {
	return heap.Config{
		Name:            "test",
		SegmentBytes:    4096,
		SmallCount:      1,
		MediumCount:     1,
		LargeCount:      1,
		SmallThreshold:  256,
		MediumThreshold: 2048,
		LargeThreshold:  262144,
		FastRetryRounds: 3,
	}
}

func newTestHeap(t *testing.T) *heap.Heap {
	t.Helper()
	h, err := heap.New(testConfig())
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return h
}

// TestGCOfUnreachable allocates three small blocks a, b, c, stores only a
// in a global root, then runs a full collection cycle. a must survive
// (FREE=0); b and c must be freed (FREE=1).
func TestGCOfUnreachable(t *testing.T) {
	h := newTestHeap(t)
	a := alloc.New(h)
	reg := roots.NewRegistry()

	seg := h.Segments(heap.Small)[0]

	allocate := func(bytes uint32) *blockOffsetPair {
		local, locked := a.FindSuitableSegment(heap.Small, bytes)
		require.GreaterOrEqual(t, local, 0)
		if !locked {
			seg.Lock.Lock()
		}
		blk := a.AllocateFromSegment(heap.Small, local, bytes)
		seg.Lock.Unlock()
		require.NotNil(t, blk)
		return &blockOffsetPair{offset: seg.OffsetOf(blk)}
	}

	pa := allocate(32)
	pb := allocate(32)
	pc := allocate(32)
	_ = pb
	_ = pc

	root := roots.NewGlobal()
	root.Set(seg.HeaderAt(pa.offset))
	reg.Add("a", root)

	CollectGarbage(h, reg)

	require.False(t, seg.HeaderAt(pa.offset).IsFree())
	require.True(t, seg.HeaderAt(pb.offset).IsFree())
	require.True(t, seg.HeaderAt(pc.offset).IsFree())
}

type blockOffsetPair struct {
	offset uintptr
}

func TestMarkWithEmptyRegistryMarksNothing(t *testing.T) {
	reg := roots.NewRegistry()
	require.Equal(t, 0, Mark(reg))
}

// TestCollectGarbageSummary checks the cycle report: one rooted 32-byte
// block consumes 48 bytes (header + payload) of the heap's total, every
// segment is swept, and the lone registered root is visited.
func TestCollectGarbageSummary(t *testing.T) {
	h := newTestHeap(t)
	a := alloc.New(h)
	reg := roots.NewRegistry()
	seg := h.Segments(heap.Small)[0]

	local, locked := a.FindSuitableSegment(heap.Small, 32)
	require.GreaterOrEqual(t, local, 0)
	if !locked {
		seg.Lock.Lock()
	}
	blk := a.AllocateFromSegment(heap.Small, local, 32)
	seg.Lock.Unlock()
	require.NotNil(t, blk)

	root := roots.NewGlobal()
	root.Set(blk)
	reg.Add("g", root)

	sum := CollectGarbage(h, reg)

	total := uint64(h.NumSegments()) * uint64(testConfig().SegmentBytes)
	require.Equal(t, 1, sum.RootsMarked)
	require.Equal(t, h.NumSegments(), sum.SegmentsSwept)
	require.Equal(t, total-48, sum.FreeBytes)
	require.Greater(t, sum.Duration, time.Duration(0))
}

func TestSweepClearsMarkedFlagOnMarkedBlocks(t *testing.T) {
	h := newTestHeap(t)
	a := alloc.New(h)
	seg := h.Segments(heap.Small)[0]

	local, locked := a.FindSuitableSegment(heap.Small, 32)
	if !locked {
		seg.Lock.Lock()
	}
	blk := a.AllocateFromSegment(heap.Small, local, 32)
	seg.Lock.Unlock()
	require.NotNil(t, blk)

	blk.Mark()
	Sweep(h)

	require.False(t, blk.IsMarked())
	require.False(t, blk.IsFree())
}

func TestSweepFreesUnmarkedAllocatedBlocks(t *testing.T) {
	h := newTestHeap(t)
	a := alloc.New(h)
	seg := h.Segments(heap.Small)[0]

	local, locked := a.FindSuitableSegment(heap.Small, 32)
	if !locked {
		seg.Lock.Lock()
	}
	blk := a.AllocateFromSegment(heap.Small, local, 32)
	seg.Lock.Unlock()
	require.NotNil(t, blk)

	Sweep(h)
	require.True(t, blk.IsFree())
}
