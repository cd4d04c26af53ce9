package manager

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/segheap/gcheap/heap"
	"github.com/segheap/gcheap/heap/alloc"
	"github.com/segheap/gcheap/heap/gc"
	"github.com/segheap/gcheap/heap/roots"
	"github.com/segheap/gcheap/internal/blockhdr"
)

// debugGC is a compile-time toggle for verbose collection logging.
const debugGC = false

// gcLogEnabled is the runtime counterpart: off unless a human opted in
// for this run.
var gcLogEnabled = os.Getenv("GCHEAP_LOG_GC") != ""

// Manager is the heap manager: allocation protocol, per-size-class
// segment selection, at-most-one concurrent GC coordination, and the
// root-registry facade. Every Manager owns its own gc-in-progress flag
// and rotation cursors; none of this state is process-wide.
type Manager struct {
	heap  *heap.Heap
	alloc *alloc.Allocator
	Roots *roots.Registry

	gcInProgress atomic.Bool
	gcMu         sync.Mutex
	gcCond       *sync.Cond

	stats  stats
	logger *slog.Logger
}

// New constructs a Manager over a freshly-built Heap using cfg.
func New(cfg heap.Config) (*Manager, error) {
	h, err := heap.New(cfg)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		heap:  h,
		alloc: alloc.New(h),
		Roots: roots.NewRegistry(),
	}
	m.gcCond = sync.NewCond(&m.gcMu)
	m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	if gcLogEnabled || debugGC {
		m.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return m, nil
}

// Close releases the underlying heap's segment memory.
func (m *Manager) Close() {
	m.heap.Close()
}

// Heap returns the underlying Heap, for callers that need direct
// structural access (tests, diagnostics).
func (m *Manager) Heap() *heap.Heap {
	return m.heap
}

const headerAlignment = uint32(16)

func roundUp16(n uint32) uint32 {
	return (n + headerAlignment - 1) &^ (headerAlignment - 1)
}

// Allocate implements the two-phase allocation protocol.
// A request of 0 bytes returns nil immediately. Otherwise the size is
// rounded up to a multiple of 16, then up to Config.FastRetryRounds fast
// probing rounds are attempted; on exhaustion the caller either becomes
// the stop-the-world leader (CAS gc_in_progress false->true, run
// CollectGarbage, then store false and wake every waiter) or waits for
// the current leader to finish, before one final probe+allocate attempt
// whose result (possibly nil) is returned.
func (m *Manager) Allocate(bytes uint32) *blockhdr.Header {
	if bytes == 0 {
		return nil
	}
	bytes = roundUp16(bytes)

	cfg := m.heap.Config()
	class, ok := cfg.ClassFor(int(bytes))
	if !ok {
		return nil
	}
	atomic.AddUint64(&m.stats.allocCalls, 1)

	if h := m.tryRounds(class, bytes, cfg.FastRetryRounds); h != nil {
		atomic.AddUint64(&m.stats.allocFastPath, 1)
		return h
	}

	m.runOrAwaitGC()

	if h := m.tryRounds(class, bytes, 1); h != nil {
		atomic.AddUint64(&m.stats.allocSlowPath, 1)
		return h
	}
	return nil
}

func (m *Manager) tryRounds(class heap.SizeClass, bytes uint32, rounds int) *blockhdr.Header {
	for i := 0; i < rounds; i++ {
		if h := m.tryOnce(class, bytes); h != nil {
			return h
		}
	}
	return nil
}

func (m *Manager) tryOnce(class heap.SizeClass, bytes uint32) *blockhdr.Header {
	local, locked := m.alloc.FindSuitableSegment(class, bytes)
	if local < 0 {
		return nil
	}
	seg := m.heap.Segments(class)[local]
	if !locked {
		seg.Lock.Lock()
	}
	h := m.alloc.AllocateFromSegment(class, local, bytes)
	seg.Lock.Unlock()
	return h
}

// runOrAwaitGC implements the CAS + wait coordination:
// at most one caller runs a collection; every other caller blocks until
// it finishes and observes the effect before retrying.
func (m *Manager) runOrAwaitGC() {
	if m.gcInProgress.CompareAndSwap(false, true) {
		sum := gc.CollectGarbage(m.heap, m.Roots)
		atomic.AddUint64(&m.stats.gcCycles, 1)
		atomic.AddUint64(&m.stats.bytesCoalesced, sum.FreeBytes)
		if gcLogEnabled || debugGC {
			m.logger.Info("gc cycle complete",
				"roots_marked", sum.RootsMarked,
				"segments_swept", sum.SegmentsSwept,
				"free_bytes", sum.FreeBytes,
				"stw", sum.Duration)
		}

		m.gcMu.Lock()
		m.gcInProgress.Store(false)
		m.gcCond.Broadcast()
		m.gcMu.Unlock()
		return
	}

	m.gcMu.Lock()
	for m.gcInProgress.Load() {
		m.gcCond.Wait()
	}
	m.gcMu.Unlock()
}

// CollectGarbage is the explicit external trigger: it runs a cycle, or,
// when another cycle is already in progress, waits for that one to finish
// instead of running its own. It uses the same at-most-one coordination as
// an allocation-triggered cycle (a concurrent allocator's exhaustion
// escalation can never race a concurrent explicit trigger into two
// simultaneous cycles).
func (m *Manager) CollectGarbage() {
	m.runOrAwaitGC()
}

// AddRoot registers (or replaces) a named root.
func (m *Manager) AddRoot(key string, root roots.Root) {
	m.Roots.Add(key, root)
}

// GetRoot returns the root registered under key, or nil.
func (m *Manager) GetRoot(key string) roots.Root {
	return m.Roots.Get(key)
}

// RemoveRoot discards the root registered under key, if any.
func (m *Manager) RemoveRoot(key string) {
	m.Roots.Remove(key)
}

// ClearRoots discards every registered root.
func (m *Manager) ClearRoots() {
	m.Roots.Clear()
}
