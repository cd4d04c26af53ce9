package manager

import "sync/atomic"

// stats holds the Manager's running counters. Every field is touched only
// via the sync/atomic package, so a Stats snapshot is safe to take while
// allocation and collection continue concurrently on other goroutines.
type stats struct {
	allocCalls     uint64
	allocFastPath  uint64
	allocSlowPath  uint64
	gcCycles       uint64
	bytesCoalesced uint64
}

// Stats is a point-in-time snapshot of a Manager's counters: how many
// allocations were requested, how many succeeded without a collection,
// how many succeeded only after one, and how many collections ran.
type Stats struct {
	AllocCalls    uint64
	AllocFastPath uint64
	AllocSlowPath uint64
	GCCycles      uint64
	// BytesCoalesced accumulates, across every collection cycle, the free
	// bytes threaded into rebuilt free-lists by that cycle's coalesce
	// pass.
	BytesCoalesced uint64
}

// Stats returns a snapshot of m's current counters.
func (m *Manager) Stats() Stats {
	return Stats{
		AllocCalls:     atomic.LoadUint64(&m.stats.allocCalls),
		AllocFastPath:  atomic.LoadUint64(&m.stats.allocFastPath),
		AllocSlowPath:  atomic.LoadUint64(&m.stats.allocSlowPath),
		GCCycles:       atomic.LoadUint64(&m.stats.gcCycles),
		BytesCoalesced: atomic.LoadUint64(&m.stats.bytesCoalesced),
	}
}
