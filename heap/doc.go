// Package heap implements the size-classed, segmented memory pool that
// backs a simulated managed-language heap.
//
// # Overview
//
// A Heap owns a fixed set of Segments, partitioned into three size classes
// (small, medium, large). Each Segment is a contiguous, page-aligned
// memory region carved into a linear chain of blocks, each prefixed by a
// 16-byte blockhdr.Header. Segments never move and never resize once
// constructed; only their internal block chain and free-list mutate.
//
// # Size classes
//
// A request of b bytes maps to the smallest class whose threshold is
// greater than or equal to b, per Config's three strictly ordered
// thresholds. This package only exposes the structural pieces (Segment,
// Heap, FreeTable, size-class selection); allocation policy lives in
// heap/alloc, root tracking in heap/roots, and collection in heap/gc.
//
// # Ownership and address stability
//
// Heap is non-movable: callers must hold it by pointer. This is relied
// upon by heap/alloc, which locks segments through their Segment.Lock
// fields, and by FreeTable; both index into Heap's segment arrays by
// position and expect those positions to remain valid for the Heap's
// entire lifetime.
package heap
