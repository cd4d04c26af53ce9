// Package gc implements the collector: a parallel marker that visits every
// root, a parallel sweeper that walks every segment's block chain once,
// and a parallel coalescer that rebuilds each segment's free-list after
// the sweep. Stop-the-world orchestration (acquiring every segment lock
// for the cycle's duration) lives in stw.go; collector.go and
// coalescer.go are pure transformations over an already-locked heap.
//
// No recursive marking occurs: the simulated heap has no reference edges
// between blocks, only root-to-block references, so a single pass over
// the root set reaches every live block.
package gc
