// Package manager provides the heap manager facade: the two-phase
// allocation protocol (fast retry rounds, then an at-most-one
// stop-the-world collection, then one final retry), the root-registry
// passthrough, and an explicit CollectGarbage trigger.
package manager
