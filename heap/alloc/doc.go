// Package alloc implements the first-fit, segment-rotating allocation
// policy: candidate segment selection with a per-class rotating cursor
// and try-lock probing, and in-place carve/split of a block from a locked
// segment's free-list. Exhaustion is reported as a nil block, never an
// error; escalation to a collection cycle is the heap manager's decision.
package alloc
