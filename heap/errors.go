package heap

import "errors"

var (
	// ErrInvalidConfiguration indicates a construction-time programmer
	// fault: zero segment counts, non-monotonic thresholds, or similar.
	ErrInvalidConfiguration = errors.New("heap: invalid configuration")

	// ErrOutOfRange indicates a segment index access beyond the
	// configured counts for its size class.
	ErrOutOfRange = errors.New("heap: segment index out of range")
)
