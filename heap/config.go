package heap

import "fmt"

// SizeClass identifies which of the heap's three segment arrays a request
// or a segment belongs to.
type SizeClass int

const (
	Small SizeClass = iota
	Medium
	Large
	numSizeClasses
)

func (c SizeClass) String() string {
	switch c {
	case Small:
		return "small"
	case Medium:
		return "medium"
	case Large:
		return "large"
	default:
		return "invalid"
	}
}

// Config fixes the heap's layout at construction time: segment counts and
// thresholds are constructor arguments, and the heap never resizes after
// New.
type Config struct {
	// Name identifies this configuration when benchmarking multiple
	// presets.
	Name string

	// SegmentBytes is the fixed byte length of every segment, regardless
	// of size class.
	SegmentBytes int

	// SmallCount, MediumCount, LargeCount are the segment counts per size
	// class. N = SmallCount + MediumCount + LargeCount is the heap's total
	// segment count.
	SmallCount, MediumCount, LargeCount int

	// SmallThreshold, MediumThreshold, LargeThreshold are strictly ordered
	// payload-byte thresholds (bytes of payload, not including the
	// header) determining which size class a request maps to.
	SmallThreshold, MediumThreshold, LargeThreshold int

	// FastRetryRounds is K in the allocation protocol: the number of fast
	// probing rounds attempted before escalating to a stop-the-world
	// collection.
	FastRetryRounds int
}

// DefaultConfig is the balanced preset: 16 MiB segments, 4/2/2 segments
// per class, 256 B / 2 KiB / 256 KiB thresholds.
var DefaultConfig = Config{
	Name:            "Default",
	SegmentBytes:    16 << 20, // 16 MiB
	SmallCount:      4,
	MediumCount:     2,
	LargeCount:      2,
	SmallThreshold:  256,
	MediumThreshold: 2048,
	LargeThreshold:  262144,
	FastRetryRounds: 3,
}

// Validate checks the invariants construction depends on, returning
// ErrInvalidConfiguration-wrapped errors for programmer faults: zero
// segment counts and non-monotonic thresholds are detected here rather
// than at first use.
func (c Config) Validate() error {
	if c.SegmentBytes <= 0 {
		return fmt.Errorf("heap: %w: SegmentBytes must be positive", ErrInvalidConfiguration)
	}
	if c.SmallCount <= 0 || c.MediumCount <= 0 || c.LargeCount <= 0 {
		return fmt.Errorf("heap: %w: every size class needs at least one segment", ErrInvalidConfiguration)
	}
	if !(c.SmallThreshold < c.MediumThreshold && c.MediumThreshold < c.LargeThreshold) {
		return fmt.Errorf("heap: %w: thresholds must be strictly increasing", ErrInvalidConfiguration)
	}
	if c.FastRetryRounds <= 0 {
		return fmt.Errorf("heap: %w: FastRetryRounds must be positive", ErrInvalidConfiguration)
	}
	return nil
}

// ClassFor maps a payload byte count to the size class whose threshold is
// the smallest one greater than or equal to it. Returns ok=false when even
// LargeThreshold cannot satisfy the request.
func (c Config) ClassFor(payloadBytes int) (SizeClass, bool) {
	switch {
	case payloadBytes <= c.SmallThreshold:
		return Small, true
	case payloadBytes <= c.MediumThreshold:
		return Medium, true
	case payloadBytes <= c.LargeThreshold:
		return Large, true
	default:
		return 0, false
	}
}

// CountFor returns the configured segment count for a size class.
func (c Config) CountFor(class SizeClass) int {
	switch class {
	case Small:
		return c.SmallCount
	case Medium:
		return c.MediumCount
	case Large:
		return c.LargeCount
	default:
		return 0
	}
}

// TotalSegments returns N, the sum of all three size classes' segment
// counts.
func (c Config) TotalSegments() int {
	return c.SmallCount + c.MediumCount + c.LargeCount
}
