package heap

import "fmt"

// Heap is a purely structural owner of three fixed-length segment arrays,
// one per size class. It never reallocates those arrays after
// construction; address stability of every *Segment is relied upon by
// FreeTable and by heap/alloc's per-segment lock usage. Heap is
// non-movable — hold it by pointer.
type Heap struct {
	config Config

	small  []*Segment
	medium []*Segment
	large  []*Segment

	// Free is index-aligned with the concatenated ordering small, medium,
	// large (see SegmentAt / GlobalIndex).
	Free *FreeTable
}

// New constructs every configured segment up front. Segments are never
// resized or freed again until Close.
func New(cfg Config) (*Heap, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &Heap{config: cfg}
	var err error
	if h.small, err = makeSegments(cfg.SmallCount, cfg.SegmentBytes); err != nil {
		return nil, err
	}
	if h.medium, err = makeSegments(cfg.MediumCount, cfg.SegmentBytes); err != nil {
		h.closeAll(h.small)
		return nil, err
	}
	if h.large, err = makeSegments(cfg.LargeCount, cfg.SegmentBytes); err != nil {
		h.closeAll(h.small)
		h.closeAll(h.medium)
		return nil, err
	}

	h.Free = NewFreeTable(cfg.TotalSegments())
	for i := 0; i < h.Free.Len(); i++ {
		seg, _ := h.SegmentAt(i)
		fi := h.Free.At(i)
		fi.StoreFreeBytes(uint32(seg.Size()))
		fi.Head = seg.HeaderAt(0)
	}
	return h, nil
}

func makeSegments(n, size int) ([]*Segment, error) {
	segs := make([]*Segment, n)
	for i := range segs {
		s, err := NewSegment(size)
		if err != nil {
			for _, done := range segs[:i] {
				done.Close()
			}
			return nil, fmt.Errorf("heap: segment %d: %w", i, err)
		}
		segs[i] = s
	}
	return segs, nil
}

func (h *Heap) closeAll(segs []*Segment) {
	for _, s := range segs {
		s.Close()
	}
}

// Config returns the configuration this heap was constructed with.
func (h *Heap) Config() Config {
	return h.config
}

// Segments returns the segment array for a size class.
func (h *Heap) Segments(class SizeClass) []*Segment {
	switch class {
	case Small:
		return h.small
	case Medium:
		return h.medium
	case Large:
		return h.large
	default:
		return nil
	}
}

// classBase returns the global index of class's first segment within the
// concatenated small/medium/large ordering used by FreeTable.
func (h *Heap) classBase(class SizeClass) int {
	switch class {
	case Small:
		return 0
	case Medium:
		return len(h.small)
	case Large:
		return len(h.small) + len(h.medium)
	default:
		return -1
	}
}

// GlobalIndex maps a (class, local index) pair to a global segment index
// in 0..N, the indexing scheme FreeTable and the collector's per-segment
// fan-out use. Returns ErrOutOfRange if local is outside the class's
// configured count.
func (h *Heap) GlobalIndex(class SizeClass, local int) (int, error) {
	segs := h.Segments(class)
	if local < 0 || local >= len(segs) {
		return 0, fmt.Errorf("heap: class %s index %d: %w", class, local, ErrOutOfRange)
	}
	return h.classBase(class) + local, nil
}

// SegmentAt returns the segment at global index idx (0..N, concatenated
// small/medium/large ordering).
func (h *Heap) SegmentAt(idx int) (*Segment, error) {
	switch {
	case idx < len(h.small):
		return h.small[idx], nil
	case idx < len(h.small)+len(h.medium):
		return h.medium[idx-len(h.small)], nil
	case idx < h.config.TotalSegments():
		return h.large[idx-len(h.small)-len(h.medium)], nil
	default:
		return nil, fmt.Errorf("heap: global index %d: %w", idx, ErrOutOfRange)
	}
}

// NumSegments returns N, the total segment count across all size classes.
func (h *Heap) NumSegments() int {
	return h.config.TotalSegments()
}

// Close releases every segment's backing memory. Not safe to call
// concurrently with any in-flight allocation or collection.
func (h *Heap) Close() {
	h.closeAll(h.small)
	h.closeAll(h.medium)
	h.closeAll(h.large)
}
