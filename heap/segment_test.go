package heap

import (
	"testing"

	"github.com/segheap/gcheap/internal/blockhdr"
	"github.com/stretchr/testify/require"
)

const testSegmentSize = 4096

func newTestSegment(t *testing.T) *Segment {
	t.Helper()
	s, err := NewSegment(testSegmentSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewSegmentInitialFreeHeader(t *testing.T) {
	s := newTestSegment(t)

	h := s.HeaderAt(0)
	require.True(t, h.IsFree())
	require.False(t, h.IsMarked())
	require.Equal(t, uint32(testSegmentSize)-uint32(blockhdr.HeaderSize), h.Size)
	require.Equal(t, uintptr(0), h.Next)
}

func TestSegmentWalkVisitsSingleInitialBlock(t *testing.T) {
	s := newTestSegment(t)

	var visits int
	s.Walk(func(h *blockhdr.Header, offset uintptr) bool {
		visits++
		require.Equal(t, uintptr(0), offset)
		return true
	})
	require.Equal(t, 1, visits)
}

func TestSegmentWalkStopsOnFalse(t *testing.T) {
	s := newTestSegment(t)

	// Manually carve a second block so Walk has more than one stop to make.
	first := s.HeaderAt(0)
	first.Size = 64
	second := s.HeaderAt(blockhdr.HeaderSize + 64)
	second.Size = uint32(testSegmentSize) - uint32(blockhdr.HeaderSize)*2 - 64
	second.SetFree(true)

	var visits int
	s.Walk(func(h *blockhdr.Header, offset uintptr) bool {
		visits++
		return false
	})
	require.Equal(t, 1, visits)
}

func TestSegmentOffsetOfInvertsHeaderAt(t *testing.T) {
	s := newTestSegment(t)
	h := s.HeaderAt(128)
	require.Equal(t, uintptr(128), s.OffsetOf(h))
}

func TestSegmentWalkTerminatesOnZeroSize(t *testing.T) {
	s := newTestSegment(t)
	first := s.HeaderAt(0)
	first.Size = 0

	var visits int
	s.Walk(func(h *blockhdr.Header, offset uintptr) bool {
		visits++
		return true
	})
	require.Equal(t, 0, visits)
}
