package blockhdr

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestHeaderSizeIs16Bytes(t *testing.T) {
	require.Equal(t, uintptr(16), HeaderSize)
}

func TestAtAndFromDataRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	base := unsafe.Pointer(&buf[0])

	h := At(base, 16)
	h.Size = 32
	h.SetFree(true)

	data := h.DataPtr()
	got := FromData(data)
	require.Same(t, h, got)
	require.True(t, got.IsFree())
	require.Equal(t, uint32(32), got.Size)
}

func TestAddrAndFromAddrRoundTrip(t *testing.T) {
	buf := make([]byte, 32)
	h := At(unsafe.Pointer(&buf[0]), 0)
	h.Size = 8

	got := FromAddr(h.Addr())
	require.Same(t, h, got)
}

func TestFlagDisjointness(t *testing.T) {
	buf := make([]byte, 16)
	h := At(unsafe.Pointer(&buf[0]), 0)

	require.False(t, h.IsFree())
	require.False(t, h.IsMarked())

	h.SetFree(true)
	require.True(t, h.IsFree())
	require.False(t, h.IsMarked())

	h.Mark()
	require.True(t, h.IsFree())
	require.True(t, h.IsMarked())

	h.SetFree(false)
	require.False(t, h.IsFree())
	require.True(t, h.IsMarked())

	h.SetMarked(false)
	require.Equal(t, uint32(0), h.Flags())
}

func TestSetFreeIdempotent(t *testing.T) {
	buf := make([]byte, 16)
	h := At(unsafe.Pointer(&buf[0]), 0)

	h.SetFree(true)
	h.SetFree(true)
	require.True(t, h.IsFree())

	h.SetFree(false)
	h.SetFree(false)
	require.False(t, h.IsFree())
}

func TestConcurrentMarkIsRaceFree(t *testing.T) {
	buf := make([]byte, 16)
	h := At(unsafe.Pointer(&buf[0]), 0)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Mark()
		}()
	}
	wg.Wait()
	require.True(t, h.IsMarked())
}
