package heap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFreeTableLoadStore(t *testing.T) {
	ft := NewFreeTable(4)
	require.Equal(t, 4, ft.Len())

	fi := ft.At(2)
	fi.StoreFreeBytes(1024)
	require.Equal(t, uint32(1024), fi.LoadFreeBytes())
}

func TestFreeInfoAddFreeBytesClampsAtZero(t *testing.T) {
	fi := &FreeInfo{}
	fi.StoreFreeBytes(10)
	fi.AddFreeBytes(-100)
	require.Equal(t, uint32(0), fi.LoadFreeBytes())
}

func TestFreeInfoAddFreeBytesConcurrent(t *testing.T) {
	fi := &FreeInfo{}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fi.AddFreeBytes(1)
		}()
	}
	wg.Wait()
	require.Equal(t, uint32(100), fi.LoadFreeBytes())
}
