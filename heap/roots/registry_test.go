package roots

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRoot struct {
	marked bool
}

func (f *fakeRoot) Mark() { f.marked = true }

func TestRegistryAddGetRemove(t *testing.T) {
	r := NewRegistry()
	root := &fakeRoot{}

	r.Add("a", root)
	require.Same(t, root, r.Get("a"))
	require.Equal(t, 1, r.Len())

	r.Remove("a")
	require.Nil(t, r.Get("a"))
	require.Equal(t, 0, r.Len())
}

func TestRegistryAddReplacesExisting(t *testing.T) {
	r := NewRegistry()
	first := &fakeRoot{}
	second := &fakeRoot{}

	r.Add("a", first)
	r.Add("a", second)
	require.Same(t, second, r.Get("a"))
	require.Equal(t, 1, r.Len())
}

func TestRegistryClear(t *testing.T) {
	r := NewRegistry()
	r.Add("a", &fakeRoot{})
	r.Add("b", &fakeRoot{})
	r.Clear()
	require.Equal(t, 0, r.Len())
}

func TestRegistrySnapshotCoversEveryRoot(t *testing.T) {
	r := NewRegistry()
	const n = 50
	for i := 0; i < n; i++ {
		r.Add(fmt.Sprintf("root-%d", i), &fakeRoot{})
	}

	buckets := r.Snapshot()
	total := 0
	for _, b := range buckets {
		total += len(b)
	}
	require.Equal(t, n, total)
}

func TestRegistryConcurrentAddGetNoRace(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k-%d", i)
			r.Add(key, &fakeRoot{})
			r.Get(key)
			r.Remove(key)
		}(i)
	}
	wg.Wait()
}
