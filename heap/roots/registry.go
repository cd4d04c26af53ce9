package roots

import (
	"hash/fnv"
	"io"
	"sync"
)

// numShards partitions the registry's keyspace for bucket-level dispatch
// to the marker. Must be a power of two for the modulo-by-mask in
// shardFor. A single mu still guards every shard: sharding is purely an
// organizational device so the collector can fan out per bucket, not a
// finer-grained locking scheme.
const numShards = 16

// Registry maps string keys to owned Root instances. Inserting a key that
// already exists replaces (and discards) the old root; removing a key
// discards its root. Iteration order is unspecified.
type Registry struct {
	mu      sync.Mutex
	buckets [numShards]map[string]Root
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.buckets {
		r.buckets[i] = make(map[string]Root)
	}
	return r
}

func shardFor(key string) int {
	h := fnv.New32a()
	_, _ = io.WriteString(h, key)
	return int(h.Sum32() & (numShards - 1))
}

// Add inserts root under key, replacing any existing entry there.
func (r *Registry) Add(key string, root Root) {
	r.mu.Lock()
	r.buckets[shardFor(key)][key] = root
	r.mu.Unlock()
}

// Get returns the root registered under key, or nil if none.
func (r *Registry) Get(key string) Root {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buckets[shardFor(key)][key]
}

// Remove discards the root registered under key, if any.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	delete(r.buckets[shardFor(key)], key)
	r.mu.Unlock()
}

// Clear discards every registered root.
func (r *Registry) Clear() {
	r.mu.Lock()
	for i := range r.buckets {
		r.buckets[i] = make(map[string]Root)
	}
	r.mu.Unlock()
}

// Len returns the total number of registered roots.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.buckets {
		n += len(b)
	}
	return n
}

// Snapshot copies out each non-empty bucket's roots under a single
// acquisition of the registry lock, then releases it. The collector fans
// out one mark task per returned bucket rather than one per root entry,
// which bounds goroutine fan-out under large registries; each Root's own
// lock still serializes its Mark() against concurrent mutation, so
// releasing the registry lock before dispatch is safe.
func (r *Registry) Snapshot() [][]Root {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]Root, 0, numShards)
	for _, b := range r.buckets {
		if len(b) == 0 {
			continue
		}
		bucket := make([]Root, 0, len(b))
		for _, root := range b {
			bucket = append(bucket, root)
		}
		out = append(out, bucket)
	}
	return out
}
