//go:build unix

// Package memseg provides the raw, page-aligned memory region backing a
// heap segment. Each region is an anonymous mmap mapping rather than a
// make()'d slice: that gives the region stable page alignment and a
// release path independent of the Go runtime's own collector.
package memseg

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Region is a fixed-size, page-aligned, anonymous memory mapping. It is
// non-copyable in spirit: callers should hold it by pointer and never take
// Region by value after Map.
type Region struct {
	bytes []byte
}

// Map reserves a zeroed, anonymous mapping of exactly n bytes. n need not be
// a multiple of the system page size; mmap rounds up internally but the
// returned slice is truncated to exactly n bytes so callers see the
// requested length.
func Map(n int) (*Region, error) {
	if n <= 0 {
		return nil, fmt.Errorf("memseg: invalid region size %d", n)
	}
	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("memseg: mmap %d bytes: %w", n, err)
	}
	return &Region{bytes: b}, nil
}

// Bytes returns the backing slice. The returned slice aliases the mapping;
// it must not be retained past Unmap.
func (r *Region) Bytes() []byte {
	return r.bytes
}

// Len returns the mapped length in bytes.
func (r *Region) Len() int {
	return len(r.bytes)
}

// Unmap releases the mapping. Unmap is idempotent: unmapping twice is a
// no-op rather than an error.
func (r *Region) Unmap() error {
	if r.bytes == nil {
		return nil
	}
	err := unix.Munmap(r.bytes)
	r.bytes = nil
	if err != nil {
		return fmt.Errorf("memseg: munmap: %w", err)
	}
	return nil
}
