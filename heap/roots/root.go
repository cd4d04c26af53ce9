package roots

import (
	"sync"

	"github.com/segheap/gcheap/internal/blockhdr"
)

// Root is the capability every root kind exposes to the marker: visiting
// a root means marking every block it currently references, under
// whatever lock that root kind uses for its own mutation. No allocation
// happens on this path.
type Root interface {
	Mark()
}

// Slot is the shared structure behind both the Global and Register root
// kinds: a single optional header reference, replaced under a per-slot
// lock. The two kinds are structurally identical and differ only in the
// name under which the workload registers them.
type Slot struct {
	mu  sync.Mutex
	ref *blockhdr.Header
}

// NewGlobal and NewRegister both construct a Slot; they are kept as
// distinct constructors (rather than exporting Slot directly) so callers
// register roots under the kind the workload actually means, matching the
// sum-type-by-construction-site idiom used throughout.
func NewGlobal() *Slot   { return &Slot{} }
func NewRegister() *Slot { return &Slot{} }

// Set atomically replaces the slot's referenced header. A nil h clears the
// slot.
func (s *Slot) Set(h *blockhdr.Header) {
	s.mu.Lock()
	s.ref = h
	s.mu.Unlock()
}

// Get returns the slot's currently-referenced header, or nil.
func (s *Slot) Get() *blockhdr.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ref
}

// Mark sets the MARKED flag on the slot's referenced header, if any. The
// slot lock is held across the flag write so a concurrent Set cannot slip
// an unmarked replacement in mid-visit.
func (s *Slot) Mark() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ref != nil {
		s.ref.Mark()
	}
}
