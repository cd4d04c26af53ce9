package roots

import (
	"fmt"
	"sync"

	"github.com/segheap/gcheap/internal/blockhdr"
)

type tlsEntry struct {
	name  string
	scope uint64
	ref   *blockhdr.Header
}

// TLSStack is the thread-local-stack root kind: a stack of lexical-scope
// frames, each holding zero or more named entries. Scope numbering starts
// at 1; scope 0 is the sentinel reached only by destruction (Close).
type TLSStack struct {
	mu sync.Mutex

	scope   uint64
	entries []tlsEntry
	index   map[string]int // name -> position in entries
}

// NewTLSStack returns a stack with the initial state: scope 1, no
// entries.
func NewTLSStack() *TLSStack {
	return &TLSStack{
		scope: 1,
		index: make(map[string]int),
	}
}

// PushScope opens a new nested scope.
func (s *TLSStack) PushScope() {
	s.mu.Lock()
	s.scope++
	s.mu.Unlock()
}

// PopScope closes the current scope, removing every entry defined within
// it. If scope is already at the floor (1) and final is false, PopScope
// is a no-op. Close calls PopScope(final=true) exactly once so final
// teardown can drop scope-1 entries too.
func (s *TLSStack) PopScope(final bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scope <= 1 && !final {
		return
	}
	for len(s.entries) > 0 && s.entries[len(s.entries)-1].scope == s.scope {
		last := len(s.entries) - 1
		delete(s.index, s.entries[last].name)
		s.entries = s.entries[:last]
	}
	s.scope--
}

// Init defines a new name in the current scope, bound to ref (which may be
// nil). Returns ErrDuplicateName if name is already defined anywhere in
// the stack.
func (s *TLSStack) Init(name string, ref *blockhdr.Header) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[name]; ok {
		return fmt.Errorf("roots: init %q: %w", name, ErrDuplicateName)
	}
	s.index[name] = len(s.entries)
	s.entries = append(s.entries, tlsEntry{name: name, scope: s.scope, ref: ref})
	return nil
}

// Rebind overwrites the ref field of an already-defined name in place.
// Returns ErrUnknownName if name was never Init'd (or has since been
// popped).
func (s *TLSStack) Rebind(name string, ref *blockhdr.Header) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[name]
	if !ok {
		return fmt.Errorf("roots: rebind %q: %w", name, ErrUnknownName)
	}
	s.entries[i].ref = ref
	return nil
}

// Clear is Rebind with ref set to nil.
func (s *TLSStack) Clear(name string) error {
	return s.Rebind(name, nil)
}

// Mark sets the MARKED flag on every entry's non-nil ref, under the
// stack's lock.
func (s *TLSStack) Mark() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ref != nil {
			e.ref.Mark()
		}
	}
}

// Close releases the stack's entries, equivalent to one final PopScope.
func (s *TLSStack) Close() {
	s.PopScope(true)
}

// Scope returns the current scope depth, for tests asserting scope
// discipline.
func (s *TLSStack) Scope() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// Len returns the number of live entries, for tests.
func (s *TLSStack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
