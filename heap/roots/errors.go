// Package roots implements the root-set registry and its three root
// kinds: thread-local scoped stacks, global slots, and register slots.
package roots

import "errors"

var (
	// ErrDuplicateName is returned by (*TLSStack).Init when name is
	// already defined in the current stack.
	ErrDuplicateName = errors.New("roots: duplicate name")

	// ErrUnknownName is returned by Rebind or Clear on a name that was
	// never Init'd (or has since been popped).
	ErrUnknownName = errors.New("roots: unknown name")
)
