// Package arbor provides a DOM-like ordered tree whose nodes are shared by
// any number of references and reclaimed automatically once unreachable.
package arbor

import (
	"errors"
	"fmt"
)

// Structure errors
var (
	// ErrSelfInsertion indicates that a node was inserted relative to itself.
	ErrSelfInsertion = errors.New("node cannot be inserted relative to itself")

	// ErrCycle indicates that a node was inserted under or beside one of its
	// own descendants.
	ErrCycle = errors.New("node cannot be inserted inside its own subtree")
)

// Aliasing errors
var (
	// ErrBorrowConflict indicates that an access was requested on a node that
	// is already held under an incompatible access.
	ErrBorrowConflict = errors.New("borrow conflict")
)

// BorrowError reports which operation ran into which borrow state.
// It matches ErrBorrowConflict with errors.Is.
type BorrowError struct {
	Op    string // operation that requested access
	State string // state the node was in ("shared(2)", "exclusive")
}

func (e *BorrowError) Error() string {
	return fmt.Sprintf("%s: %s: node is %s", e.Op, ErrBorrowConflict, e.State)
}

// Is reports whether target is ErrBorrowConflict.
func (e *BorrowError) Is(target error) bool {
	return target == ErrBorrowConflict
}
