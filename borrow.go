package arbor

import (
	"fmt"
	"slices"

	"github.com/phroun/arbor/internal/debug"
)

// borrowState tracks the open accesses on one node.
// 0 is free, a positive value counts shared holders, -1 is exclusive.
type borrowState int32

const exclusive borrowState = -1

func (s borrowState) String() string {
	switch {
	case s == 0:
		return "free"
	case s == exclusive:
		return "exclusive"
	default:
		return fmt.Sprintf("shared(%d)", int32(s))
	}
}

// readable returns an error if the node cannot be read right now.
func (s borrowState) readable(op string) error {
	if s == exclusive {
		return conflict(op, s)
	}
	return nil
}

func (s *borrowState) share(op string) error {
	if *s == exclusive {
		return conflict(op, *s)
	}
	*s++
	return nil
}

func (s *borrowState) unshare() {
	*s--
}

func (s *borrowState) lock(op string) error {
	if *s != 0 {
		return conflict(op, *s)
	}
	*s = exclusive
	return nil
}

func (s *borrowState) unlock() {
	*s = 0
}

func conflict(op string, s borrowState) error {
	err := &BorrowError{Op: op, State: s.String()}
	if debug.Borrow() {
		debug.Log("borrow conflict", debug.Fields{"op": op, "state": err.State})
	}
	return err
}

// must panics with err if it is set. Accessors use it: a borrow conflict
// there is a programming error.
func must[V any](v V, err error) V {
	if err != nil {
		panic(err)
	}
	return v
}

// guardSet holds exclusive access on every node touched by one edit.
// Nothing is rewired until all of them are held.
type guardSet[T any] struct {
	op   string
	held []*Node[T]
}

// lock acquires the given nodes, skipping nils and nodes already held.
// On failure everything acquired so far is released.
func (g *guardSet[T]) lock(nodes ...*Node[T]) error {
	for _, n := range nodes {
		if n == nil || slices.Contains(g.held, n) {
			continue
		}
		if err := n.state.lock(g.op); err != nil {
			g.release()
			return err
		}
		g.held = append(g.held, n)
	}
	return nil
}

// lockDistinct is lock for nodes known to be distinct from each other and
// from everything already held.
func (g *guardSet[T]) lockDistinct(nodes []*Node[T]) error {
	for _, n := range nodes {
		if err := n.state.lock(g.op); err != nil {
			g.release()
			return err
		}
		g.held = append(g.held, n)
	}
	return nil
}

func (g *guardSet[T]) release() {
	for _, n := range g.held {
		n.state.unlock()
	}
	g.held = g.held[:0]
}

// View calls fn with the node's payload under shared access.
// Other shared accesses may be open at the same time; an exclusive one may not.
func (n *Node[T]) View(fn func(v T) error) error {
	if err := n.state.share("view"); err != nil {
		return err
	}
	defer n.state.unshare()
	return fn(*n.data)
}

// Update calls fn with a pointer to the node's payload under exclusive
// access. While fn runs, any other access to this node fails, including
// reading its links.
func (n *Node[T]) Update(fn func(v *T) error) error {
	if err := n.state.lock("update"); err != nil {
		return err
	}
	defer n.state.unlock()
	return fn(n.data)
}

// Data returns a copy of the payload.
// It panics with a *BorrowError if the node is held exclusively.
func (n *Node[T]) Data() T {
	if err := n.state.share("data"); err != nil {
		panic(err)
	}
	defer n.state.unshare()
	return *n.data
}

// Set replaces the payload.
func (n *Node[T]) Set(v T) error {
	return n.Update(func(p *T) error {
		*p = v
		return nil
	})
}
