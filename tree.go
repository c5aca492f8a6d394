package arbor

import (
	"fmt"
	"weak"

	"github.com/pkg/errors"

	"github.com/phroun/arbor/internal/debug"
)

// neighbours are the nodes whose links change when a node leaves its place.
type neighbours[T any] struct {
	parent *Node[T]
	prev   *Node[T]
	next   *Node[T]
}

func (n *Node[T]) neighbours() neighbours[T] {
	return neighbours[T]{
		parent: n.parent.Value(),
		prev:   n.prev.Value(),
		next:   n.next,
	}
}

// lockPlace acquires n and every node unlink(n) would rewrite.
func (g *guardSet[T]) lockPlace(n *Node[T]) error {
	if err := g.lock(n); err != nil {
		return err
	}
	nb := n.neighbours()
	return g.lock(nb.parent, nb.prev, nb.next)
}

// unlink removes n from its parent and siblings, leaving its children in
// place. The caller holds exclusive access to n and its neighbours.
func (n *Node[T]) unlink() {
	nb := n.neighbours()
	n.parent = weak.Pointer[Node[T]]{}
	n.prev = weak.Pointer[Node[T]]{}
	n.next = nil

	if nb.next != nil {
		nb.next.prev = weak.Make(nb.prev)
	} else if nb.parent != nil {
		nb.parent.lastChild = weak.Make(nb.prev)
	}

	if nb.prev != nil {
		nb.prev.next = nb.next
	} else if nb.parent != nil {
		nb.parent.firstChild = nb.next
	}
}

// descendsFrom reports whether a is a proper ancestor of n. It fails if a
// node on the way up is held exclusively.
func (n *Node[T]) descendsFrom(a *Node[T]) (bool, error) {
	p, err := n.related(relParent)
	for ; err == nil && p != nil; p, err = p.related(relParent) {
		if p == a {
			return true, nil
		}
	}
	return false, err
}

// checkInsert validates inserting other relative to n. A node without
// children cannot be an ancestor of anything, which keeps building deep
// chains linear.
func (n *Node[T]) checkInsert(op string, other *Node[T]) error {
	if other == n {
		return errors.Wrap(ErrSelfInsertion, op)
	}
	first, err := other.related(relFirstChild)
	if err != nil {
		return errors.Wrap(err, op)
	}
	if first == nil {
		return nil
	}
	cycle, err := n.descendsFrom(other)
	if err != nil {
		return errors.Wrap(err, op)
	}
	if cycle {
		return errors.Wrap(ErrCycle, op)
	}
	return nil
}

// Detach removes n from its parent and siblings. Its children are not
// affected and stay attached beneath it.
//
// If n was only kept alive by its previous sibling or its parent, it
// becomes unreachable and is reclaimed.
func (n *Node[T]) Detach() error {
	g := guardSet[T]{op: "detach"}
	defer g.release()
	if err := g.lockPlace(n); err != nil {
		return err
	}
	n.unlink()
	logEdit("detach", n, n)
	return nil
}

// Append adds child after the existing children of n, first detaching it
// from wherever it was.
func (n *Node[T]) Append(child *Node[T]) error {
	if err := n.checkInsert("append", child); err != nil {
		return err
	}
	g := guardSet[T]{op: "append"}
	defer g.release()
	if err := g.lock(n); err != nil {
		return err
	}
	if err := g.lockPlace(child); err != nil {
		return err
	}
	if err := g.lock(n.lastChild.Value()); err != nil {
		return err
	}

	child.unlink()
	n.link(child)
	logEdit("append", n, child)
	return nil
}

// link makes a detached child the last child of n.
func (n *Node[T]) link(child *Node[T]) {
	last := n.lastChild.Value()
	child.parent = weak.Make(n)
	n.lastChild = weak.Make(child)
	if last != nil {
		child.prev = weak.Make(last)
		last.next = child
	} else {
		n.firstChild = child
	}
}

// Prepend adds child before the existing children of n, first detaching it
// from wherever it was.
func (n *Node[T]) Prepend(child *Node[T]) error {
	if err := n.checkInsert("prepend", child); err != nil {
		return err
	}
	g := guardSet[T]{op: "prepend"}
	defer g.release()
	if err := g.lock(n); err != nil {
		return err
	}
	if err := g.lockPlace(child); err != nil {
		return err
	}
	if err := g.lock(n.firstChild); err != nil {
		return err
	}

	child.unlink()
	first := n.firstChild
	child.parent = weak.Make(n)
	if first != nil {
		first.prev = weak.Make(child)
		child.next = first
	} else {
		n.lastChild = weak.Make(child)
	}
	n.firstChild = child
	logEdit("prepend", n, child)
	return nil
}

// InsertAfter places sibling right after n, under the same parent, first
// detaching it from wherever it was.
func (n *Node[T]) InsertAfter(sibling *Node[T]) error {
	if err := n.checkInsert("insert after", sibling); err != nil {
		return err
	}
	g := guardSet[T]{op: "insert after"}
	defer g.release()
	if err := g.lock(n); err != nil {
		return err
	}
	if err := g.lockPlace(sibling); err != nil {
		return err
	}
	if err := g.lock(n.parent.Value(), n.next); err != nil {
		return err
	}

	sibling.unlink()
	next := n.next
	sibling.parent = n.parent
	sibling.prev = weak.Make(n)
	if next != nil {
		next.prev = weak.Make(sibling)
		sibling.next = next
	} else if parent := n.parent.Value(); parent != nil {
		parent.lastChild = weak.Make(sibling)
	}
	n.next = sibling
	logEdit("insert after", n, sibling)
	return nil
}

// InsertBefore places sibling right before n, under the same parent, first
// detaching it from wherever it was.
func (n *Node[T]) InsertBefore(sibling *Node[T]) error {
	if err := n.checkInsert("insert before", sibling); err != nil {
		return err
	}
	g := guardSet[T]{op: "insert before"}
	defer g.release()
	if err := g.lock(n); err != nil {
		return err
	}
	if err := g.lockPlace(sibling); err != nil {
		return err
	}
	if err := g.lock(n.parent.Value(), n.prev.Value()); err != nil {
		return err
	}

	sibling.unlink()
	prev := n.prev.Value()
	sibling.parent = n.parent
	sibling.next = n
	n.prev = weak.Make(sibling)
	if prev != nil {
		sibling.prev = weak.Make(prev)
		prev.next = sibling
	} else if parent := n.parent.Value(); parent != nil {
		parent.firstChild = sibling
	}
	logEdit("insert before", n, sibling)
	return nil
}

func logEdit[T any](op string, target, moved *Node[T]) {
	if !debug.Mutate() {
		return
	}
	debug.Log(op, debug.Fields{
		"target": fmt.Sprintf("%p", target),
		"node":   fmt.Sprintf("%p", moved),
	})
}
