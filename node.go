package arbor

import (
	"fmt"
	"weak"
)

// Node is a tree node holding a value of type T. A *Node is the handle to
// the node: copying the pointer shares the node, it does not copy the data,
// and two handles are the same node exactly when the pointers are equal.
//
// Ownership is asymmetric so that the strong links never form a cycle:
// a node owns its first child and its next sibling, and refers to its
// parent, previous sibling and last child only weakly. Holding the root
// keeps the whole tree alive. Holding only a node deep inside a tree keeps
// its subtree and following siblings alive, but not its ancestors.
//
// A Node must only be used from one goroutine at a time.
type Node[T any] struct {
	parent    weak.Pointer[Node[T]]
	prev      weak.Pointer[Node[T]]
	lastChild weak.Pointer[Node[T]]

	firstChild *Node[T]
	next       *Node[T]

	state borrowState

	// data is boxed so reclamation can still reach it after the node is gone.
	data *T
}

// WeakNode is a reference to a node that does not keep it alive.
type WeakNode[T any] struct {
	p weak.Pointer[Node[T]]
}

// New creates an isolated node holding data. The node is its own root.
func New[T any](data T) *Node[T] {
	n := &Node[T]{data: &data}
	track(n)
	return n
}

// Downgrade returns a weak reference to n.
func (n *Node[T]) Downgrade() WeakNode[T] {
	return WeakNode[T]{p: weak.Make(n)}
}

// Upgrade returns the referenced node, or nil if it has been reclaimed.
func (w WeakNode[T]) Upgrade() *Node[T] {
	return w.p.Value()
}

// relation names one of the five stored links.
type relation int

const (
	relParent relation = iota
	relFirstChild
	relLastChild
	relPrev
	relNext
)

var relationNames = [...]string{
	relParent:     "parent",
	relFirstChild: "first child",
	relLastChild:  "last child",
	relPrev:       "previous sibling",
	relNext:       "next sibling",
}

func (r relation) String() string {
	return relationNames[r]
}

// related resolves a link. A weak link to a reclaimed node resolves to nil.
func (n *Node[T]) related(r relation) (*Node[T], error) {
	if err := n.state.readable(r.String()); err != nil {
		return nil, err
	}
	switch r {
	case relParent:
		return n.parent.Value(), nil
	case relFirstChild:
		return n.firstChild, nil
	case relLastChild:
		return n.lastChild.Value(), nil
	case relPrev:
		return n.prev.Value(), nil
	case relNext:
		return n.next, nil
	}
	return nil, nil
}

// Root returns the topmost ancestor of n, or n itself if it has no parent.
//
// It panics with a *BorrowError if n or one of its ancestors is held
// exclusively.
func (n *Node[T]) Root() *Node[T] {
	root := n
	for {
		p := must(root.related(relParent))
		if p == nil {
			return root
		}
		root = p
	}
}

// Parent returns the parent node, or nil if n is a root.
//
// It panics with a *BorrowError if n is held exclusively. The same holds
// for the other link accessors.
func (n *Node[T]) Parent() *Node[T] {
	return must(n.related(relParent))
}

// FirstChild returns the first child, or nil if n has no children.
func (n *Node[T]) FirstChild() *Node[T] {
	return must(n.related(relFirstChild))
}

// LastChild returns the last child, or nil if n has no children.
func (n *Node[T]) LastChild() *Node[T] {
	return must(n.related(relLastChild))
}

// PreviousSibling returns the previous sibling, or nil if n is a first child.
func (n *Node[T]) PreviousSibling() *Node[T] {
	return must(n.related(relPrev))
}

// NextSibling returns the next sibling, or nil if n is a last child.
func (n *Node[T]) NextSibling() *Node[T] {
	return must(n.related(relNext))
}

// HasChildren reports whether n has at least one child.
func (n *Node[T]) HasChildren() bool {
	return n.FirstChild() != nil
}

// Format formats the payload, so a node prints the way its data does.
// %p still prints the node's address.
func (n *Node[T]) Format(f fmt.State, verb rune) {
	if err := n.state.share("format"); err != nil {
		fmt.Fprintf(f, "%%!%c(%v)", verb, err)
		return
	}
	defer n.state.unshare()
	fmt.Fprintf(f, fmt.FormatString(f, verb), *n.data)
}
