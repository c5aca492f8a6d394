package arbor

import "iter"

// Iterators walk the live links of a tree one step at a time. They take no
// snapshot: if the tree is changed during a walk, the walk follows the new
// links and simply ends when it reaches a link that no longer leads anywhere.
// None of them can be restarted; ask the node for a new one instead.
//
// The usual loop is
//
//	it := n.Children()
//	for it.Next() {
//		use(it.Node())
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
//
// Err is only ever a *BorrowError: a node on the way was held exclusively.

// chain walks a single link from a starting node, including that node.
type chain[T any] struct {
	next *Node[T]
	cur  *Node[T]
	rel  relation
	err  error
}

// Next advances to the next node and reports whether there is one.
func (c *chain[T]) Next() bool {
	if c.next == nil {
		c.cur = nil
		return false
	}
	item := c.next
	c.next, c.err = item.related(c.rel)
	if c.err != nil {
		c.next, c.cur = nil, nil
		return false
	}
	c.cur = item
	return true
}

// Node returns the node reached by the last call to Next.
func (c *chain[T]) Node() *Node[T] {
	return c.cur
}

// Err returns the error that stopped the walk, if any.
func (c *chain[T]) Err() error {
	return c.err
}

// All returns the remaining nodes as a range-over-func sequence.
func (c *chain[T]) All() iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		for c.Next() {
			if !yield(c.cur) {
				return
			}
		}
	}
}

// Ancestors iterates over a node and its ancestors, nearest first.
type Ancestors[T any] struct {
	chain[T]
}

// PrecedingSiblings iterates over a node and the siblings before it,
// nearest first.
type PrecedingSiblings[T any] struct {
	chain[T]
}

// FollowingSiblings iterates over a node and the siblings after it.
type FollowingSiblings[T any] struct {
	chain[T]
}

// Ancestors returns an iterator over n and its ancestors.
func (n *Node[T]) Ancestors() *Ancestors[T] {
	return &Ancestors[T]{chain[T]{next: n, rel: relParent}}
}

// PrecedingSiblings returns an iterator over n and the siblings before it.
func (n *Node[T]) PrecedingSiblings() *PrecedingSiblings[T] {
	return &PrecedingSiblings[T]{chain[T]{next: n, rel: relPrev}}
}

// FollowingSiblings returns an iterator over n and the siblings after it.
func (n *Node[T]) FollowingSiblings() *FollowingSiblings[T] {
	return &FollowingSiblings[T]{chain[T]{next: n, rel: relNext}}
}

// Children iterates over the children of a node from either end.
type Children[T any] struct {
	front *Node[T]
	back  *Node[T]
	cur   *Node[T]
	err   error
}

// Children returns an iterator over the children of n.
func (n *Node[T]) Children() *Children[T] {
	c := &Children[T]{}
	if c.front, c.err = n.related(relFirstChild); c.err != nil {
		return c
	}
	c.back, c.err = n.related(relLastChild)
	return c
}

// finished reports whether the two cursors have met: the back cursor's next
// sibling is the front cursor.
func (c *Children[T]) finished() bool {
	if c.err != nil || c.back == nil {
		return true
	}
	after, err := c.back.related(relNext)
	if err != nil {
		c.err = err
		return true
	}
	return after == c.front
}

func (c *Children[T]) step(cursor **Node[T], rel relation) bool {
	if c.finished() || *cursor == nil {
		c.cur = nil
		return false
	}
	item := *cursor
	*cursor, c.err = item.related(rel)
	if c.err != nil {
		c.cur = nil
		return false
	}
	c.cur = item
	return true
}

// Next advances the front cursor and reports whether a child was reached.
func (c *Children[T]) Next() bool {
	return c.step(&c.front, relNext)
}

// NextBack advances the back cursor and reports whether a child was reached.
func (c *Children[T]) NextBack() bool {
	return c.step(&c.back, relPrev)
}

// Node returns the child reached by the last call to Next or NextBack.
func (c *Children[T]) Node() *Node[T] {
	return c.cur
}

// Err returns the error that stopped the walk, if any.
func (c *Children[T]) Err() error {
	return c.err
}

// All returns the remaining children, first to last.
func (c *Children[T]) All() iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		for c.Next() {
			if !yield(c.cur) {
				return
			}
		}
	}
}

// Backward returns the remaining children, last to first.
func (c *Children[T]) Backward() iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		for c.NextBack() {
			if !yield(c.cur) {
				return
			}
		}
	}
}

// EdgeKind tells whether a traversal is entering or leaving a node.
type EdgeKind uint8

const (
	// Start is yielded before a node's descendants, like an opening tag.
	Start EdgeKind = iota
	// End is yielded after a node's descendants, like a closing tag.
	End
)

func (k EdgeKind) String() string {
	if k == End {
		return "end"
	}
	return "start"
}

// NodeEdge is one step of a traversal. Two edges are equal when they have
// the same kind and the same node.
type NodeEdge[T any] struct {
	Kind EdgeKind
	Node *Node[T]
}

// The zero NodeEdge (no node) marks the end of a walk.
func (e NodeEdge[T]) none() bool {
	return e.Node == nil
}

// successor returns the edge after e in a traversal bounded by root.
func (e NodeEdge[T]) successor(root *Node[T]) (NodeEdge[T], error) {
	if e.Kind == Start {
		first, err := e.Node.related(relFirstChild)
		if err != nil {
			return NodeEdge[T]{}, err
		}
		if first != nil {
			return NodeEdge[T]{Start, first}, nil
		}
		return NodeEdge[T]{End, e.Node}, nil
	}
	if e.Node == root {
		return NodeEdge[T]{}, nil
	}
	next, err := e.Node.related(relNext)
	if err != nil {
		return NodeEdge[T]{}, err
	}
	if next != nil {
		return NodeEdge[T]{Start, next}, nil
	}
	// No parent here means the tree changed under the walk: stop quietly.
	parent, err := e.Node.related(relParent)
	if err != nil || parent == nil {
		return NodeEdge[T]{}, err
	}
	return NodeEdge[T]{End, parent}, nil
}

// predecessor returns the edge before e in a traversal bounded by root.
func (e NodeEdge[T]) predecessor(root *Node[T]) (NodeEdge[T], error) {
	if e.Kind == End {
		last, err := e.Node.related(relLastChild)
		if err != nil {
			return NodeEdge[T]{}, err
		}
		if last != nil {
			return NodeEdge[T]{End, last}, nil
		}
		return NodeEdge[T]{Start, e.Node}, nil
	}
	if e.Node == root {
		return NodeEdge[T]{}, nil
	}
	prev, err := e.Node.related(relPrev)
	if err != nil {
		return NodeEdge[T]{}, err
	}
	if prev != nil {
		return NodeEdge[T]{End, prev}, nil
	}
	parent, err := e.Node.related(relParent)
	if err != nil || parent == nil {
		return NodeEdge[T]{}, err
	}
	return NodeEdge[T]{Start, parent}, nil
}

// Traverse iterates over the Start and End edges of a node and all its
// descendants, in tree order, from either end.
type Traverse[T any] struct {
	root  *Node[T]
	front NodeEdge[T]
	back  NodeEdge[T]
	cur   NodeEdge[T]
	err   error
}

// Traverse returns a traversal of n's subtree. It begins with Start(n) and
// ends with End(n).
func (n *Node[T]) Traverse() *Traverse[T] {
	return &Traverse[T]{
		root:  n,
		front: NodeEdge[T]{Start, n},
		back:  NodeEdge[T]{End, n},
	}
}

// finished reports whether the cursors have met: the successor of the back
// cursor is the front cursor.
func (t *Traverse[T]) finished() bool {
	if t.err != nil || t.back.none() {
		return true
	}
	after, err := t.back.successor(t.root)
	if err != nil {
		t.err = err
		return true
	}
	return after == t.front
}

// Next advances the front cursor and reports whether an edge was reached.
func (t *Traverse[T]) Next() bool {
	if t.finished() || t.front.none() {
		t.cur = NodeEdge[T]{}
		return false
	}
	item := t.front
	t.front, t.err = item.successor(t.root)
	if t.err != nil {
		t.cur = NodeEdge[T]{}
		return false
	}
	t.cur = item
	return true
}

// NextBack advances the back cursor and reports whether an edge was reached.
func (t *Traverse[T]) NextBack() bool {
	if t.finished() || t.back.none() {
		t.cur = NodeEdge[T]{}
		return false
	}
	item := t.back
	t.back, t.err = item.predecessor(t.root)
	if t.err != nil {
		t.cur = NodeEdge[T]{}
		return false
	}
	t.cur = item
	return true
}

// Edge returns the edge reached by the last call to Next or NextBack.
func (t *Traverse[T]) Edge() NodeEdge[T] {
	return t.cur
}

// Err returns the error that stopped the walk, if any.
func (t *Traverse[T]) Err() error {
	return t.err
}

// All returns the remaining edges in tree order.
func (t *Traverse[T]) All() iter.Seq[NodeEdge[T]] {
	return func(yield func(NodeEdge[T]) bool) {
		for t.Next() {
			if !yield(t.cur) {
				return
			}
		}
	}
}

// Backward returns the remaining edges in reverse tree order.
func (t *Traverse[T]) Backward() iter.Seq[NodeEdge[T]] {
	return func(yield func(NodeEdge[T]) bool) {
		for t.NextBack() {
			if !yield(t.cur) {
				return
			}
		}
	}
}

// Descendants iterates over a node and its descendants in tree order.
type Descendants[T any] struct {
	walk Traverse[T]
}

// Descendants returns an iterator over n and its descendants, pre-order.
func (n *Node[T]) Descendants() *Descendants[T] {
	return &Descendants[T]{walk: *n.Traverse()}
}

// Next advances to the next descendant and reports whether there is one.
func (d *Descendants[T]) Next() bool {
	for d.walk.Next() {
		if d.walk.cur.Kind == Start {
			return true
		}
	}
	return false
}

// Node returns the node reached by the last call to Next.
func (d *Descendants[T]) Node() *Node[T] {
	return d.walk.cur.Node
}

// Err returns the error that stopped the walk, if any.
func (d *Descendants[T]) Err() error {
	return d.walk.err
}

// All returns the remaining descendants as a range-over-func sequence.
func (d *Descendants[T]) All() iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		for d.Next() {
			if !yield(d.Node()) {
				return
			}
		}
	}
}
