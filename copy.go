package arbor

// Cloner is implemented by payloads that need more than a plain Go copy
// when a node is duplicated.
type Cloner[T any] interface {
	Clone() T
}

func clonePayload[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	return v
}

// MakeCopy returns a new isolated node holding a duplicate of n's payload.
// The copy has no parent, siblings or children.
func (n *Node[T]) MakeCopy() (*Node[T], error) {
	var dup T
	err := n.View(func(v T) error {
		dup = clonePayload(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return New(dup), nil
}

// MakeDeepCopy returns an independent copy of n and all of its descendants,
// in the same order. The copy shares no nodes with the original.
func (n *Node[T]) MakeDeepCopy() (*Node[T], error) {
	root, err := n.MakeCopy()
	if err != nil {
		return nil, err
	}

	type pending struct {
		src, dst *Node[T]
	}
	work := []pending{{src: n, dst: root}}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]

		children := p.src.Children()
		for children.Next() {
			child := children.Node()
			dup, err := child.MakeCopy()
			if err != nil {
				return nil, err
			}
			// dst and dup are new and unshared: no checks or guards needed.
			p.dst.link(dup)
			if child.firstChild != nil {
				work = append(work, pending{src: child, dst: dup})
			}
		}
		if err := children.Err(); err != nil {
			return nil, err
		}
	}
	return root, nil
}
