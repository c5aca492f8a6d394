package arbor

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/phroun/arbor/internal/debug"
)

// Destroyer is implemented by payloads that want to know when their node has
// been reclaimed. Destroy runs once, on the runtime's cleanup goroutine, some
// time after the node became unreachable. The payload must not refer back to
// its own node, or the node is never reclaimed.
type Destroyer interface {
	Destroy()
}

// Stats are process-wide node counters.
type Stats struct {
	Created   int64 // nodes made by New
	Reclaimed int64 // nodes freed by the garbage collector
	Disposed  int64 // descendants detached by Dispose
}

// Live returns the number of nodes created and not yet reclaimed.
func (s Stats) Live() int64 {
	return s.Created - s.Reclaimed
}

var stats struct {
	created   atomic.Int64
	reclaimed atomic.Int64
	disposed  atomic.Int64
}

// ReadStats returns a snapshot of the node counters.
func ReadStats() Stats {
	return Stats{
		Created:   stats.created.Load(),
		Reclaimed: stats.reclaimed.Load(),
		Disposed:  stats.disposed.Load(),
	}
}

// track registers a new node for reclamation accounting.
func track[T any](n *Node[T]) {
	stats.created.Add(1)
	runtime.AddCleanup(n, reclaim[T], n.data)
}

// reclaim runs after a node has been freed. It only sees the payload box.
func reclaim[T any](data *T) {
	stats.reclaimed.Add(1)
	if d, ok := any(data).(Destroyer); ok {
		d.Destroy()
		return
	}
	if d, ok := any(*data).(Destroyer); ok {
		d.Destroy()
	}
}

// Dispose detaches n from its tree and takes its subtree apart: every
// descendant is collected into a worklist first and then detached from its
// parent and siblings, so no node owns another afterwards. The work is linear
// in the size of the subtree and never recursive, however deep it is.
//
// Nodes that are still referenced from outside survive as isolated roots;
// the rest are reclaimed. n itself is left without parent or children.
// Nothing is changed if any node involved is currently borrowed.
func (n *Node[T]) Dispose() error {
	g := guardSet[T]{op: "dispose"}
	defer g.release()
	if err := g.lockPlace(n); err != nil {
		return err
	}

	var work []*Node[T]
	if first := n.firstChild; first != nil {
		siblings := first.FollowingSiblings()
		for siblings.Next() {
			sub := siblings.Node().Descendants()
			for sub.Next() {
				work = append(work, sub.Node())
			}
			if err := sub.Err(); err != nil {
				return err
			}
		}
		if err := siblings.Err(); err != nil {
			return err
		}
	}
	if err := g.lockDistinct(work); err != nil {
		return err
	}

	n.unlink()
	for _, d := range work {
		d.unlink()
	}
	stats.disposed.Add(int64(len(work)))
	if debug.Dispose() {
		debug.Log("dispose", debug.Fields{
			"node":  fmt.Sprintf("%p", n),
			"count": len(work),
		})
	}
	return nil
}
