package arbor

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tracked counts its own reclamation.
type tracked struct {
	label int
	drops *atomic.Int64
}

func (t tracked) Destroy() {
	t.drops.Add(1)
}

func TestLifecycleFixture(t *testing.T) {
	var drops atomic.Int64
	created := 0
	newNode := func() *Node[tracked] {
		created++
		return New(tracked{label: created, drops: &drops})
	}

	func() {
		a := newNode() // 1
		require.NoError(t, a.Append(newNode()))  // 2
		require.NoError(t, a.Append(newNode()))  // 3
		require.NoError(t, a.Prepend(newNode())) // 4
		b := newNode()                           // 5
		require.NoError(t, b.Append(a))
		require.NoError(t, a.InsertBefore(newNode())) // 6
		require.NoError(t, a.InsertBefore(newNode())) // 7
		require.NoError(t, a.InsertAfter(newNode()))  // 8
		require.NoError(t, a.InsertAfter(newNode()))  // 9
		c := newNode()                                // 10
		require.NoError(t, b.Append(c))
		checkLinks(t, b)

		runtime.GC()
		assert.Zero(t, drops.Load())

		require.NoError(t, c.PreviousSibling().Detach())
		collect(t, func() bool { return drops.Load() >= 1 })

		var got []int
		for n := range b.Descendants().All() {
			got = append(got, n.Data().label)
		}
		if diff := cmp.Diff([]int{5, 6, 7, 1, 4, 2, 3, 9, 10}, got); diff != "" {
			t.Errorf("descendants (-want +got):\n%s", diff)
		}
		runtime.GC()
		assert.EqualValues(t, 1, drops.Load(), "only the detached node is reclaimed")
		runtime.KeepAlive(b)
	}()

	collect(t, func() bool { return drops.Load() == 10 })
}

func TestDroppedSubtreeIsReclaimed(t *testing.T) {
	var drops atomic.Int64
	keep := New(tracked{label: 0, drops: &drops})
	func() {
		sub := New(tracked{label: 1, drops: &drops})
		for i := range 5 {
			require.NoError(t, sub.Append(New(tracked{label: i + 2, drops: &drops})))
		}
		require.NoError(t, keep.Append(sub))
	}()

	runtime.GC()
	assert.Zero(t, drops.Load(), "attached nodes are owned by the tree")

	require.NoError(t, keep.FirstChild().Detach())
	collect(t, func() bool { return drops.Load() == 6 })
	runtime.KeepAlive(keep)
}

func TestHandleToLeafDoesNotKeepAncestors(t *testing.T) {
	var drops atomic.Int64
	var leaf *Node[tracked]
	func() {
		root := New(tracked{label: 1, drops: &drops})
		mid := New(tracked{label: 2, drops: &drops})
		leaf = New(tracked{label: 3, drops: &drops})
		require.NoError(t, root.Append(mid))
		require.NoError(t, mid.Append(leaf))
	}()

	collect(t, func() bool { return drops.Load() == 2 })
	assert.Nil(t, leaf.Parent())
	assert.Same(t, leaf, leaf.Root())
}

func TestDispose(t *testing.T) {
	nodes := sampleTree()
	before := ReadStats().Disposed

	require.NoError(t, nodes["b"].Dispose())

	assert.EqualValues(t, 2, ReadStats().Disposed-before)
	checkLinks(t, nodes["a"])
	assert.Equal(t, []string{"c"}, childLabels(nodes["a"]))
	for _, s := range []string{"b", "d", "e"} {
		n := nodes[s]
		assert.Nil(t, n.Parent(), s)
		assert.Nil(t, n.PreviousSibling(), s)
		assert.Nil(t, n.NextSibling(), s)
		assert.False(t, n.HasChildren(), s)
	}
}

func TestDisposeReclaims(t *testing.T) {
	var drops atomic.Int64
	root := New(tracked{label: 0, drops: &drops})
	var survivor *Node[tracked]
	func() {
		for i := range 3 {
			child := New(tracked{label: i + 1, drops: &drops})
			require.NoError(t, root.Append(child))
			for j := range 3 {
				require.NoError(t, child.Append(New(tracked{label: 10*(i+1) + j, drops: &drops})))
			}
		}
		survivor = root.FirstChild().LastChild()
	}()

	require.NoError(t, root.Dispose())

	// Everything but root and the externally held grandchild goes away.
	collect(t, func() bool { return drops.Load() == 11 })
	assert.Equal(t, 12, survivor.Data().label)
	assert.Nil(t, survivor.Parent())
	assert.False(t, root.HasChildren())
}

func TestDeepChain(t *testing.T) {
	if testing.Short() {
		t.Skip("builds a million-node chain")
	}
	const depth = 1_000_000
	var drops atomic.Int64

	before := ReadStats().Disposed
	func() {
		root := New(tracked{drops: &drops})
		parent := root
		for i := 1; i < depth; i++ {
			n := New(tracked{label: i, drops: &drops})
			if err := parent.Append(n); err != nil {
				t.Fatal(err)
			}
			parent = n
		}
		require.NoError(t, root.Dispose())
	}()
	assert.EqualValues(t, depth-1, ReadStats().Disposed-before)

	require.Eventually(t, func() bool {
		runtime.GC()
		return drops.Load() == depth
	}, time.Minute, 50*time.Millisecond)
}

func TestDeepChainDroppedWithoutDispose(t *testing.T) {
	if testing.Short() {
		t.Skip("builds a million-node chain")
	}
	const depth = 1_000_000
	var drops atomic.Int64

	func() {
		parent := New(tracked{drops: &drops})
		for i := 1; i < depth; i++ {
			n := New(tracked{label: i, drops: &drops})
			if err := parent.Append(n); err != nil {
				t.Fatal(err)
			}
			parent = n
		}
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return drops.Load() == depth
	}, time.Minute, 50*time.Millisecond)
}

func TestStats(t *testing.T) {
	before := ReadStats()
	n := New(1)
	after := ReadStats()
	assert.EqualValues(t, 1, after.Created-before.Created)
	assert.GreaterOrEqual(t, after.Live(), int64(1))
	runtime.KeepAlive(n)
}
