package arbor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleTree builds
//
//	a
//	├── b
//	│   ├── d
//	│   └── e
//	└── c
//	    └── f
func sampleTree() map[string]*Node[string] {
	nodes := map[string]*Node[string]{}
	for _, s := range []string{"a", "b", "c", "d", "e", "f"} {
		nodes[s] = New(s)
	}
	edges := [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"b", "e"}, {"c", "f"}}
	for _, e := range edges {
		if err := nodes[e[0]].Append(nodes[e[1]]); err != nil {
			panic(err)
		}
	}
	return nodes
}

// edgeString renders an edge as "+x" for Start and "-x" for End.
func edgeString(e NodeEdge[string]) string {
	if e.Kind == Start {
		return "+" + e.Node.Data()
	}
	return "-" + e.Node.Data()
}

func TestSingleLinkIterators(t *testing.T) {
	nodes := sampleTree()
	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{"ancestors of leaf", payloads(nodes["e"].Ancestors().All()), []string{"e", "b", "a"}},
		{"ancestors of root", payloads(nodes["a"].Ancestors().All()), []string{"a"}},
		{"preceding of last", payloads(nodes["e"].PrecedingSiblings().All()), []string{"e", "d"}},
		{"preceding of first", payloads(nodes["d"].PrecedingSiblings().All()), []string{"d"}},
		{"following of first", payloads(nodes["b"].FollowingSiblings().All()), []string{"b", "c"}},
		{"following of last", payloads(nodes["c"].FollowingSiblings().All()), []string{"c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestChildrenFromBothEnds(t *testing.T) {
	tests := []struct {
		name     string
		children []string
		steps    string // f = Next, b = NextBack
		want     []string
	}{
		{"empty", nil, "fb", nil},
		{"singleton forward", []string{"x"}, "ff", []string{"x"}},
		{"singleton backward", []string{"x"}, "bb", []string{"x"}},
		{"singleton mixed", []string{"x"}, "fb", []string{"x"}},
		{"meet in middle", []string{"1", "2", "3"}, "fbff", []string{"1", "3", "2"}},
		{"meet even", []string{"1", "2", "3", "4"}, "bfbfb", []string{"4", "1", "3", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent, _ := build("p", tt.children...)
			it := parent.Children()
			var got []string
			for _, s := range tt.steps {
				ok := false
				if s == 'f' {
					ok = it.Next()
				} else {
					ok = it.NextBack()
				}
				if ok {
					got = append(got, it.Node().Data())
				}
			}
			require.NoError(t, it.Err())
			assert.Equal(t, tt.want, got)
			assert.False(t, it.Next(), "exhausted from the front")
			assert.False(t, it.NextBack(), "exhausted from the back")
			assert.Nil(t, it.Node())
		})
	}
}

func TestTraverse(t *testing.T) {
	nodes := sampleTree()
	forward := []string{"+a", "+b", "+d", "-d", "+e", "-e", "-b", "+c", "+f", "-f", "-c", "-a"}

	var got []string
	for e := range nodes["a"].Traverse().All() {
		got = append(got, edgeString(e))
	}
	if diff := cmp.Diff(forward, got); diff != "" {
		t.Errorf("forward (-want +got):\n%s", diff)
	}

	got = got[:0]
	for e := range nodes["a"].Traverse().Backward() {
		got = append(got, edgeString(e))
	}
	var backward []string
	for i := len(forward) - 1; i >= 0; i-- {
		backward = append(backward, forward[i])
	}
	if diff := cmp.Diff(backward, got); diff != "" {
		t.Errorf("backward (-want +got):\n%s", diff)
	}
}

func TestTraverseMeetsInTheMiddle(t *testing.T) {
	nodes := sampleTree()
	walk := nodes["b"].Traverse()
	var front, back []string
	for {
		if !walk.Next() {
			break
		}
		front = append(front, edgeString(walk.Edge()))
		if !walk.NextBack() {
			break
		}
		back = append(back, edgeString(walk.Edge()))
	}
	require.NoError(t, walk.Err())
	assert.Equal(t, []string{"+b", "+d", "-d"}, front)
	assert.Equal(t, []string{"-b", "-e", "+e"}, back)
}

func TestTraverseSubtreeStaysInside(t *testing.T) {
	nodes := sampleTree()
	var got []string
	for e := range nodes["c"].Traverse().All() {
		got = append(got, edgeString(e))
	}
	assert.Equal(t, []string{"+c", "+f", "-f", "-c"}, got)
}

func TestNodeEdgeEquality(t *testing.T) {
	x, y := New(1), New(1)
	assert.True(t, NodeEdge[int]{Start, x} == NodeEdge[int]{Start, x})
	assert.False(t, NodeEdge[int]{Start, x} == NodeEdge[int]{End, x})
	assert.False(t, NodeEdge[int]{Start, x} == NodeEdge[int]{Start, y}, "equal payloads are not the same node")
}

func TestDescendants(t *testing.T) {
	nodes := sampleTree()
	assert.Equal(t, []string{"a", "b", "d", "e", "c", "f"}, payloads(nodes["a"].Descendants().All()))
	assert.Equal(t, []string{"b", "d", "e"}, payloads(nodes["b"].Descendants().All()))
	assert.Equal(t, []string{"f"}, payloads(nodes["f"].Descendants().All()))
}

func TestIteratorsAreNotRestartable(t *testing.T) {
	nodes := sampleTree()
	it := nodes["a"].Descendants()
	assert.Len(t, payloads(it.All()), 6)
	assert.Empty(t, payloads(it.All()))
	assert.False(t, it.Next())
}

func TestAllStopsEarly(t *testing.T) {
	nodes := sampleTree()
	it := nodes["a"].Descendants()
	for n := range it.All() {
		if n.Data() == "d" {
			break
		}
	}
	// The walk resumes where the loop left it.
	assert.Equal(t, []string{"e", "c", "f"}, payloads(it.All()))
}

func TestMutationDuringTraversalEndsEarly(t *testing.T) {
	nodes := sampleTree()
	walk := nodes["a"].Traverse()
	var got []string
	for walk.Next() {
		got = append(got, edgeString(walk.Edge()))
		if walk.Edge() == (NodeEdge[string]{Start, nodes["d"]}) {
			require.NoError(t, nodes["b"].Detach())
		}
	}
	require.NoError(t, walk.Err(), "a dangling step is not an error")
	// After b leaves a, the walk climbs out of b and finds no parent.
	assert.Equal(t, []string{"+a", "+b", "+d", "-d", "+e", "-e", "-b"}, got)
}

func TestMutationDuringChildrenWalk(t *testing.T) {
	parent, cs := build("p", "1", "2", "3", "4")
	it := parent.Children()
	var got []string
	for it.Next() {
		got = append(got, it.Node().Data())
		if it.Node() == cs[0] {
			require.NoError(t, cs[2].Detach())
		}
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"1", "2", "4"}, got)
}

func TestAncestorsAfterDetachMidWalk(t *testing.T) {
	nodes := sampleTree()
	it := nodes["d"].Ancestors()
	require.True(t, it.Next())
	require.NoError(t, nodes["b"].Detach())
	assert.Equal(t, []string{"b"}, payloads(it.All()))
	require.NoError(t, it.Err())
}
