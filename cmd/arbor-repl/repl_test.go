package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session(t *testing.T, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	r := newREPL(&out, "")
	require.NoError(t, r.run(strings.NewReader(strings.Join(lines, "\n")+"\n")))
	return out.String()
}

func TestSessionBuildsAndWalks(t *testing.T) {
	out := session(t,
		"new a b c d",
		"append a b",
		"append a c",
		"append b d",
		"children a",
		"children a rev",
		"descendants a",
		"ancestors d",
		"traverse b",
		"root d",
		"tree a",
	)
	assert.Contains(t, out, "b c\n")
	assert.Contains(t, out, "c b\n")
	assert.Contains(t, out, "a b d c\n")
	assert.Contains(t, out, "d b a\n")
	assert.Contains(t, out, "+b +d -d -b\n")
	assert.Contains(t, out, "a\n    b\n        d\n    c\n")
	assert.True(t, strings.HasSuffix(out, "Goodbye!\n"))
}

func TestSessionReportsErrors(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"unknown command", []string{"frobnicate"}, "Unknown command: frobnicate"},
		{"missing node", []string{"detach x"}, `No node labelled "x"`},
		{"usage", []string{"new a", "append a"}, "Usage: append <node> <other>"},
		{"duplicate label", []string{"new a a"}, `Label "a" is already in use`},
		{"self insertion", []string{"new a", "append a a"}, "cannot be inserted relative to itself"},
		{"cycle", []string{"new a b c", "append a b", "append b c", "append c a"}, "inside its own subtree"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, session(t, tt.lines...), tt.want)
		})
	}
}

func TestSessionCopies(t *testing.T) {
	out := session(t,
		"new a b",
		"append a b",
		"copy a s",
		"deepcopy a d",
		"descendants s",
		"descendants d",
		"dispose d",
		"descendants d",
	)
	assert.Contains(t, out, "Created s\n")
	assert.Contains(t, out, "s\n")
	assert.Contains(t, out, "d b\n")
	assert.Contains(t, out, "Disposed 1 descendants\n")
	assert.True(t, strings.HasSuffix(out, "d\n\nGoodbye!\n"))
}

func TestSessionQuit(t *testing.T) {
	out := session(t, "new a", "quit", "new b")
	assert.NotContains(t, out, "Created b")
}
