package main

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"runtime"
	"slices"
	"strings"

	"github.com/phroun/arbor"
)

// REPL holds the state of the interactive session: the nodes the user can
// name, keyed by label.
type REPL struct {
	nodes    map[string]*arbor.Node[string]
	out      io.Writer
	prompt   string
	dumpOpts []arbor.DumpOption
}

func newREPL(out io.Writer, prompt string, opts ...arbor.DumpOption) *REPL {
	return &REPL{
		nodes:    map[string]*arbor.Node[string]{},
		out:      out,
		prompt:   prompt,
		dumpOpts: opts,
	}
}

func (r *REPL) banner() {
	fmt.Fprintln(r.out, "Arbor REPL - Interactive Tree Demo")
	fmt.Fprintln(r.out, "Type 'help' for available commands, 'quit' to exit")
	fmt.Fprintln(r.out)
}

func (r *REPL) run(in io.Reader) error {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(r.out, r.prompt)
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			if err != io.EOF {
				return err
			}
			fmt.Fprintln(r.out, "\nGoodbye!")
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !r.handleCommand(input) {
			return nil
		}
	}
}

func (r *REPL) handleCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		r.printHelp()

	case "quit", "exit":
		fmt.Fprintln(r.out, "Goodbye!")
		return false

	case "new":
		r.cmdNew(args)

	case "append", "prepend", "before", "after":
		r.cmdInsert(cmd, args)

	case "detach":
		r.cmdDetach(args)

	case "copy":
		r.cmdCopy(args, false)

	case "deepcopy":
		r.cmdCopy(args, true)

	case "dispose":
		r.cmdDispose(args)

	case "forget":
		r.cmdForget(args)

	case "tree":
		r.cmdTree(args)

	case "children":
		r.cmdChildren(args)

	case "ancestors":
		r.cmdAncestors(args)

	case "descendants":
		r.cmdDescendants(args)

	case "traverse":
		r.cmdTraverse(args)

	case "root":
		r.cmdRoot(args)

	case "gc":
		r.cmdGC()

	case "stats":
		r.cmdStats()

	default:
		fmt.Fprintf(r.out, "Unknown command: %s. Type 'help' for available commands.\n", cmd)
	}

	return true
}

func (r *REPL) printHelp() {
	help := `
Available Commands:
-------------------

BUILDING:
  new <label>...            Create detached nodes with the given labels
  append <parent> <child>   Move child to the end of parent's children
  prepend <parent> <child>  Move child to the front of parent's children
  before <node> <sibling>   Move sibling right before node
  after <node> <sibling>    Move sibling right after node
  detach <node>             Remove node from its parent and siblings
  copy <node> <label>       Copy node alone under a new label
  deepcopy <node> <label>   Copy node and its subtree under a new label
  dispose <node>            Take node's subtree apart
  forget <label>            Drop the session's handle on a node

WALKING:
  tree [node]               Show node's subtree, or every root in the session
  children <node> [rev]     List children, optionally last to first
  ancestors <node>          List node and its ancestors
  descendants <node>        List node and its descendants in pre-order
  traverse <node> [rev]     List open (+) and close (-) edges
  root <node>               Show the root of node's tree

MEMORY:
  gc                        Run the garbage collector and show counters
  stats                     Show node counters

OTHER:
  help                      Show this help message
  quit, exit                Exit the REPL
`
	fmt.Fprintln(r.out, help)
}

// lookup resolves exactly want labels, reporting usage on a mismatch.
func (r *REPL) lookup(args []string, want int, usage string) ([]*arbor.Node[string], bool) {
	if len(args) < want {
		fmt.Fprintf(r.out, "Usage: %s\n", usage)
		return nil, false
	}
	nodes := make([]*arbor.Node[string], 0, want)
	for _, label := range args[:want] {
		n, ok := r.nodes[label]
		if !ok {
			fmt.Fprintf(r.out, "No node labelled %q. Use 'new %s' to create one.\n", label, label)
			return nil, false
		}
		nodes = append(nodes, n)
	}
	return nodes, true
}

func (r *REPL) fail(what string, err error) {
	fmt.Fprintf(r.out, "Error %s: %v\n", what, err)
}

func (r *REPL) cmdNew(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(r.out, "Usage: new <label>...")
		return
	}
	for _, label := range args {
		if _, ok := r.nodes[label]; ok {
			fmt.Fprintf(r.out, "Label %q is already in use\n", label)
			continue
		}
		r.nodes[label] = arbor.New(label)
		fmt.Fprintf(r.out, "Created %s\n", label)
	}
}

func (r *REPL) cmdInsert(cmd string, args []string) {
	nodes, ok := r.lookup(args, 2, cmd+" <node> <other>")
	if !ok {
		return
	}
	n, other := nodes[0], nodes[1]

	var err error
	switch cmd {
	case "append":
		err = n.Append(other)
	case "prepend":
		err = n.Prepend(other)
	case "before":
		err = n.InsertBefore(other)
	case "after":
		err = n.InsertAfter(other)
	}
	if err != nil {
		r.fail("moving "+args[1], err)
		return
	}
	fmt.Fprintln(r.out, "OK")
}

func (r *REPL) cmdDetach(args []string) {
	nodes, ok := r.lookup(args, 1, "detach <node>")
	if !ok {
		return
	}
	if err := nodes[0].Detach(); err != nil {
		r.fail("detaching "+args[0], err)
		return
	}
	fmt.Fprintln(r.out, "OK")
}

func (r *REPL) cmdCopy(args []string, deep bool) {
	usage := "copy <node> <label>"
	if deep {
		usage = "deepcopy <node> <label>"
	}
	nodes, ok := r.lookup(args, 1, usage)
	if !ok {
		return
	}
	if len(args) < 2 {
		fmt.Fprintf(r.out, "Usage: %s\n", usage)
		return
	}
	label := args[1]
	if _, ok := r.nodes[label]; ok {
		fmt.Fprintf(r.out, "Label %q is already in use\n", label)
		return
	}

	var (
		dup *arbor.Node[string]
		err error
	)
	if deep {
		dup, err = nodes[0].MakeDeepCopy()
	} else {
		dup, err = nodes[0].MakeCopy()
	}
	if err == nil {
		err = dup.Set(label)
	}
	if err != nil {
		r.fail("copying "+args[0], err)
		return
	}
	r.nodes[label] = dup
	fmt.Fprintf(r.out, "Created %s\n", label)
}

func (r *REPL) cmdDispose(args []string) {
	nodes, ok := r.lookup(args, 1, "dispose <node>")
	if !ok {
		return
	}
	before := arbor.ReadStats().Disposed
	if err := nodes[0].Dispose(); err != nil {
		r.fail("disposing "+args[0], err)
		return
	}
	fmt.Fprintf(r.out, "Disposed %d descendants\n", arbor.ReadStats().Disposed-before)
}

func (r *REPL) cmdForget(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(r.out, "Usage: forget <label>...")
		return
	}
	for _, label := range args {
		if _, ok := r.nodes[label]; !ok {
			fmt.Fprintf(r.out, "No node labelled %q\n", label)
			continue
		}
		delete(r.nodes, label)
		fmt.Fprintf(r.out, "Forgot %s\n", label)
	}
}

func (r *REPL) cmdTree(args []string) {
	if len(args) > 0 {
		nodes, ok := r.lookup(args, 1, "tree [node]")
		if !ok {
			return
		}
		r.dump(nodes[0])
		return
	}

	var roots []string
	for label, n := range r.nodes {
		if n.Parent() == nil && n.PreviousSibling() == nil {
			roots = append(roots, label)
		}
	}
	if len(roots) == 0 {
		fmt.Fprintln(r.out, "No nodes. Use 'new <label>' to create one.")
		return
	}
	slices.Sort(roots)
	for _, label := range roots {
		// Roots can carry siblings; show the whole run.
		for n := range r.nodes[label].FollowingSiblings().All() {
			r.dump(n)
		}
	}
}

func (r *REPL) dump(n *arbor.Node[string]) {
	if err := n.Dump(r.out, r.dumpOpts...); err != nil {
		r.fail("walking the tree", err)
	}
}

func (r *REPL) cmdChildren(args []string) {
	nodes, ok := r.lookup(args, 1, "children <node> [rev]")
	if !ok {
		return
	}
	it := nodes[0].Children()
	seq := it.All()
	if reversed(args) {
		seq = it.Backward()
	}
	r.printNodes(seq, it.Err)
}

func (r *REPL) cmdAncestors(args []string) {
	nodes, ok := r.lookup(args, 1, "ancestors <node>")
	if !ok {
		return
	}
	it := nodes[0].Ancestors()
	r.printNodes(it.All(), it.Err)
}

func (r *REPL) cmdDescendants(args []string) {
	nodes, ok := r.lookup(args, 1, "descendants <node>")
	if !ok {
		return
	}
	it := nodes[0].Descendants()
	r.printNodes(it.All(), it.Err)
}

func (r *REPL) cmdTraverse(args []string) {
	nodes, ok := r.lookup(args, 1, "traverse <node> [rev]")
	if !ok {
		return
	}
	walk := nodes[0].Traverse()
	seq := walk.All()
	if reversed(args) {
		seq = walk.Backward()
	}
	var edges []string
	for e := range seq {
		mark := "+"
		if e.Kind == arbor.End {
			mark = "-"
		}
		edges = append(edges, mark+e.Node.Data())
	}
	if err := walk.Err(); err != nil {
		r.fail("traversing", err)
		return
	}
	fmt.Fprintln(r.out, strings.Join(edges, " "))
}

func reversed(args []string) bool {
	return len(args) > 1 && (args[1] == "rev" || args[1] == "reverse")
}

func (r *REPL) printNodes(seq iter.Seq[*arbor.Node[string]], errf func() error) {
	var labels []string
	for n := range seq {
		labels = append(labels, n.Data())
	}
	if err := errf(); err != nil {
		r.fail("walking the tree", err)
		return
	}
	if len(labels) == 0 {
		fmt.Fprintln(r.out, "(none)")
		return
	}
	fmt.Fprintln(r.out, strings.Join(labels, " "))
}

func (r *REPL) cmdRoot(args []string) {
	nodes, ok := r.lookup(args, 1, "root <node>")
	if !ok {
		return
	}
	fmt.Fprintln(r.out, nodes[0].Root().Data())
}

func (r *REPL) cmdGC() {
	runtime.GC()
	runtime.GC()
	r.cmdStats()
}

func (r *REPL) cmdStats() {
	s := arbor.ReadStats()
	fmt.Fprintln(r.out, "Node Counters:")
	fmt.Fprintf(r.out, "  Created:   %d\n", s.Created)
	fmt.Fprintf(r.out, "  Reclaimed: %d\n", s.Reclaimed)
	fmt.Fprintf(r.out, "  Disposed:  %d\n", s.Disposed)
	fmt.Fprintf(r.out, "  Live:      %d\n", s.Live())
	fmt.Fprintf(r.out, "  Named:     %d\n", len(r.nodes))
}
