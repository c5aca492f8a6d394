package arbor

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

type dumpConfig struct {
	indent string
	colors []*color.Color
}

// DumpOption configures Dump.
type DumpOption func(*dumpConfig)

// DumpIndent sets the string repeated once per depth level. The default is
// four spaces.
func DumpIndent(s string) DumpOption {
	return func(c *dumpConfig) { c.indent = s }
}

// DumpColors colors each line by depth, whether or not the output is a
// terminal. Callers decide when that is appropriate.
func DumpColors() DumpOption {
	return func(c *dumpConfig) { c.colors = depthColors() }
}

func depthColors() []*color.Color {
	res := []*color.Color{
		color.New(color.FgCyan, color.Bold),
		color.New(color.FgGreen),
		color.New(color.FgYellow),
		color.New(color.FgMagenta),
		color.New(color.FgBlue),
	}
	for _, c := range res {
		c.EnableColor()
	}
	return res
}

// Dump writes an outline of n's subtree to w: one node per line, formatted
// with %v and indented by depth.
func (n *Node[T]) Dump(w io.Writer, opts ...DumpOption) error {
	cfg := &dumpConfig{indent: "    "}
	for _, opt := range opts {
		opt(cfg)
	}

	depth := 0
	walk := n.Traverse()
	for walk.Next() {
		e := walk.Edge()
		if e.Kind == End {
			depth--
			continue
		}
		line := fmt.Sprintf("%v", e.Node)
		if len(cfg.colors) > 0 {
			line = cfg.colors[depth%len(cfg.colors)].Sprint(line)
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat(cfg.indent, depth), line); err != nil {
			return err
		}
		depth++
	}
	return walk.Err()
}
