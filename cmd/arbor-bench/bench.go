package main

import (
	"fmt"
	"io"
	"runtime"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/olekukonko/tablewriter"

	"github.com/phroun/arbor"
	"github.com/phroun/arbor/internal/debug"
)

var benchNames = []string{"chain", "wide", "copy", "traverse", "relocate", "dispose", "reclaim"}

type BenchResult struct {
	Name     string
	Duration time.Duration
	Ops      int
	Extra    string
	Failed   bool
}

func (r BenchResult) String() string {
	if r.Ops > 0 {
		opsPerSec := float64(r.Ops) / r.Duration.Seconds()
		if r.Extra != "" {
			return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec) %s", r.Name, r.Duration.Round(time.Millisecond), r.Ops, opsPerSec, r.Extra)
		}
		return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec)", r.Name, r.Duration.Round(time.Millisecond), r.Ops, opsPerSec)
	}
	if r.Extra != "" {
		return fmt.Sprintf("%-40s %12v  %s", r.Name, r.Duration.Round(time.Millisecond), r.Extra)
	}
	return fmt.Sprintf("%-40s %12v", r.Name, r.Duration.Round(time.Millisecond))
}

func (r BenchResult) row() []string {
	ops, rate := "", ""
	if r.Ops > 0 {
		ops = strconv.Itoa(r.Ops)
		rate = fmt.Sprintf("%.2f", float64(r.Ops)/r.Duration.Seconds())
	}
	return []string{r.Name, r.Duration.Round(time.Millisecond).String(), ops, rate, r.Extra}
}

// summarize writes the results as a table and returns one error per failed
// benchmark, or nil.
func summarize(w io.Writer, results []BenchResult) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"benchmark", "time", "ops", "ops/sec", "notes"})
	var errs *multierror.Error
	for _, r := range results {
		table.Append(r.row())
		if r.Failed {
			errs = multierror.Append(errs, fmt.Errorf("%s: %s", r.Name, r.Extra))
		}
	}
	table.Render()
	return errs.ErrorOrNil()
}

func failed(name string, start time.Time, err error) BenchResult {
	return BenchResult{Name: name, Duration: time.Since(start), Extra: fmt.Sprintf("ERROR: %v", err), Failed: true}
}

// bench carries the trees shared between benchmarks. Later benchmarks build
// what they need, untimed, when an earlier one was skipped.
type bench struct {
	s       Scenario
	out     io.Writer
	verbose bool

	chain *arbor.Node[int]
	wide  *arbor.Node[int]
	dup   *arbor.Node[int]

	results []BenchResult
}

func (b *bench) run() []BenchResult {
	steps := []struct {
		name  string
		label string
		fn    func() BenchResult
	}{
		{"chain", fmt.Sprintf("Build chain (depth %d)", b.s.Depth), b.benchChain},
		{"wide", fmt.Sprintf("Build wide tree (%d children)", b.s.Width), b.benchWide},
		{"copy", "Deep copy chain", b.benchCopy},
		{"traverse", "Traverse chain and wide tree", b.benchTraverse},
		{"relocate", fmt.Sprintf("Relocate children (%d moves)", b.s.Iterations), b.benchRelocate},
		{"dispose", "Dispose copied chain", b.benchDispose},
		{"reclaim", "Drop trees and collect", b.benchReclaim},
	}
	for _, step := range steps {
		if b.s.skips(step.name) {
			b.logf("skipping %s", step.name)
			continue
		}
		fmt.Fprintf(b.out, "  %-40s ", step.label+"...")
		result := step.fn()
		fmt.Fprintf(b.out, "%v\n", result.Duration.Round(time.Millisecond))
		b.logf("%v", result)
		b.results = append(b.results, result)
	}
	return b.results
}

func (b *bench) logf(msg string, args ...any) {
	if b.verbose {
		debug.Logf(msg, args...)
	}
}

func buildChain(depth int) (*arbor.Node[int], error) {
	root := arbor.New(0)
	parent := root
	for i := 1; i < depth; i++ {
		n := arbor.New(i)
		if err := parent.Append(n); err != nil {
			return nil, err
		}
		parent = n
	}
	return root, nil
}

func buildWide(width int) (*arbor.Node[int], error) {
	root := arbor.New(-1)
	for i := range width {
		if err := root.Append(arbor.New(i)); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (b *bench) needChain() error {
	if b.chain != nil {
		return nil
	}
	b.logf("building chain of %d untimed", b.s.Depth)
	root, err := buildChain(b.s.Depth)
	b.chain = root
	return err
}

func (b *bench) needWide() error {
	if b.wide != nil {
		return nil
	}
	b.logf("building wide tree of %d untimed", b.s.Width)
	root, err := buildWide(b.s.Width)
	b.wide = root
	return err
}

func (b *bench) benchChain() BenchResult {
	name := "Build chain"
	start := time.Now()
	root, err := buildChain(b.s.Depth)
	if err != nil {
		return failed(name, start, err)
	}
	duration := time.Since(start)
	b.chain = root

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return BenchResult{
		Name:     name,
		Duration: duration,
		Ops:      b.s.Depth,
		Extra:    fmt.Sprintf("%d MB heap", m.HeapAlloc/(1024*1024)),
	}
}

func (b *bench) benchWide() BenchResult {
	name := "Build wide tree"
	start := time.Now()
	root, err := buildWide(b.s.Width)
	if err != nil {
		return failed(name, start, err)
	}
	b.wide = root
	return BenchResult{Name: name, Duration: time.Since(start), Ops: b.s.Width}
}

func (b *bench) benchCopy() BenchResult {
	name := "Deep copy chain"
	if err := b.needChain(); err != nil {
		return failed(name, time.Now(), err)
	}
	start := time.Now()
	dup, err := b.chain.MakeDeepCopy()
	if err != nil {
		return failed(name, start, err)
	}
	b.dup = dup
	return BenchResult{Name: name, Duration: time.Since(start), Ops: b.s.Depth}
}

func (b *bench) benchTraverse() BenchResult {
	name := "Traverse chain and wide tree"
	if err := b.needChain(); err != nil {
		return failed(name, time.Now(), err)
	}
	if err := b.needWide(); err != nil {
		return failed(name, time.Now(), err)
	}

	start := time.Now()
	edges := 0
	for _, root := range []*arbor.Node[int]{b.chain, b.wide} {
		walk := root.Traverse()
		for walk.Next() {
			edges++
		}
		if err := walk.Err(); err != nil {
			return failed(name, start, err)
		}
	}
	duration := time.Since(start)

	want := 2 * (b.s.Depth + b.s.Width + 1)
	if edges != want {
		return failed(name, start, fmt.Errorf("saw %d edges, want %d", edges, want))
	}
	return BenchResult{Name: name, Duration: duration, Ops: edges}
}

func (b *bench) benchRelocate() BenchResult {
	name := "Relocate children"
	if err := b.needWide(); err != nil {
		return failed(name, time.Now(), err)
	}

	start := time.Now()
	for range b.s.Iterations {
		if err := b.wide.Append(b.wide.FirstChild()); err != nil {
			return failed(name, start, err)
		}
	}
	duration := time.Since(start)

	// Every move rotates the children by one.
	want := b.s.Iterations % b.s.Width
	if got := b.wide.FirstChild().Data(); got != want {
		return failed(name, start, fmt.Errorf("first child is %d after rotating, want %d", got, want))
	}
	return BenchResult{Name: name, Duration: duration, Ops: b.s.Iterations}
}

func (b *bench) benchDispose() BenchResult {
	name := "Dispose copied chain"
	if b.dup == nil {
		if err := b.needChain(); err != nil {
			return failed(name, time.Now(), err)
		}
		dup, err := b.chain.MakeDeepCopy()
		if err != nil {
			return failed(name, time.Now(), err)
		}
		b.dup = dup
	}

	before := arbor.ReadStats().Disposed
	start := time.Now()
	if err := b.dup.Dispose(); err != nil {
		return failed(name, start, err)
	}
	duration := time.Since(start)
	b.dup = nil
	disposed := arbor.ReadStats().Disposed - before
	return BenchResult{Name: name, Duration: duration, Ops: int(disposed)}
}

func (b *bench) benchReclaim() BenchResult {
	name := "Drop trees and collect"
	timeout, err := b.s.gcTimeout()
	if err != nil {
		return failed(name, time.Now(), err)
	}

	// Garbage from earlier steps must not count toward this one.
	before, ok := settleReclaimed(time.Now().Add(timeout))
	if !ok {
		return failed(name, time.Now(), fmt.Errorf("reclamation did not settle within %v", timeout))
	}
	dropped := b.dropTrees()
	b.logf("dropped %d nodes", dropped)

	start := time.Now()
	deadline := start.Add(timeout)
	reclaimed := int64(0)
	for time.Now().Before(deadline) {
		runtime.GC()
		reclaimed = arbor.ReadStats().Reclaimed - before
		if reclaimed >= dropped {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	duration := time.Since(start)

	if reclaimed < dropped {
		return failed(name, start, fmt.Errorf("reclaimed %d of %d nodes within %v", reclaimed, dropped, timeout))
	}
	return BenchResult{
		Name:     name,
		Duration: duration,
		Ops:      int(reclaimed),
		Extra:    fmt.Sprintf("%d dropped", dropped),
	}
}

// settleReclaimed collects until the reclaimed counter stops moving and
// returns its value. It reports false if the deadline passes first.
func settleReclaimed(deadline time.Time) (int64, bool) {
	const quiet = 3
	last, still := arbor.ReadStats().Reclaimed, 0
	for time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
		cur := arbor.ReadStats().Reclaimed
		if cur != last {
			last, still = cur, 0
			continue
		}
		if still++; still == quiet {
			return cur, true
		}
	}
	return last, false
}

// dropTrees releases every tree the bench holds and returns how many nodes
// they had.
func (b *bench) dropTrees() int64 {
	dropped := int64(0)
	for _, root := range []**arbor.Node[int]{&b.chain, &b.wide, &b.dup} {
		if *root == nil {
			continue
		}
		for range (*root).Descendants().All() {
			dropped++
		}
		*root = nil
	}
	return dropped
}
