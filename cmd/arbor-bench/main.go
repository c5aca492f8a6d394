// arbor-bench is a benchmark and stress test for the arbor tree. It builds a
// million-node chain and a wide tree by default and times edits, copies,
// walks and teardown over them.
package main

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/scott-cotton/cli"

	"github.com/phroun/arbor/internal/debug"
)

type Config struct {
	File       string `cli:"name=f aliases=file desc='YAML scenario file'"`
	Depth      int    `cli:"name=depth desc='length of the single-child chain'"`
	Width      int    `cli:"name=width desc='number of children in the wide tree'"`
	Iterations int    `cli:"name=n aliases=iterations desc='number of relocations'"`
	GCTimeout  string `cli:"name=gc-timeout desc='how long to wait for reclamation, e.g. 30s'"`
	Verbose    bool   `cli:"name=v aliases=verbose desc='log progress to stderr'"`

	Main *cli.Command
}

func main() {
	cli.MainContext(context.Background(), MainCommand())
}

func MainCommand() *cli.Command {
	cfg := &Config{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "arbor-bench").
		WithSynopsis("arbor-bench [-f scenario.yaml] [opts]").
		WithDescription("arbor-bench times tree construction, copies, walks and teardown. Flags override the scenario file.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return run(cfg, cc, args)
		})
}

func run(cfg *Config, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: unexpected arguments %v", cli.ErrUsage, args)
	}

	s, err := loadScenario(cfg.File)
	if err != nil {
		return err
	}
	if err := s.override(cfg); err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	if cfg.Verbose {
		debug.Log("scenario", debug.Fields{
			"depth":      s.Depth,
			"width":      s.Width,
			"iterations": s.Iterations,
			"skip":       strings.Join(s.Skip, ","),
		})
	}

	w := cc.Out
	fmt.Fprintln(w, "Arbor Benchmark and Stress Test")
	fmt.Fprintln(w, "===============================")
	fmt.Fprintf(w, "Chain depth: %d, wide tree: %d children\n", s.Depth, s.Width)
	fmt.Fprintf(w, "Go version: %s\n", runtime.Version())
	fmt.Fprintf(w, "GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Running benchmarks...")
	fmt.Fprintln(w)

	b := &bench{s: s, out: w, verbose: cfg.Verbose}
	results := b.run()

	fmt.Fprintln(w, "\nSUMMARY")
	failures := summarize(w, results)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Peak heap allocation: %d MB\n", m.HeapSys/(1024*1024))
	fmt.Fprintf(w, "Total allocations: %d MB\n", m.TotalAlloc/(1024*1024))

	return failures
}
