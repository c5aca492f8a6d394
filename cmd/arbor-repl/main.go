// arbor-repl is an interactive shell for building and walking arbor trees.
package main

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"

	"github.com/phroun/arbor"
	"github.com/phroun/arbor/internal/debug"
)

type Config struct {
	Color  bool   `cli:"name=color desc='color tree output even when not on a terminal'"`
	Debug  bool   `cli:"name=debug desc='log edits, teardown and borrow conflicts to stderr'"`
	Quiet  bool   `cli:"name=q aliases=quiet desc='do not print the banner'"`
	Prompt string `cli:"name=prompt desc='prompt shown before each command'"`

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
	return cli.NewCommandAt(&cfg.Main, "arbor-repl").
		WithSynopsis("arbor-repl [opts]").
		WithDescription("arbor-repl reads tree commands from stdin. Type 'help' for the list.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return run(cfg, cc, args)
		})
}

func run(cfg *Config, cc *cli.Context, args []string) error {
	_, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Debug {
		debug.Enable()
	}
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = "arbor> "
	}

	var dumpOpts []arbor.DumpOption
	if cfg.Color || isTerminal(cc) {
		dumpOpts = append(dumpOpts, arbor.DumpColors())
	}

	r := newREPL(cc.Out, prompt, dumpOpts...)
	if !cfg.Quiet {
		r.banner()
	}
	return r.run(cc.In)
}

func isTerminal(cc *cli.Context) bool {
	var w io.Writer = cc.Out
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
