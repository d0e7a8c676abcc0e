package main

import (
	"context"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/CoolChenCool/traceur-compiler/compiler"
	"github.com/CoolChenCool/traceur-compiler/compiler/load"
)

func main() {
	bundleCmd := &cli.Command{
		Name:        "bundle",
		Description: "compile entries and their dependencies into a single file",
		Action:      bundleAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("out,o", "bundle.js", "output file"),
			cli.NewFlag("register", false, "evaluate every module right after its registration"),
		},
	}

	buildCmd := &cli.Command{
		Name:        "build",
		Description: "compile each entry into its own file under the output directory",
		Action:      buildAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("dir,d", "out", "output directory"),
		},
	}

	depsCmd := &cli.Command{
		Name:        "deps",
		Description: "resolve entries and print their dependency names, compile nothing",
		Action:      depsAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "traceur",
		Description: "traceur is a tool for compiling ecmascript modules",
		Commands: []*cli.Command{
			bundleCmd,
			buildCmd,
			depsCmd,
		},
		Flags: []*cli.Flag{
			cli.NewFlag("script", false, "load entries without module semantics"),
			cli.NewFlag("referrer", "", "module name resolution context"),
			cli.NewFlag("source-maps", false, "write source maps next to outputs"),
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func bundleAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	entries, err := entriesOf(c)
	if err != nil {
		return err
	}

	opts := optionsOf(c)

	if c.Bool("register") {
		opts.ModuleMode = load.ModeRegister
	}

	err = compiler.CompileToSingleFile(ctx, entries, c.String("out"), opts)
	if err != nil {
		return errors.Wrap(err, "compile")
	}

	return nil
}

func buildAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	entries, err := entriesOf(c)
	if err != nil {
		return err
	}

	err = compiler.CompileEachToDirectory(ctx, entries, c.String("dir"), optionsOf(c))
	if err != nil {
		return errors.Wrap(err, "compile")
	}

	return nil
}

func depsAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	entries, err := entriesOf(c)
	if err != nil {
		return err
	}

	opts := optionsOf(c)
	opts.DependencyTarget = "list"
	opts.Report = func(name string) {
		fmt.Println(name)
	}

	err = compiler.CompileToSingleFile(ctx, entries, "deps.js", opts)
	if err != nil {
		return errors.Wrap(err, "resolve")
	}

	return nil
}

func entriesOf(c *cli.Command) ([]load.Entry, error) {
	if len(c.Args) == 0 {
		return nil, errors.New("no entries given")
	}

	kind := load.Module
	if c.Bool("script") {
		kind = load.Script
	}

	entries := make([]load.Entry, len(c.Args))

	for i, a := range c.Args {
		entries[i] = load.Entry{Name: a, Kind: kind}
	}

	return entries, nil
}

func optionsOf(c *cli.Command) compiler.Options {
	opts := compiler.Options{}

	opts.ReferrerName = c.String("referrer")
	opts.SourceMaps = c.Bool("source-maps")

	return opts
}
