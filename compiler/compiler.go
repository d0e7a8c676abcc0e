package compiler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/CoolChenCool/traceur-compiler/compiler/codegen"
	"github.com/CoolChenCool/traceur-compiler/compiler/load"
	"github.com/CoolChenCool/traceur-compiler/compiler/resolve"
	"github.com/CoolChenCool/traceur-compiler/compiler/tree"
)

type (
	// Options configures one compile request. The embedded load.Options
	// travels, cloned per entry, through every load; the rest selects
	// collaborators and defaults to the filesystem loader.
	Options struct {
		load.Options

		// NewLoader builds a loader for one session. Called once per
		// session so concurrent sessions never share loader state.
		NewLoader func() load.Loader

		Normalize load.Normalizer

		// Report is the dependency-name channel for dependency-target
		// mode.
		Report func(name string)
	}

	// EntryError is one entry's failure in the per-entry strategy.
	EntryError struct {
		Name string
		Err  error
	}

	EntryErrors []EntryError
)

// CompileToSingleFile resolves every entry and its dependencies, compiles
// them strictly in entry order into one session and writes the merged
// tree to outFile. The whole pipeline runs with the working directory
// switched to outFile's directory, restored before return, so relative
// references come out correct. All or nothing: on error no artifact is
// written.
//
// With a dependency target set, resolution still runs to completion but
// no artifact is assembled or written; dependency names go through
// Options.Report.
func CompileToSingleFile(ctx context.Context, entries []load.Entry, outFile string, opts Options) (err error) {
	outFile, err = filepath.Abs(outFile)
	if err != nil {
		return errors.Wrap(err, "output file")
	}

	outDir := filepath.Dir(outFile)

	entries = ResolveEntries(entries)

	entries, err = RelativizeEntries(entries, outDir)
	if err != nil {
		return errors.Wrap(err, "relativize entries")
	}

	lopts := opts.Options
	lopts.Bundle = len(entries) > 1

	tlog.SpanFromContext(ctx).Printw("compile to single file", "out", outFile, "entries", len(entries), "bundle", lopts.Bundle)

	ses := load.NewSession(opts.loader(), opts.normalizer())

	var t *tree.Tree

	err = runInDir(outDir, func() error {
		err := load.All(ctx, ses, entries, lopts)
		if err != nil {
			return err
		}

		t = ses.Finish(lopts)

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "load")
	}

	if t == nil {
		return nil
	}

	err = codegen.New(lopts).WriteTreeToFile(ctx, t, outFile)
	if err != nil {
		return errors.Wrap(err, "write %v", outFile)
	}

	return nil
}

// CompileEachToDirectory compiles every entry in isolation, mirroring its
// relative path under outDir. An absolute entry name is reproduced as a
// full path under outDir: /out with /abs/a.js writes /out/abs/a.js.
// Entries run concurrently, each with its own session and loader; the
// working directory is never touched. Failures are independent and
// reported per entry.
func CompileEachToDirectory(ctx context.Context, entries []load.Entry, outDir string, opts Options) (err error) {
	outDir, err = filepath.Abs(outDir)
	if err != nil {
		return errors.Wrap(err, "output dir")
	}

	lopts := opts.Options
	lopts.Bundle = false

	tlog.SpanFromContext(ctx).Printw("compile each to directory", "dir", outDir, "entries", len(entries))

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}

	resolved := make([]load.Entry, len(entries))
	copy(resolved, entries)
	resolved = ResolveEntries(resolved)

	errs := make([]error, len(entries))

	var g errgroup.Group

	for i := range resolved {
		i := i

		g.Go(func() error {
			errs[i] = compileEntry(ctx, resolved[i], filepath.Join(outDir, filepath.FromSlash(names[i])), lopts, opts)
			return errs[i]
		})
	}

	_ = g.Wait() // full per-entry report assembled below

	var report EntryErrors

	for i, e := range errs {
		if e == nil {
			continue
		}

		report = append(report, EntryError{Name: names[i], Err: e})
	}

	if len(report) == 0 {
		return nil
	}

	return report
}

func compileEntry(ctx context.Context, e load.Entry, out string, lopts load.Options, opts Options) (err error) {
	ses := load.NewSession(opts.loader(), opts.normalizer())

	err = load.One(ctx, ses, e, lopts)
	if err != nil {
		return errors.Wrap(err, "load")
	}

	t := ses.Finish(lopts)
	if t == nil {
		return nil
	}

	err = codegen.New(lopts).WriteTreeToFile(ctx, t, out)
	if err != nil {
		return errors.Wrap(err, "write %v", out)
	}

	return nil
}

func (o Options) loader() load.Loader {
	if o.NewLoader != nil {
		return o.NewLoader()
	}

	l := resolve.New()
	l.Report = o.Report

	return l
}

func (o Options) normalizer() load.Normalizer {
	if o.Normalize != nil {
		return o.Normalize
	}

	return resolve.CanonicalName
}

func (e EntryError) Error() string {
	return fmt.Sprintf("%v: %v", e.Name, e.Err)
}

func (e EntryError) Unwrap() error { return e.Err }

func (e EntryErrors) Error() string {
	var b strings.Builder

	for i, x := range e {
		if i != 0 {
			b.WriteString("; ")
		}

		b.WriteString(x.Error())
	}

	return b.String()
}
