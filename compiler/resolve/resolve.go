package resolve

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/CoolChenCool/traceur-compiler/compiler/load"
	"github.com/CoolChenCool/traceur-compiler/compiler/tree"
)

type (
	// Loader reads units from the filesystem, discovers module
	// dependencies by scanning import specifiers, and loads them
	// depth-first before the unit that required them.
	//
	// The loaded cache is order-sensitive: a file is loaded once per
	// loader, attributed to its first referencer. One Loader serves one
	// session.
	Loader struct {
		// Report receives the canonical name of every newly loaded
		// module. Used in dependency-target mode as the enumeration
		// channel.
		Report func(name string)

		loaded map[string]struct{}
	}
)

// specRe matches one import specifier per line: import/export-from/module
// declarations and require calls. Scanning, not parsing: enough to walk
// the dependency graph without a syntax tree.
var specRe = regexp.MustCompile(`^\s*(?:import\b[^'"]*?|export\b[^'"]*?\bfrom\s*|module\s+\S+\s+from\s*|(?:var|let|const)\s+\S+\s*=\s*require\s*\()\s*['"]([^'"]+)['"]`)

func New() *Loader {
	return &Loader{
		loaded: map[string]struct{}{},
	}
}

func (l *Loader) ImportModule(ctx context.Context, s *load.Session, name string, opts load.LoadOptions) error {
	return l.load(ctx, s, name, opts, tree.Module)
}

func (l *Loader) LoadAsScript(ctx context.Context, s *load.Session, name string, opts load.LoadOptions) error {
	return l.load(ctx, s, name, opts, tree.Script)
}

func (l *Loader) load(ctx context.Context, s *load.Session, name string, opts load.LoadOptions, kind tree.Kind) (err error) {
	file := File(name, opts.Referrer)

	if _, ok := l.loaded[file]; ok {
		return nil
	}

	l.loaded[file] = struct{}{}

	text, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrap(err, "read %v", name)
	}

	canonical := CanonicalName(name, opts.Referrer)

	var deps []string
	if kind == tree.Module {
		deps = Dependencies(text)
	}

	tlog.SpanFromContext(ctx).Printw("load", "kind", kind, "name", canonical, "file", file, "deps", len(deps))

	for _, d := range deps {
		nested := opts
		nested.Referrer = file
		nested.Options = opts.Options.Clone()
		nested.Options.ReferrerName = canonical

		err = l.load(ctx, s, d, nested, tree.Module)
		if err != nil {
			return errors.Wrap(err, "dependency %v", d)
		}
	}

	if l.Report != nil {
		l.Report(canonical)
	}

	s.Append(element(kind, canonical, text))

	return nil
}

// Dependencies extracts module specifiers from source text in the order
// they appear. Lines are split directly, no length limit: minified
// sources routinely put everything on one line.
func Dependencies(text []byte) []string {
	var deps []string

	for len(text) != 0 {
		line, rest, _ := bytes.Cut(text, []byte{'\n'})
		text = rest

		m := specRe.FindSubmatch(line)
		if m == nil {
			continue
		}

		deps = append(deps, string(m[1]))
	}

	return deps
}

// File resolves a module specifier to a filesystem path. Relative
// specifiers resolve against the referrer file, everything else against
// the ambient directory. A missing extension defaults to .js.
func File(name, referrer string) string {
	f := filepath.FromSlash(name)

	if !filepath.IsAbs(f) && referrer != "" {
		f = filepath.Join(filepath.Dir(filepath.FromSlash(referrer)), f)
	}

	if filepath.Ext(f) == "" {
		f += ".js"
	}

	return filepath.Clean(f)
}

// CanonicalName normalizes a module name against its referrer: slash
// separated, cleaned, .js extension stripped.
func CanonicalName(name, referrer string) string {
	p := path.Clean(filepath.ToSlash(name))

	if !path.IsAbs(p) && !filepath.IsAbs(name) && referrer != "" {
		p = path.Join(path.Dir(filepath.ToSlash(referrer)), p)
	}

	return strings.TrimSuffix(p, ".js")
}

func element(kind tree.Kind, name string, text []byte) tree.Element {
	b := fmt.Appendf(nil, "// %v %q\n", kind, name)
	b = append(b, text...)

	return tree.Element{
		Kind:   kind,
		Name:   name,
		Source: b,
	}
}
