package load

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/CoolChenCool/traceur-compiler/compiler/tree"
)

type (
	// Kind separates modules, whose dependencies the loader resolves,
	// from scripts, which are loaded as is.
	Kind int

	// Entry is one caller-specified compilation unit.
	Entry struct {
		Name string
		Kind Kind
	}

	// Options is the per-request configuration. Recognized fields are
	// typed; everything else travels in Extra and is forwarded opaquely
	// to the code generator.
	Options struct {
		Bundle           bool
		DependencyTarget string
		ReferrerName     string
		ModuleMode       string
		SourceMaps       bool

		Extra map[string]any
	}

	// LoadOptions is what one load invocation hands to the loader.
	// Options inside is always a private clone, the loader propagates it
	// to nested dependency loads.
	LoadOptions struct {
		Referrer string
		Options  Options
	}

	// Loader resolves an entry and its transitive dependencies, appending
	// one compiled element per loaded unit to the session.
	Loader interface {
		ImportModule(ctx context.Context, s *Session, name string, opts LoadOptions) error
		LoadAsScript(ctx context.Context, s *Session, name string, opts LoadOptions) error
	}

	// Normalizer turns a module name into its canonical form, resolved
	// against the referrer.
	Normalizer func(name, referrer string) string

	// Session accumulates compiled elements for one top-level compile
	// call. It is never reused across calls.
	Session struct {
		Loader    Loader
		Normalize Normalizer

		elements []tree.Element
		finished bool
	}
)

const (
	Module Kind = iota
	Script
)

// ModeRegister makes every imported module explicitly evaluated by a
// synthesized statement after its registration.
const ModeRegister = "register"

// Clone returns an independent copy. Mutating the clone or its Extra map
// is not observable through the original.
func (o Options) Clone() Options {
	if o.Extra != nil {
		x := make(map[string]any, len(o.Extra))

		for k, v := range o.Extra {
			x[k] = v
		}

		o.Extra = x
	}

	return o
}

func NewSession(l Loader, n Normalizer) *Session {
	return &Session{
		Loader:    l,
		Normalize: n,
	}
}

// Append adds one compiled element. Called by the loader as units settle.
func (s *Session) Append(e tree.Element) {
	if s.finished {
		panic("append to a finished session")
	}

	s.elements = append(s.elements, e)
}

// Finish seals the session. It returns nil when a dependency target is
// set: the caller only wanted dependency names, reported by the loader
// through its own channel during resolution.
func (s *Session) Finish(opts Options) *tree.Tree {
	s.finished = true

	if opts.DependencyTarget != "" {
		return nil
	}

	return &tree.Tree{Elements: s.elements}
}

// One loads a single entry. The loader gets a fresh clone of opts so no
// two loads share configuration state. In register mode a module
// evaluation statement is appended after the import settles.
func One(ctx context.Context, s *Session, e Entry, opts Options) (err error) {
	lopts := LoadOptions{
		Referrer: opts.ReferrerName,
		Options:  opts.Clone(),
	}

	if e.Kind == Script {
		return s.Loader.LoadAsScript(ctx, s, e.Name, lopts)
	}

	err = s.Loader.ImportModule(ctx, s, e.Name, lopts)
	if err != nil {
		return err
	}

	if opts.ModuleMode == ModeRegister {
		name := e.Name
		if s.Normalize != nil {
			name = s.Normalize(e.Name, opts.ReferrerName)
		}

		s.Append(tree.ModuleEvaluation(name))
	}

	return nil
}

// All loads entries strictly in input order: the next entry is not
// started until the previous one fully settled. The merged output order
// must match entry order, and the loader's resolution cache is
// order-sensitive when entries share dependencies, so ordering is
// explicit here and not left to the scheduler. First error aborts the
// rest of the sequence.
func All(ctx context.Context, s *Session, entries []Entry, opts Options) (err error) {
	for _, e := range entries {
		tlog.SpanFromContext(ctx).Printw("load entry", "kind", e.Kind, "name", e.Name)

		err = One(ctx, s, e, opts)
		if err != nil {
			return errors.Wrap(err, "%v", e.Name)
		}
	}

	return nil
}

func (k Kind) String() string {
	switch k {
	case Module:
		return "module"
	case Script:
		return "script"
	default:
		return "kind[?]"
	}
}
