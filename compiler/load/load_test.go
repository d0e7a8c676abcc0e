package load

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/CoolChenCool/traceur-compiler/compiler/tree"
)

type testLoader struct {
	names []string
	opts  []LoadOptions

	fail map[string]error
}

func (l *testLoader) ImportModule(ctx context.Context, s *Session, name string, opts LoadOptions) error {
	return l.load(s, "import", name, opts)
}

func (l *testLoader) LoadAsScript(ctx context.Context, s *Session, name string, opts LoadOptions) error {
	return l.load(s, "script", name, opts)
}

func (l *testLoader) load(s *Session, op, name string, opts LoadOptions) error {
	l.names = append(l.names, op+" "+name)
	l.opts = append(l.opts, opts)

	if err := l.fail[name]; err != nil {
		return err
	}

	kind := tree.Module
	if op == "script" {
		kind = tree.Script
	}

	s.Append(tree.Element{Kind: kind, Name: name, Source: []byte("// " + name + "\n")})

	return nil
}

func TestAllKeepsEntryOrder(t *testing.T) {
	entries := []Entry{
		{Name: "a.js"},
		{Name: "b.js"},
		{Name: "c.js"},
		{Name: "d.js"},
	}

	ld := &testLoader{}
	s := NewSession(ld, nil)

	err := All(context.Background(), s, entries, Options{})
	require.NoError(t, err)

	tr := s.Finish(Options{})
	require.NotNil(t, tr)

	var names []string
	for _, e := range tr.Elements {
		names = append(names, e.Name)
	}

	assert.Equal(t, []string{"a.js", "b.js", "c.js", "d.js"}, names)
}

func TestAllStopsAtFirstError(t *testing.T) {
	errBoom := errors.New("boom")

	ld := &testLoader{
		fail: map[string]error{"b.js": errBoom},
	}
	s := NewSession(ld, nil)

	entries := []Entry{{Name: "a.js"}, {Name: "b.js"}, {Name: "c.js"}}

	err := All(context.Background(), s, entries, Options{})
	require.ErrorIs(t, err, errBoom)

	// c.js was never started
	assert.Equal(t, []string{"import a.js", "import b.js"}, ld.names)
}

func TestOneDispatchesByKind(t *testing.T) {
	ld := &testLoader{}
	s := NewSession(ld, nil)

	err := One(context.Background(), s, Entry{Name: "x.js", Kind: Script}, Options{})
	require.NoError(t, err)

	err = One(context.Background(), s, Entry{Name: "y.js", Kind: Module}, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"script x.js", "import y.js"}, ld.names)
}

func TestRegisterModeAppendsEvaluation(t *testing.T) {
	ld := &testLoader{}

	s := NewSession(ld, func(name, referrer string) string {
		return "norm:" + name + "@" + referrer
	})

	opts := Options{
		ModuleMode:   ModeRegister,
		ReferrerName: "ref",
	}

	entries := []Entry{
		{Name: "x.mod", Kind: Module},
		{Name: "y.mod", Kind: Module},
		{Name: "s.js", Kind: Script},
	}

	err := All(context.Background(), s, entries, opts)
	require.NoError(t, err)

	tr := s.Finish(opts)
	require.NotNil(t, tr)
	require.Len(t, tr.Elements, 5)

	assert.Equal(t, tree.Module, tr.Elements[0].Kind)
	assert.Equal(t, tree.Evaluation, tr.Elements[1].Kind)
	assert.Equal(t, "norm:x.mod@ref", tr.Elements[1].Name)
	assert.Equal(t, tree.Evaluation, tr.Elements[3].Kind)
	assert.Equal(t, "norm:y.mod@ref", tr.Elements[3].Name)

	// scripts get no evaluation statement
	assert.Equal(t, tree.Script, tr.Elements[4].Kind)
}

func TestOptionsIsolatedPerLoad(t *testing.T) {
	orig := Options{
		Extra: map[string]any{"shared": "yes"},
	}

	ld := &testLoader{}
	s := NewSession(ld, nil)

	entries := []Entry{{Name: "a.js"}, {Name: "b.js"}, {Name: "c.js"}}

	err := All(context.Background(), s, entries, orig)
	require.NoError(t, err)

	require.Len(t, ld.opts, 3)

	// a loader mutating its copy must not be seen by anybody else
	for i, o := range ld.opts {
		o.Options.Extra["seen"] = entries[i].Name
	}

	assert.NotContains(t, orig.Extra, "seen")

	for i, o := range ld.opts {
		assert.Equal(t, entries[i].Name, o.Options.Extra["seen"])
		assert.Equal(t, "yes", o.Options.Extra["shared"])
	}
}

func TestFinishWithDependencyTarget(t *testing.T) {
	ld := &testLoader{}
	s := NewSession(ld, nil)

	opts := Options{DependencyTarget: "list"}

	err := All(context.Background(), s, []Entry{{Name: "a.js"}, {Name: "b.js"}}, opts)
	require.NoError(t, err)

	assert.Nil(t, s.Finish(opts))
}

func TestAppendAfterFinishPanics(t *testing.T) {
	s := NewSession(&testLoader{}, nil)
	_ = s.Finish(Options{})

	assert.Panics(t, func() {
		s.Append(tree.Element{Name: "late"})
	})
}

func TestCloneCopiesExtra(t *testing.T) {
	o := Options{
		Bundle: true,
		Extra:  map[string]any{"a": 1},
	}

	c := o.Clone()
	c.Extra["b"] = 2

	if _, ok := o.Extra["b"]; ok {
		t.Errorf("clone shares the extra map")
	}

	if !c.Bundle {
		t.Errorf("recognized fields not copied")
	}
}
