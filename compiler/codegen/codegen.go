package codegen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/CoolChenCool/traceur-compiler/compiler/load"
	"github.com/CoolChenCool/traceur-compiler/compiler/tree"
)

type (
	// Codegen serializes finished trees to disk. One instance per
	// top-level compile request, holding the full request option set.
	Codegen struct {
		opts load.Options
	}

	sourceMap struct {
		Version  int      `json:"version"`
		File     string   `json:"file"`
		Sources  []string `json:"sources"`
		Mappings string   `json:"mappings"`
	}
)

func New(opts load.Options) *Codegen {
	return &Codegen{opts: opts}
}

// WriteTreeToFile renders t and writes it to name, creating directories
// as needed. With SourceMaps set a sibling .map file referencing the
// tree's sources is written and linked from the output.
func (c *Codegen) WriteTreeToFile(ctx context.Context, t *tree.Tree, name string) (err error) {
	b := t.Render(nil)

	if c.opts.SourceMaps {
		mapname := name + ".map"

		b = fmt.Appendf(b, "//# sourceMappingURL=%v\n", filepath.Base(mapname))

		err = c.writeMap(t, name, mapname)
		if err != nil {
			return errors.Wrap(err, "source map")
		}
	}

	err = os.MkdirAll(filepath.Dir(name), 0o755)
	if err != nil {
		return errors.Wrap(err, "create output dir")
	}

	err = os.WriteFile(name, b, 0o644)
	if err != nil {
		return errors.Wrap(err, "write tree")
	}

	tlog.SpanFromContext(ctx).Printw("written", "file", name, "elements", len(t.Elements), "size", len(b))

	return nil
}

func (c *Codegen) writeMap(t *tree.Tree, name, mapname string) (err error) {
	m := sourceMap{
		Version: 3,
		File:    filepath.Base(name),
		Sources: t.SourceNames(),
	}

	b, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "marshal")
	}

	err = os.MkdirAll(filepath.Dir(mapname), 0o755)
	if err != nil {
		return errors.Wrap(err, "create output dir")
	}

	return os.WriteFile(mapname, b, 0o644)
}
