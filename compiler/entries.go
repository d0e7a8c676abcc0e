package compiler

import (
	"os"
	"path/filepath"

	"tlog.app/go/errors"

	"github.com/CoolChenCool/traceur-compiler/compiler/load"
)

// initialWD is the process working directory captured before any scoped
// directory switch, so entry resolution stays stable inside a guard.
// The error is kept: resolving a relative entry against an unknown
// directory must fail loudly, not produce bogus names.
var initialWD, initialWDErr = os.Getwd()

// ResolveEntries rewrites every entry name to an absolute path against
// the initial process working directory. Applying it to already resolved
// entries changes nothing. Pure, no I/O.
func ResolveEntries(entries []load.Entry) []load.Entry {
	for i, e := range entries {
		if !filepath.IsAbs(e.Name) {
			if initialWDErr != nil {
				panic(errors.Wrap(initialWDErr, "initial workdir unknown"))
			}

			entries[i].Name = filepath.Join(initialWD, e.Name)
		}

		entries[i].Name = filepath.Clean(entries[i].Name)
	}

	return entries
}

// RelativizeEntries rewrites absolute entry names relative to dir with
// forward-slash separators, so references rendered into the merged
// artifact are correct relative to its location.
func RelativizeEntries(entries []load.Entry, dir string) ([]load.Entry, error) {
	for i, e := range entries {
		rel, err := filepath.Rel(dir, e.Name)
		if err != nil {
			return nil, err
		}

		entries[i].Name = filepath.ToSlash(rel)
	}

	return entries, nil
}
