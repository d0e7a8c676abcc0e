package compiler

import (
	"os"
	"sync"

	"tlog.app/go/errors"
)

// The working directory is process-wide single-writer state. The mutex
// serializes guarded scopes so two single-file compiles cannot
// interleave their directory switches.
var wdMu sync.Mutex

// runInDir creates dir if needed, switches the working directory to it,
// runs f and restores the previous directory on every exit path before
// the error is returned to the caller.
func runInDir(dir string, f func() error) (err error) {
	wdMu.Lock()
	defer wdMu.Unlock()

	wd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "get workdir")
	}

	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return errors.Wrap(err, "create dir")
	}

	err = os.Chdir(dir)
	if err != nil {
		return errors.Wrap(err, "enter dir")
	}

	defer func() {
		e := os.Chdir(wd)
		if err == nil && e != nil {
			err = errors.Wrap(e, "restore workdir")
		}
	}()

	return f()
}
