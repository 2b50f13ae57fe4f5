// Package filex contains filesystem helpers: directory bootstrapping and a
// recursive tree walker used for disk-usage accounting.
package filex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// EnsureDir creates dir with mode 0700 when it does not exist and reports
// whether it did. An existing non-directory, or any stat failure other than
// "not exist", is an error.
func EnsureDir(dir string) (bool, error) {
	fi, err := os.Stat(dir)
	switch {
	case err == nil:
		if !fi.IsDir() {
			return false, fmt.Errorf("%s: not a directory", dir)
		}
		return false, nil
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("stat %s: %w", dir, err)
	}

	if err := os.Mkdir(dir, 0o700); err != nil {
		return false, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return true, nil
}
