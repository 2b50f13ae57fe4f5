package filex

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/filekeeper/internal/logging"
)

// Visitor is called for every regular file found by a Walker. Returning an
// error aborts the walk and the error is returned from Walk unchanged.
type Visitor func(path string, info fs.FileInfo) error

// Walker visits directory trees depth first. It holds no per-walk state, so
// one Walker can serve concurrent walks.
type Walker struct {
	logger logging.Logger
}

func NewWalker(l logging.Logger) *Walker {
	return &Walker{logger: l.With("module", "walker")}
}

// Walk calls visit for each regular file below root.
//
// Entries are examined with lstat and are never followed: directories are
// descended into, regular files are visited, and anything else (symlinks,
// sockets, devices) is logged and skipped. An entry that cannot be stat'ed
// is logged and skipped as well. Failing to read a directory aborts the walk.
func (w *Walker) Walk(ctx context.Context, root string, visit Visitor) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", root, err)
	}

	for _, e := range entries {
		path := filepath.Join(root, e.Name())

		info, err := os.Lstat(path)
		if err != nil {
			w.logger.Warn(ctx, "stat failed, skipping entry", "path", path, "error", err)
			continue
		}

		switch mode := info.Mode(); {
		case mode.IsDir():
			if err := w.Walk(ctx, path, visit); err != nil {
				return err
			}
		case mode.IsRegular():
			if err := visit(path, info); err != nil {
				return err
			}
		default:
			w.logger.Warn(ctx, "unexpected file type, skipping entry", "path", path, "mode", mode.String())
		}
	}

	return nil
}

// DiskUsage returns the summed size of all regular files below root.
func (w *Walker) DiskUsage(ctx context.Context, root string) (uint64, error) {
	var total uint64

	err := w.Walk(ctx, root, func(_ string, info fs.FileInfo) error {
		total += uint64(info.Size())
		return nil
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}
