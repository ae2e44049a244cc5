package archives

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/brettbedarf/resmgr"
	"github.com/brettbedarf/resmgr/internal/util"
)

// DirArchive serves the files below a directory on disk.
// The tree is indexed at open and again on [DirArchive.Rescan].
type DirArchive struct {
	root  string
	index atomic.Pointer[Index]
}

// OpenDir indexes the regular files below root
func OpenDir(root string) (*DirArchive, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open dir archive: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open dir archive: %s is not a directory", abs)
	}

	a := &DirArchive{root: abs}
	if err := a.Rescan(); err != nil {
		return nil, err
	}
	return a, nil
}

// Root returns the absolute directory the archive serves
func (a *DirArchive) Root() string {
	return a.root
}

// Rescan rebuilds the index from disk
func (a *DirArchive) Rescan() error {
	logger := util.GetLogger("DirArchive")

	var names []string
	err := filepath.WalkDir(a.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(a.root, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return fmt.Errorf("index %s: %w", a.root, err)
	}

	a.index.Store(NewIndex(names))
	logger.Debug().Str("root", a.root).Int("files", len(names)).Msg("Indexed directory")
	return nil
}

func (a *DirArchive) Fetch(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, ok := a.index.Load().Resolve(p)
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, resmgr.ErrFileNotFound)
	}
	data, err := os.ReadFile(filepath.Join(a.root, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", p, resmgr.ErrFileNotFound)
	}
	return data, err
}

func (a *DirArchive) List(mask string) ([]string, error) {
	return a.index.Load().List(mask), nil
}

func (a *DirArchive) Hash(p string) uint64 {
	return HashPath(p)
}

func (a *DirArchive) HashToString(hash uint64) (string, bool) {
	return a.index.Load().HashToString(hash)
}

func (a *DirArchive) Close() error {
	return nil
}

var _ resmgr.Archive = (*DirArchive)(nil)
