package archives

import (
	"context"
	"fmt"
	"io"

	"github.com/brettbedarf/resmgr"
	"github.com/brettbedarf/resmgr/internal/util"
	"github.com/klauspost/compress/zip"
)

// ZipArchive serves the entries of a zip container. Entries may be stored or
// deflated and are decompressed on every Fetch.
type ZipArchive struct {
	rc      *zip.ReadCloser
	entries map[string]*zip.File // Stored name -> entry
	index   *Index
}

// OpenZip opens and indexes the zip file at path
func OpenZip(path string) (*ZipArchive, error) {
	logger := util.GetLogger("ZipArchive")

	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip archive: %w", err)
	}

	entries := make(map[string]*zip.File, len(rc.File))
	names := make([]string, 0, len(rc.File))
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := resmgr.CleanPath(f.Name)
		if name == "" {
			continue
		}
		names = append(names, name)
		entries[name] = f
	}

	a := &ZipArchive{rc: rc, entries: entries, index: NewIndex(names)}
	logger.Debug().Str("path", path).Int("files", a.index.Len()).Msg("Opened zip archive")
	return a, nil
}

func (a *ZipArchive) Fetch(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, ok := a.index.Resolve(p)
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, resmgr.ErrFileNotFound)
	}

	r, err := a.entries[name].Open()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return data, nil
}

func (a *ZipArchive) List(mask string) ([]string, error) {
	return a.index.List(mask), nil
}

func (a *ZipArchive) Hash(p string) uint64 {
	return HashPath(p)
}

func (a *ZipArchive) HashToString(hash uint64) (string, bool) {
	return a.index.HashToString(hash)
}

func (a *ZipArchive) Close() error {
	return a.rc.Close()
}

var _ resmgr.Archive = (*ZipArchive)(nil)
