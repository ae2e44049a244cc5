package archives

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/brettbedarf/resmgr"
	"github.com/brettbedarf/resmgr/internal/util"
	"go.uber.org/multierr"
)

// Overlay stacks archives: a path is served by the last layer that has it,
// so patches listed after the main archive replace its entries.
type Overlay struct {
	layers []resmgr.Archive
}

// NewOverlay stacks layers, lowest priority first
func NewOverlay(layers ...resmgr.Archive) *Overlay {
	return &Overlay{layers: layers}
}

func (o *Overlay) Fetch(ctx context.Context, p string) ([]byte, error) {
	for i := len(o.layers) - 1; i >= 0; i-- {
		data, err := o.layers[i].Fetch(ctx, p)
		if errors.Is(err, resmgr.ErrFileNotFound) {
			continue
		}
		return data, err
	}
	return nil, fmt.Errorf("%s: %w", p, resmgr.ErrFileNotFound)
}

// List returns the sorted union of every layer's matches
func (o *Overlay) List(mask string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range o.layers {
		names, err := l.List(mask)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			key := strings.ToLower(name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (o *Overlay) Hash(p string) uint64 {
	return HashPath(p)
}

func (o *Overlay) HashToString(hash uint64) (string, bool) {
	for i := len(o.layers) - 1; i >= 0; i-- {
		if p, ok := o.layers[i].HashToString(hash); ok {
			return p, true
		}
	}
	return "", false
}

// Close closes every layer and combines their errors
func (o *Overlay) Close() error {
	var err error
	for _, l := range o.layers {
		err = multierr.Append(err, l.Close())
	}
	return err
}

// Layers returns the stacked archives, lowest priority first
func (o *Overlay) Layers() []resmgr.Archive {
	return slices.Clone(o.layers)
}

var _ resmgr.Archive = (*Overlay)(nil)

// OpenWithPatches opens the main archive and stacks every patch found in
// patchesDir on top of it in name order. Subdirectories become dir layers,
// .zip/.otr/.o2r files become zip layers, anything else is skipped.
// Without patchesDir the main archive is returned as is.
func OpenWithPatches(ctx context.Context, r *Registry, kind, mainPath, patchesDir string, opts Options) (resmgr.Archive, error) {
	logger := util.GetLogger("OpenWithPatches")

	main, err := r.Open(ctx, kind, mainPath, opts)
	if err != nil {
		return nil, err
	}
	if patchesDir == "" {
		return main, nil
	}

	entries, err := os.ReadDir(patchesDir)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("read patches: %w", err), main.Close())
	}

	layers := []resmgr.Archive{main}
	for _, e := range entries {
		patchKind := patchKindOf(e)
		if patchKind == "" {
			logger.Debug().Str("name", e.Name()).Msg("Skipping non-archive patch entry")
			continue
		}
		layer, err := r.Open(ctx, patchKind, filepath.Join(patchesDir, e.Name()), opts)
		if err != nil {
			return nil, multierr.Append(err, NewOverlay(layers...).Close())
		}
		logger.Info().Str("patch", e.Name()).Str("kind", patchKind).Msg("Loaded patch")
		layers = append(layers, layer)
	}
	return NewOverlay(layers...), nil
}

func patchKindOf(e os.DirEntry) string {
	if e.IsDir() {
		return DirKind
	}
	switch strings.ToLower(filepath.Ext(e.Name())) {
	case ".zip", ".otr", ".o2r":
		return ZipKind
	}
	return ""
}
