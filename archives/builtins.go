package archives

import (
	"context"

	"github.com/brettbedarf/resmgr"
)

type BuiltInKind = string

const (
	DirKind  BuiltInKind = "dir"
	ZipKind  BuiltInKind = "zip"
	HTTPKind BuiltInKind = "http"
)

// RegisterBuiltins registers all built-in archive kinds by default
// or only the specific ones if kinds are provided
func RegisterBuiltins(r *Registry, kinds ...BuiltInKind) {
	if len(kinds) == 0 {
		kinds = append(kinds, DirKind, ZipKind, HTTPKind)
	}

	for _, kind := range kinds {
		switch kind {
		case DirKind:
			r.Register(DirKind, func(_ context.Context, location string, _ Options) (resmgr.Archive, error) {
				a, err := OpenDir(location)
				if err != nil {
					return nil, err
				}
				return a, nil
			})
		case ZipKind:
			r.Register(ZipKind, func(_ context.Context, location string, _ Options) (resmgr.Archive, error) {
				a, err := OpenZip(location)
				if err != nil {
					return nil, err
				}
				return a, nil
			})
		case HTTPKind:
			r.Register(HTTPKind, func(ctx context.Context, location string, opts Options) (resmgr.Archive, error) {
				a, err := OpenHTTP(ctx, location, opts)
				if err != nil {
					return nil, err
				}
				return a, nil
			})
		}
	}
}
