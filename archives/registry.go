package archives

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/brettbedarf/resmgr"
	"github.com/puzpuzpuz/xsync/v4"
)

// Options are passed to every archive opener; each kind uses what applies
type Options struct {
	Headers map[string]string // Extra request headers (http)
	Timeout time.Duration     // Per-request timeout (http), 0 for none
}

// OpenFunc opens the archive found at location
type OpenFunc func(ctx context.Context, location string, opts Options) (resmgr.Archive, error)

// Registry maps archive kinds to openers. Safe for concurrent use.
type Registry struct {
	openers *xsync.Map[string, OpenFunc]
}

func NewRegistry() *Registry {
	return &Registry{openers: xsync.NewMap[string, OpenFunc]()}
}

// Register ties an opener to kind. The first registration for a kind wins.
func (r *Registry) Register(kind string, open OpenFunc) {
	r.openers.LoadOrStore(kind, open)
}

// Open opens location with the opener registered for kind.
// All expected kinds should be registered with [Registry.Register] or
// [RegisterBuiltins] before calling this function.
func (r *Registry) Open(ctx context.Context, kind, location string, opts Options) (resmgr.Archive, error) {
	open, ok := r.openers.Load(kind)
	if !ok {
		return nil, fmt.Errorf("no archive opener for %q", kind)
	}
	return open(ctx, location, opts)
}

// Kinds returns the registered kinds in sorted order
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, r.openers.Size())
	r.openers.Range(func(kind string, _ OpenFunc) bool {
		kinds = append(kinds, kind)
		return true
	})
	slices.Sort(kinds)
	return kinds
}
