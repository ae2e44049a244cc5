// Package decoders turns raw archive bytes into typed payloads, dispatching
// on the file extension.
package decoders

import (
	"path"
	"slices"
	"strings"

	"github.com/brettbedarf/resmgr"
	"github.com/puzpuzpuz/xsync/v4"
)

// Func adapts an ordinary function to [resmgr.Decoder]
type Func func(path string, data []byte) (any, error)

func (f Func) Decode(path string, data []byte) (any, error) {
	return f(path, data)
}

// Registry implements [resmgr.Decoder] by extension lookup.
// Paths without a registered extension go to the fallback decoder.
type Registry struct {
	byExt    *xsync.Map[string, resmgr.Decoder]
	fallback resmgr.Decoder
}

// NewRegistry creates a Registry that falls back to fallback, or to [Raw]
// when fallback is nil
func NewRegistry(fallback resmgr.Decoder) *Registry {
	if fallback == nil {
		fallback = Func(Raw)
	}
	return &Registry{
		byExt:    xsync.NewMap[string, resmgr.Decoder](),
		fallback: fallback,
	}
}

// NewDefaultRegistry returns a Registry with every built-in decoder
func NewDefaultRegistry() *Registry {
	r := NewRegistry(nil)
	RegisterBuiltins(r)
	return r
}

// Register binds dec to ext ("json", ".json" and "JSON" are equivalent).
// Later registrations replace earlier ones.
func (r *Registry) Register(ext string, dec resmgr.Decoder) {
	r.byExt.Store(normalizeExt(ext), dec)
}

// For returns the decoder p would be decoded with
func (r *Registry) For(p string) resmgr.Decoder {
	if dec, ok := r.byExt.Load(normalizeExt(path.Ext(p))); ok {
		return dec
	}
	return r.fallback
}

func (r *Registry) Decode(p string, data []byte) (any, error) {
	return r.For(p).Decode(p, data)
}

// Extensions returns the registered extensions in sorted order
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, r.byExt.Size())
	r.byExt.Range(func(ext string, _ resmgr.Decoder) bool {
		exts = append(exts, ext)
		return true
	})
	slices.Sort(exts)
	return exts
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

var _ resmgr.Decoder = (*Registry)(nil)
