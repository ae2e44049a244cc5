package manager

import "sync/atomic"

// Resource is a decoded artifact. It keeps its originating File alive for as
// long as it is held.
type Resource struct {
	File    *File
	Payload any // Decoder specific

	dirty atomic.Bool
}

// Path returns the normalized path the Resource was decoded from
func (r *Resource) Path() string {
	return r.File.Path
}

// IsDirty reports whether the next request must decode again.
// A nil Resource is never dirty.
func (r *Resource) IsDirty() bool {
	return r != nil && r.dirty.Load()
}

// MarkDirty forces the next request for this path to decode again.
// The Resource itself stays valid for current holders.
func (r *Resource) MarkDirty() {
	r.dirty.Store(true)
}
