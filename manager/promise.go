package manager

import (
	"sync"

	"github.com/google/uuid"
)

// ResourcePromise is a handle to an in-flight or completed decode.
// Promises are not shared between requests: every LoadResourceAsync call
// gets its own, even for the same path.
type ResourcePromise struct {
	ID   string
	File *File // Underlying raw load; always completes before decode starts

	mu       sync.Mutex
	resource *Resource
	loaded   bool
	done     chan struct{}
}

func newPromise(f *File) *ResourcePromise {
	return &ResourcePromise{
		ID:   uuid.NewString(),
		File: f,
		done: make(chan struct{}),
	}
}

// resolve sets the outcome (nil for a failure) and releases waiters.
// Only the first call has an effect.
func (p *ResourcePromise) resolve(res *Resource) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return false
	}
	p.resource = res
	p.loaded = true
	close(p.done)
	return true
}

// HasResourceLoaded reports whether the promise completed.
// A completed promise may still hold a nil Resource.
func (p *ResourcePromise) HasResourceLoaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

// Resource returns the resolved Resource; nil while pending or on failure
func (p *ResourcePromise) Resource() *Resource {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resource
}

// Done returns a channel closed when the promise completes
func (p *ResourcePromise) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the promise completes and returns its Resource
func (p *ResourcePromise) Wait() *Resource {
	<-p.done
	return p.Resource()
}
