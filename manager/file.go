package manager

import (
	"sync"

	"github.com/google/uuid"
)

// File is the raw bytes of one archive path.
//
// A File starts pending and completes exactly once, either loaded or with a
// load error. Completion is never undone and the data is immutable afterwards,
// so a completed File can be shared freely between goroutines.
type File struct {
	ID   string // Session-unique id for log correlation
	Path string // Normalized cache key
	Hash uint64 // Archive hash of Path

	mu      sync.Mutex // Protects the fields below
	data    []byte
	loaded  bool
	loadErr error
	done    chan struct{} // Closed on completion
}

func newFile(path string, hash uint64) *File {
	return &File{
		ID:   uuid.NewString(),
		Path: path,
		Hash: hash,
		done: make(chan struct{}),
	}
}

// complete records the outcome and releases all waiters.
// Only the first call has an effect; returns false for later calls.
func (f *File) complete(data []byte, err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded || f.loadErr != nil {
		return false
	}
	if err != nil {
		f.loadErr = err
	} else {
		f.data = data
		f.loaded = true
	}
	close(f.done)
	return true
}

// IsLoaded reports whether the raw bytes are available
func (f *File) IsLoaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

// HasLoadError reports whether the load failed
func (f *File) HasLoadError() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadErr != nil
}

// Err returns the load error, or nil if pending or loaded
func (f *File) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadErr
}

// Data returns the raw bytes once loaded; nil otherwise.
// The returned slice is shared and must not be modified.
func (f *File) Data() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data
}

// Done returns a channel closed when the File completes
func (f *File) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the File completes, successfully or not
func (f *File) Wait() *File {
	<-f.done
	return f
}
