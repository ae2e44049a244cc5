// Package resmgr contains the core domain interfaces and errors for the
// archive resource manager
package resmgr

import (
	"context"
	"errors"
)

var (
	// ErrFileNotFound is returned (wrapped) by an [Archive] when a path has no entry
	ErrFileNotFound = errors.New("file not found")

	// ErrDecodeFailure is returned (wrapped) by a [Decoder] that could not turn
	// raw bytes into a resource, and recorded for decodes of failed files
	ErrDecodeFailure = errors.New("decode failure")

	// ErrShutdownAbandoned marks work that was still queued when the manager stopped
	ErrShutdownAbandoned = errors.New("abandoned at shutdown")

	// ErrNotRunning marks work requested while the manager is stopped
	ErrNotRunning = errors.New("resource manager not running")
)

// Archive resolves archive-relative paths to raw bytes.
// Implementations must be safe for concurrent reads.
type Archive interface {
	// Fetch returns the raw bytes stored for path.
	// Returns an error wrapping [ErrFileNotFound] if there is no such entry
	Fetch(ctx context.Context, path string) ([]byte, error)

	// List returns the paths matching mask in a stable order
	List(mask string) ([]string, error)

	// Hash returns a stable identifier for path
	Hash(path string) uint64

	// HashToString resolves a hash produced by Hash back to its path
	HashToString(hash uint64) (string, bool)

	Close() error
}

// Decoder turns raw bytes into a typed resource payload.
// The payload is opaque to the resource manager.
type Decoder interface {
	Decode(path string, data []byte) (any, error)
}
