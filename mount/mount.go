// Package mount exposes an archive as a read-only FUSE filesystem whose reads
// go through the resource manager's file cache.
package mount

import (
	"fmt"

	"github.com/brettbedarf/resmgr/config"
	"github.com/brettbedarf/resmgr/internal/util"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// ArchiveFS is a mountable view of a fixed set of archive paths
type ArchiveFS struct {
	root   *rootNode
	opts   config.MountOptions
	server *fuse.Server
}

// New creates an ArchiveFS over paths, loading file contents through loader
func New(opts config.MountOptions, loader FileLoader, paths []string) *ArchiveFS {
	return &ArchiveFS{
		root: &rootNode{loader: loader, tree: buildTree(paths)},
		opts: opts,
	}
}

// Serve mounts the filesystem at mountPoint and returns once it is ready
func (a *ArchiveFS) Serve(mountPoint string) error {
	logger := util.GetLogger("Mount")
	srv, err := fs.Mount(mountPoint, a.root, &fs.Options{
		MountOptions: fuse.MountOptions{
			Name:   a.opts.Name,
			FsName: a.opts.FsName,
			Debug:  a.opts.Debug,
			Logger: util.NewLogLogger("FuseServer", util.DebugLevel),
		},
	})
	if err != nil {
		return fmt.Errorf("mount %s: %w", mountPoint, err)
	}
	a.server = srv
	logger.Info().Str("mountpoint", mountPoint).Msg("Archive mounted")
	return nil
}

func (a *ArchiveFS) ServeAsync(mountPoint string) <-chan error {
	done := make(chan error, 1)

	go func() {
		done <- a.Serve(mountPoint)
		close(done)
	}()

	return done
}

// Wait blocks until the filesystem is unmounted
func (a *ArchiveFS) Wait() {
	if a.server != nil {
		a.server.Wait()
	}
}

// Unmount cleanly unmounts the filesystem.
func (a *ArchiveFS) Unmount() error {
	if a.server == nil {
		return nil
	}
	return a.server.Unmount()
}
