package mount

import (
	"context"
	"syscall"

	"github.com/brettbedarf/resmgr/internal/util"
	"github.com/brettbedarf/resmgr/manager"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// FileLoader is the part of the manager the mount reads through
type FileLoader interface {
	LoadFile(path string) *manager.File
}

// rootNode builds the whole read-only tree when it is mounted
type rootNode struct {
	fs.Inode
	loader FileLoader
	tree   *dirEntry
}

var _ = (fs.NodeOnAdder)((*rootNode)(nil))

func (r *rootNode) OnAdd(ctx context.Context) {
	r.addDir(ctx, &r.Inode, r.tree)
}

func (r *rootNode) addDir(ctx context.Context, parent *fs.Inode, dir *dirEntry) {
	for _, name := range dir.dirNames() {
		child := parent.NewPersistentInode(ctx, &fs.Inode{}, fs.StableAttr{Mode: fuse.S_IFDIR})
		parent.AddChild(name, child, false)
		r.addDir(ctx, child, dir.dirs[name])
	}
	for _, name := range dir.fileNames() {
		node := &fileNode{loader: r.loader, path: dir.files[name]}
		child := parent.NewPersistentInode(ctx, node, fs.StableAttr{Mode: fuse.S_IFREG})
		parent.AddChild(name, child, false)
	}
}

// fileNode is a read-only archive entry backed by the manager's FileCache
type fileNode struct {
	fs.Inode
	loader FileLoader
	path   string
}

var (
	_ = (fs.NodeGetattrer)((*fileNode)(nil))
	_ = (fs.NodeOpener)((*fileNode)(nil))
	_ = (fs.NodeReader)((*fileNode)(nil))
)

func (n *fileNode) load() ([]byte, syscall.Errno) {
	f := n.loader.LoadFile(n.path)
	if f.HasLoadError() {
		logger := util.GetLogger("Mount")
		logger.Error().Err(f.Err()).Str("path", n.path).Msg("Failed to load file")
		return nil, syscall.EIO
	}
	return f.Data(), 0
}

func (n *fileNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	data, errno := n.load()
	if errno != 0 {
		return errno
	}
	out.Mode = fuse.S_IFREG | 0o444
	out.Size = uint64(len(data))
	return 0
}

func (n *fileNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (n *fileNode) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, errno := n.load()
	if errno != 0 {
		return nil, errno
	}
	return fuse.ReadResultData(sliceAt(data, dest, off)), 0
}

// sliceAt returns the part of data a read of len(dest) bytes at off sees
func sliceAt(data, dest []byte, off int64) []byte {
	if off < 0 || off >= int64(len(data)) {
		return nil
	}
	end := off + int64(len(dest))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return data[off:end]
}
