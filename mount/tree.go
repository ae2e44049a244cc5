package mount

import (
	"slices"
	"strings"

	"github.com/brettbedarf/resmgr"
)

// dirEntry is one directory of the archive tree; files map names to their
// full archive paths
type dirEntry struct {
	dirs  map[string]*dirEntry
	files map[string]string
}

func newDirEntry() *dirEntry {
	return &dirEntry{dirs: map[string]*dirEntry{}, files: map[string]string{}}
}

// buildTree arranges archive paths into directories. A name used both as a
// file and as a directory stays a directory.
func buildTree(paths []string) *dirEntry {
	root := newDirEntry()
	for _, p := range paths {
		p = resmgr.CleanPath(p)
		if p == "" {
			continue
		}
		parts := strings.Split(p, "/")
		cur := root
		for _, dir := range parts[:len(parts)-1] {
			next, ok := cur.dirs[dir]
			if !ok {
				next = newDirEntry()
				cur.dirs[dir] = next
				delete(cur.files, dir)
			}
			cur = next
		}
		name := parts[len(parts)-1]
		if _, isDir := cur.dirs[name]; !isDir {
			cur.files[name] = p
		}
	}
	return root
}

func (d *dirEntry) dirNames() []string {
	names := make([]string, 0, len(d.dirs))
	for name := range d.dirs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (d *dirEntry) fileNames() []string {
	names := make([]string, 0, len(d.files))
	for name := range d.files {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
