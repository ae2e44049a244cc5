package archives

import (
	"slices"
	"strings"

	"github.com/brettbedarf/resmgr"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/spaolacci/murmur3"
)

// HashPath returns the archive hash of p: murmur3 over the cleaned,
// lower-cased path. Equal for every spelling that names the same entry.
func HashPath(p string) uint64 {
	return murmur3.Sum64([]byte(strings.ToLower(resmgr.CleanPath(p))))
}

// Index is the immutable path table of an archive. Lookups are
// case-insensitive and go through the path hash.
type Index struct {
	paths  []string                    // Sorted stored names
	byHash *xsync.Map[uint64, string] // HashPath(name) -> stored name
}

// NewIndex builds an Index over the given entry names. Names are cleaned;
// empty names and case-insensitive duplicates (first wins) are dropped.
func NewIndex(names []string) *Index {
	idx := &Index{byHash: xsync.NewMap[uint64, string]()}
	for _, name := range names {
		name = resmgr.CleanPath(name)
		if name == "" {
			continue
		}
		if _, loaded := idx.byHash.LoadOrStore(HashPath(name), name); loaded {
			continue
		}
		idx.paths = append(idx.paths, name)
	}
	slices.Sort(idx.paths)
	return idx
}

// Resolve returns the stored name for p
func (idx *Index) Resolve(p string) (string, bool) {
	return idx.byHash.Load(HashPath(p))
}

// List returns the stored names matching mask in sorted order
func (idx *Index) List(mask string) []string {
	var out []string
	for _, name := range idx.paths {
		if MatchMask(mask, name) {
			out = append(out, name)
		}
	}
	return out
}

// HashToString resolves a hash produced by [HashPath]
func (idx *Index) HashToString(hash uint64) (string, bool) {
	return idx.byHash.Load(hash)
}

// Paths returns every stored name in sorted order
func (idx *Index) Paths() []string {
	return slices.Clone(idx.paths)
}

func (idx *Index) Len() int {
	return idx.byHash.Size()
}
