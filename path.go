package resmgr

import (
	"path"
	"strings"
)

// CleanPath converts an archive path to its canonical form: forward slashes,
// no leading slash, cleaned of "." and duplicate separators.
// Returns "" for an empty or root path.
func CleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return p
}
