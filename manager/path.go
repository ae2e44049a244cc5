package manager

import (
	"strings"

	"github.com/brettbedarf/resmgr"
)

// NormalizePath returns the cache key for a requested path.
// Either separator style is accepted and an optional archive-scheme prefix
// (i.e. "__OTR__") is stripped before cleaning.
func NormalizePath(p string, prefix string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if prefix != "" {
		prefix = strings.ReplaceAll(prefix, "\\", "/")
		p = strings.TrimPrefix(p, prefix)
	}
	return resmgr.CleanPath(p)
}
