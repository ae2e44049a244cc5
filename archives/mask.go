package archives

import (
	"strings"

	"github.com/brettbedarf/resmgr"
)

// MatchMask reports whether name matches mask. '*' matches any run of
// characters including '/', '?' matches exactly one character. Matching is
// case-insensitive and both sides are cleaned first, so either separator
// style is accepted.
func MatchMask(mask, name string) bool {
	m := []rune(strings.ToLower(cleanMask(mask)))
	n := []rune(strings.ToLower(resmgr.CleanPath(name)))

	// Greedy match with a single backtrack point at the last '*'
	mi, ni := 0, 0
	star, mark := -1, 0
	for ni < len(n) {
		switch {
		case mi < len(m) && (m[mi] == '?' || m[mi] == n[ni]):
			mi++
			ni++
		case mi < len(m) && m[mi] == '*':
			star, mark = mi, ni
			mi++
		case star >= 0:
			mi = star + 1
			mark++
			ni = mark
		default:
			return false
		}
	}
	for mi < len(m) && m[mi] == '*' {
		mi++
	}
	return mi == len(m)
}

// cleanMask normalizes a mask like a path; an empty mask matches everything
func cleanMask(mask string) string {
	mask = resmgr.CleanPath(mask)
	if mask == "" {
		return "*"
	}
	return mask
}
