// Package pathmatch implements the small glob dialect used by the safety
// policy's forbidden-path patterns. It supports exactly three pattern
// shapes:
//
//   - literal patterns, matched exactly or as a leading path prefix
//     ("node_modules" matches "node_modules/lodash/index.js")
//   - single-segment wildcards with "*", which never cross a "/"
//     ("*.pem" matches "server.pem" but not "certs/server.pem" unless the
//     pattern has no separator, in which case it applies to every segment)
//   - double wildcards with "**", which match any number of whole segments
//     ("**/secrets/**" matches "app/secrets/token.json")
//
// Matching is insensitive to path-separator style and character case:
// candidate paths are normalized to forward slashes and lower case before
// comparison.
package pathmatch

import "strings"

// Normalize converts a path to the canonical form used for matching:
// forward slashes, lower case, no leading "./" and no trailing "/".
func Normalize(path string) string {
	p := strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimSuffix(p, "/")
	return p
}

// Match reports whether path matches pattern. Both are normalized before
// comparison, so callers may pass raw user input.
func Match(path, pattern string) bool {
	p := Normalize(path)
	pat := Normalize(pattern)
	if p == "" || pat == "" {
		return false
	}

	// A pattern with no separator applies to every segment of the path,
	// so ".env" and "*.pem" are forbidden at any depth.
	if !strings.Contains(pat, "/") {
		for _, seg := range strings.Split(p, "/") {
			if matchSegment(seg, pat) {
				return true
			}
		}
		return false
	}

	return matchSegments(strings.Split(p, "/"), strings.Split(pat, "/"))
}

// MatchAny returns the first pattern in patterns that matches path,
// or "" and false if none match.
func MatchAny(path string, patterns []string) (string, bool) {
	for _, pat := range patterns {
		if Match(path, pat) {
			return pat, true
		}
	}
	return "", false
}

// matchSegments matches path segments against pattern segments. A "**"
// pattern segment consumes zero or more path segments; all other pattern
// segments are matched with single-segment wildcard rules. A pattern that
// matches a leading prefix of the path segments matches the whole path,
// mirroring literal prefix matching.
func matchSegments(segs, pats []string) bool {
	if len(pats) == 0 {
		// All pattern segments consumed: the pattern is an exact match
		// or a prefix of a deeper path.
		return true
	}
	if pats[0] == "**" {
		// Zero segments consumed, or one segment consumed with "**" kept.
		if matchSegments(segs, pats[1:]) {
			return true
		}
		if len(segs) > 0 && matchSegments(segs[1:], pats) {
			return true
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	if !matchSegment(segs[0], pats[0]) {
		return false
	}
	return matchSegments(segs[1:], pats[1:])
}

// matchSegment matches a single path segment against a single pattern
// segment, where "*" matches any run of characters within the segment.
func matchSegment(seg, pat string) bool {
	if !strings.Contains(pat, "*") {
		return seg == pat
	}

	parts := strings.Split(pat, "*")
	// Anchor the first and last literal chunks.
	if !strings.HasPrefix(seg, parts[0]) {
		return false
	}
	if !strings.HasSuffix(seg[len(parts[0]):], parts[len(parts)-1]) {
		return false
	}

	rest := seg[len(parts[0]) : len(seg)-len(parts[len(parts)-1])]
	for _, chunk := range parts[1 : len(parts)-1] {
		idx := strings.Index(rest, chunk)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(chunk):]
	}
	return true
}
