// Package pathutil implements the single path-canonicalisation rule shared
// by chunk ids, call-edge file paths, and note mentions (spec invariant
// I6): forward-slash, UNC-prefix stripped, lexically cleaned. Symlink
// resolution to within the project root is the caller's responsibility
// (it requires filesystem access this package deliberately avoids, so it
// stays pure and testable).
package pathutil

import "strings"

// Normalize converts p to the project's canonical on-disk identity: a
// forward-slash path, stripped of a leading UNC prefix and any leading
// "./", with no trailing slash. Normalize("a/b") == Normalize(`a\b`) ==
// Normalize(`\\?\a\b`).
func Normalize(p string) string {
	p = strings.TrimPrefix(p, `\\?\`)
	p = strings.ReplaceAll(p, `\`, "/")

	// Collapse "./" segments and repeated slashes without touching ".."
	// (we canonicalise identity, not resolve the filesystem tree).
	segments := strings.Split(p, "/")
	out := make([]string, 0, len(segments))
	for i, seg := range segments {
		if seg == "" && i != 0 {
			continue
		}
		if seg == "." {
			continue
		}
		out = append(out, seg)
	}
	result := strings.Join(out, "/")
	result = strings.TrimSuffix(result, "/")
	return result
}

// Equal reports whether two paths refer to the same canonical identity,
// regardless of separator style. Used wherever the spec requires
// "separator-insensitive" comparison: note mentions vs. chunk origins (P8,
// end-to-end scenario 5), diff paths vs. stored origins.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// TrimCR strips a single trailing '\r' left behind by CRLF line endings,
// as required when parsing unified-diff path headers.
func TrimCR(s string) string {
	return strings.TrimSuffix(s, "\r")
}
