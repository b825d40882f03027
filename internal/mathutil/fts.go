package mathutil

import "strings"

// ftsOperators are the FTS5 query-syntax characters spec §4.2 requires
// stripped before a user string reaches a MATCH expression: "the query
// is sanitised (all FTS5 operator characters removed) and quoted."
const ftsOperators = `^*"'():-`

// SanitizeFTSQuery strips FTS5 operator characters from q and wraps each
// remaining whitespace-separated term in double quotes so it is matched
// as a literal phrase, never as column-filter or boolean syntax. Passing
// the result straight into a parameterised `MATCH ?` bind is always
// safe: no user-supplied string is interpolated before this runs.
func SanitizeFTSQuery(q string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(ftsOperators, r) {
			return -1
		}
		return r
	}, q)

	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return ""
	}
	for i, f := range fields {
		fields[i] = `"` + f + `"`
	}
	return strings.Join(fields, " ")
}
