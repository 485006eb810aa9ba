package repository

import (
	"regexp"
	"strings"
)

// tableKeyReplacer substitutes the characters the table store rejects in
// partition and row keys.
var tableKeyReplacer = strings.NewReplacer(`\`, "_", "/", "_", "#", "_", "?", "_")

// safeFilterPattern is the allow-list for values interpolated into store
// filter expressions.
var safeFilterPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ToTableKey converts a value into a safe partition/row key by replacing
// every `\`, `/`, `#` and `?` with an underscore. It is deterministic, total
// and idempotent on already-safe strings.
func ToTableKey(value string) string {
	return tableKeyReplacer.Replace(value)
}

// ValidateFilterValue reports whether a value is safe to use when building a
// store filter expression. Only letters, digits, hyphen and underscore are
// allowed; the empty string is rejected.
func ValidateFilterValue(value string) bool {
	return safeFilterPattern.MatchString(value)
}

// EscapeQuotes doubles literal single quotes in a filter value. Values reach
// the store allow-list checked, so this is a second guard on the same
// boundary.
func EscapeQuotes(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}
