package sqlmodel

import "strings"

// QuoteIdentifier quotes name as a PostgreSQL identifier.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteString quotes value as a PostgreSQL string literal. Backslashes are
// literal under standard_conforming_strings and need no escaping.
func QuoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}

// EscapeTemplate escapes braces so that s survives template rendering
// unchanged.
func EscapeTemplate(s string) string {
	s = strings.ReplaceAll(s, "{", "{{")
	return strings.ReplaceAll(s, "}", "}}")
}
