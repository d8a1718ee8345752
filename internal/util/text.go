package util

import "strings"

// SanitizePostgresText drops invalid UTF-8 and NUL bytes, both of which
// Postgres rejects in text columns.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// SanitizePostgresRow applies SanitizePostgresText to every value.
func SanitizePostgresRow(values ...string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = SanitizePostgresText(v)
	}
	return out
}
