package catalog

import "strings"

// NormalizeHeader converts a raw source column name into a canonical
// comparison token: lowercased, trimmed, with any run of whitespace,
// hyphens, or underscores collapsed to a single underscore.
// Parameters:
//   - raw: source column name as it appears in the feed.
// Returns:
//   - string: normalized token. Normalization is idempotent.
func NormalizeHeader(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))

	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		if isSeparator(r) {
			if b.Len() > 0 {
				pendingSep = true
			}
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '-', '_', ' ':
		return true
	}
	return false
}
