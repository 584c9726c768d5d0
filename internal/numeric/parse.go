// Package numeric parses free-form numeric text from product feeds.
// Feed values mix thousands and decimal separators ("1.234,56",
// "1,234.56", "12,50"), currency symbols, and non-breaking spaces; the
// ambiguity is resolved by last-separator position, never by locale
// configuration.
package numeric

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber converts free-form numeric text into a float value.
// Parameters:
//   - raw: numeric text as it appears in the feed.
// Returns:
//   - float64: parsed value when ok is true.
//   - bool: false if the input is empty (no value) or unparseable.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	// Keep digits, separators, and the sign; currency symbols, spaces,
	// and NBSP grouping are discarded.
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		// Both present: the rightmost separator is decimal, the other
		// is thousands grouping.
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		// Only commas: treat as decimal separator.
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ParseInteger converts free-form numeric text into an integer by
// truncating the parsed number.
// Parameters:
//   - raw: numeric text as it appears in the feed.
// Returns:
//   - int: truncated value when ok is true.
//   - bool: false if the input is empty or unparseable.
func ParseInteger(raw string) (int, bool) {
	v, ok := ParseNumber(raw)
	if !ok {
		return 0, false
	}
	return int(v), true
}
