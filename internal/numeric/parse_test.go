package numeric

import (
	"testing"
)

// TestParseNumber verifies separator disambiguation and symbol stripping
func TestParseNumber(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{
			name:  "plain integer",
			input: "10",
			want:  10,
			ok:    true,
		},
		{
			name:  "dot decimal",
			input: "12.50",
			want:  12.50,
			ok:    true,
		},
		{
			name:  "comma decimal",
			input: "12,50",
			want:  12.50,
			ok:    true,
		},
		{
			name:  "european thousands with comma decimal",
			input: "1.234,56",
			want:  1234.56,
			ok:    true,
		},
		{
			name:  "us thousands with dot decimal",
			input: "1,234.56",
			want:  1234.56,
			ok:    true,
		},
		{
			name:  "multiple thousands groups",
			input: "1.234.567,89",
			want:  1234567.89,
			ok:    true,
		},
		{
			name:  "currency symbol",
			input: "€ 1.299,00",
			want:  1299,
			ok:    true,
		},
		{
			name:  "dollar prefix",
			input: "$1,299.00",
			want:  1299,
			ok:    true,
		},
		{
			name:  "non-breaking space grouping",
			input: "1 234,56",
			want:  1234.56,
			ok:    true,
		},
		{
			name:  "negative comma decimal",
			input: "-12,5",
			want:  -12.5,
			ok:    true,
		},
		{
			name:  "empty",
			input: "",
			ok:    false,
		},
		{
			name:  "whitespace only",
			input: "   ",
			ok:    false,
		},
		{
			name:  "no digits",
			input: "abc",
			ok:    false,
		},
		{
			name:  "malformed separators",
			input: "1.2.3",
			ok:    false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseNumber(tc.input)
			if ok != tc.ok {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

// TestParseInteger verifies conversion truncates fractional values
func TestParseInteger(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  int
		ok    bool
	}{
		{
			name:  "plain integer",
			input: "42",
			want:  42,
			ok:    true,
		},
		{
			name:  "truncates fraction",
			input: "12,9",
			want:  12,
			ok:    true,
		},
		{
			name:  "lone dot is decimal",
			input: "1.000",
			want:  1,
			ok:    true,
		},
		{
			name:  "unparseable",
			input: "n/a",
			ok:    false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseInteger(tc.input)
			if ok != tc.ok {
				t.Fatalf("ParseInteger(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Errorf("ParseInteger(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}
