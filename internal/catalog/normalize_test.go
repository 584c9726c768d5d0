package catalog

import (
	"testing"
)

// TestNormalizeHeader verifies separator collapsing and case folding
func TestNormalizeHeader(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already normalized",
			input: "product_name",
			want:  "product_name",
		},
		{
			name:  "spaces and case",
			input: "  Product Name  ",
			want:  "product_name",
		},
		{
			name:  "hyphens",
			input: "Product-Name",
			want:  "product_name",
		},
		{
			name:  "mixed separator run collapses to one underscore",
			input: "Product - _  Name",
			want:  "product_name",
		},
		{
			name:  "non-breaking space",
			input: "Product Name",
			want:  "product_name",
		},
		{
			name:  "leading and trailing separators trimmed",
			input: "__sku__",
			want:  "sku",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "only separators",
			input: " -_- ",
			want:  "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeHeader(tc.input)
			if got != tc.want {
				t.Errorf("NormalizeHeader(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

// TestNormalizeHeaderIdempotent verifies normalizing twice changes nothing
func TestNormalizeHeaderIdempotent(t *testing.T) {
	inputs := []string{"Product Name", "variant-SKU", "  Stock  Quantity ", "price", "Größe (EU)"}
	for _, input := range inputs {
		once := NormalizeHeader(input)
		twice := NormalizeHeader(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first=%q, second=%q", input, once, twice)
		}
	}
}
