package service

import (
	"reflect"
	"testing"

	"github.com/oskarh/feedgate/internal/catalog"
	"github.com/oskarh/feedgate/internal/mapping"
)

func testMappings(fields map[string]string) []mapping.ColumnMapping {
	var out []mapping.ColumnMapping
	for column, field := range fields {
		out = append(out, mapping.ColumnMapping{
			SourceColumn:   column,
			CanonicalField: field,
			Confidence:     100,
			MatchedRule:    mapping.RuleManual,
		})
	}
	return out
}

// TestValidateRowAccepted verifies a clean row produces a typed candidate
func TestValidateRowAccepted(t *testing.T) {
	v := NewValidator(catalog.Default())
	mappings := testMappings(map[string]string{
		"Title":    catalog.FieldName,
		"Price":    catalog.FieldPrice,
		"SKU":      catalog.FieldSKU,
		"Stock":    catalog.FieldStockQuantity,
		"Weight":   catalog.FieldWeight,
		"Keywords": catalog.FieldTags,
	})

	row := map[string]string{
		"Title":    "  Widget  ",
		"Price":    "1.234,56",
		"SKU":      "W-1",
		"Stock":    "5",
		"Weight":   "0,75",
		"Keywords": "tools, outdoor; sale",
	}

	c, findings := v.ValidateRow(3, row, mappings)
	if c == nil {
		t.Fatalf("expected candidate, got findings %+v", findings)
	}
	if len(findings) != 0 {
		t.Errorf("unexpected findings: %+v", findings)
	}
	if c.RowNumber != 3 {
		t.Errorf("row number = %d, want 3", c.RowNumber)
	}
	if c.Name != "Widget" {
		t.Errorf("name = %q, want trimmed %q", c.Name, "Widget")
	}
	if c.Price != 1234.56 {
		t.Errorf("price = %v, want 1234.56", c.Price)
	}
	if c.StockQuantity != 5 {
		t.Errorf("stock = %d, want 5", c.StockQuantity)
	}
	if c.Weight != 0.75 {
		t.Errorf("weight = %v, want 0.75", c.Weight)
	}
	if !reflect.DeepEqual(c.Tags, []string{"tools", "outdoor", "sale"}) {
		t.Errorf("tags = %v", c.Tags)
	}
}

// TestValidateRowMissingRequired verifies empty mandatory values block the row
func TestValidateRowMissingRequired(t *testing.T) {
	v := NewValidator(catalog.Default())
	mappings := testMappings(map[string]string{
		"Title": catalog.FieldName,
		"Price": catalog.FieldPrice,
	})

	c, findings := v.ValidateRow(1, map[string]string{
		"Title": "   ",
		"Price": "9.99",
	}, mappings)

	if c != nil {
		t.Fatalf("expected blocked row, got candidate %+v", c)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", findings)
	}
	f := findings[0]
	if f.Field != catalog.FieldName || f.Severity != SeverityError || f.Bucket != BucketRequired {
		t.Errorf("finding = %+v", f)
	}
}

// TestValidateRowBadPriceBlocks verifies unparseable price-like values
// are errors carrying the raw value
func TestValidateRowBadPriceBlocks(t *testing.T) {
	v := NewValidator(catalog.Default())
	mappings := testMappings(map[string]string{
		"Title": catalog.FieldName,
		"Price": catalog.FieldPrice,
	})

	c, findings := v.ValidateRow(2, map[string]string{
		"Title": "Widget",
		"Price": "call us",
	}, mappings)

	if c != nil {
		t.Fatalf("expected blocked row, got candidate %+v", c)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", findings)
	}
	f := findings[0]
	if f.Severity != SeverityError || f.Bucket != BucketFormat || f.RawValue != "call us" {
		t.Errorf("finding = %+v", f)
	}
}

// TestValidateRowEmptyOptionalPrice verifies an empty optional price is
// not an error
func TestValidateRowEmptyOptionalPrice(t *testing.T) {
	v := NewValidator(catalog.Default())
	mappings := testMappings(map[string]string{
		"Title":   catalog.FieldName,
		"Price":   catalog.FieldPrice,
		"Compare": catalog.FieldCompareAtPrice,
	})

	c, findings := v.ValidateRow(1, map[string]string{
		"Title":   "Widget",
		"Price":   "9.99",
		"Compare": "",
	}, mappings)

	if c == nil {
		t.Fatalf("expected candidate, got findings %+v", findings)
	}
	if c.CompareAtPrice != 0 {
		t.Errorf("compareAtPrice = %v, want 0", c.CompareAtPrice)
	}
}

// TestValidateRowBadQuantityWarns verifies quantity-like fields degrade
// to zero with a warning instead of blocking
func TestValidateRowBadQuantityWarns(t *testing.T) {
	v := NewValidator(catalog.Default())
	mappings := testMappings(map[string]string{
		"Title":  catalog.FieldName,
		"Price":  catalog.FieldPrice,
		"Stock":  catalog.FieldStockQuantity,
		"Weight": catalog.FieldWeight,
	})

	c, findings := v.ValidateRow(4, map[string]string{
		"Title":  "Widget",
		"Price":  "9.99",
		"Stock":  "many",
		"Weight": "heavy",
	}, mappings)

	if c == nil {
		t.Fatalf("expected candidate despite warnings, got findings %+v", findings)
	}
	if c.StockQuantity != 0 || c.Weight != 0 {
		t.Errorf("expected zero defaults, got stock=%d weight=%v", c.StockQuantity, c.Weight)
	}
	if len(findings) != 2 {
		t.Fatalf("expected 2 warnings, got %+v", findings)
	}
	for _, f := range findings {
		if f.Severity != SeverityWarning || f.Bucket != BucketWarning {
			t.Errorf("finding = %+v", f)
		}
	}
}

// TestValidateRowUnmappedColumnsIgnored verifies values outside the
// mapping never reach the candidate
func TestValidateRowUnmappedColumnsIgnored(t *testing.T) {
	v := NewValidator(catalog.Default())
	mappings := testMappings(map[string]string{
		"Title": catalog.FieldName,
		"Price": catalog.FieldPrice,
	})

	c, _ := v.ValidateRow(1, map[string]string{
		"Title":       "Widget",
		"Price":       "9.99",
		"Description": "should not leak",
	}, mappings)

	if c == nil {
		t.Fatal("expected candidate")
	}
	if c.Description != "" {
		t.Errorf("description leaked: %q", c.Description)
	}
}
