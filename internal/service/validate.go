package service

import (
	"fmt"
	"strings"

	"github.com/oskarh/feedgate/internal/catalog"
	"github.com/oskarh/feedgate/internal/mapping"
	"github.com/oskarh/feedgate/internal/numeric"
)

// Severity classifies a validation finding. Findings with SeverityError
// block the row; SeverityWarning findings are reported but do not block.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Bucket groups findings for reporting. Bucketing is presentation-only
// and never changes blocking semantics.
type Bucket string

const (
	BucketRequired Bucket = "required"
	BucketFormat   Bucket = "format"
	BucketWarning  Bucket = "warning"
)

// Finding records one validation issue on one row/field pair.
type Finding struct {
	RowNumber int      `json:"row_number"`
	Field     string   `json:"field"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
	Bucket    Bucket   `json:"bucket"`
	RawValue  string   `json:"raw_value,omitempty"`
}

// Candidate is the strongly-typed record produced from a row with no
// blocking findings. It is never mutated after creation; duplicate and
// skip decisions are tracked alongside it, not written into it.
type Candidate struct {
	RowNumber      int
	Name           string
	Description    string
	SKU            string
	Category       string
	Brand          string
	ImageURL       string
	Tags           []string
	Price          float64
	CompareAtPrice float64
	Weight         float64
	StockQuantity  int
}

// Validator applies required-field and numeric-format rules to mapped
// rows, converting the loose header-keyed map into a Candidate at the
// boundary.
type Validator struct {
	catalog *catalog.Catalog
}

// NewValidator creates a Validator for the given field catalog.
// Parameters:
//   - cat: canonical field catalog defining required fields.
// Returns:
//   - *Validator: validator instance.
func NewValidator(cat *catalog.Catalog) *Validator {
	return &Validator{catalog: cat}
}

// ValidateRow validates a single raw row under the accepted mapping.
// Parameters:
//   - rowNumber: 1-based source row number for traceability.
//   - row: raw header-keyed values.
//   - mappings: accepted column mappings projecting row onto canonical fields.
// Returns:
//   - *Candidate: typed record, nil if any error-severity finding was produced.
//   - []Finding: zero or more findings for the row.
func (v *Validator) ValidateRow(rowNumber int, row map[string]string, mappings []mapping.ColumnMapping) (*Candidate, []Finding) {
	// Project raw values onto canonical fields; unmapped columns
	// contribute nothing.
	values := make(map[string]string, len(mappings))
	for _, m := range mappings {
		values[m.CanonicalField] = strings.TrimSpace(row[m.SourceColumn])
	}

	var findings []Finding

	for _, name := range v.catalog.Required() {
		if values[name] == "" {
			fd, _ := v.catalog.Get(name)
			findings = append(findings, Finding{
				RowNumber: rowNumber,
				Field:     name,
				Message:   fmt.Sprintf("%s is required", fd.DisplayLabel),
				Severity:  SeverityError,
				Bucket:    BucketRequired,
			})
		}
	}

	c := &Candidate{
		RowNumber:   rowNumber,
		Name:        values[catalog.FieldName],
		Description: values[catalog.FieldDescription],
		SKU:         values[catalog.FieldSKU],
		Category:    values[catalog.FieldCategory],
		Brand:       values[catalog.FieldBrand],
		ImageURL:    values[catalog.FieldImageURL],
		Tags:        splitTags(values[catalog.FieldTags]),
	}

	// Price-like fields block the row when present but unparseable.
	c.Price, findings = v.parsePrice(rowNumber, catalog.FieldPrice, values[catalog.FieldPrice], findings)
	c.CompareAtPrice, findings = v.parsePrice(rowNumber, catalog.FieldCompareAtPrice, values[catalog.FieldCompareAtPrice], findings)

	// Quantity-like fields are soft: a bad value is a warning and the
	// candidate receives the zero default.
	if raw := values[catalog.FieldStockQuantity]; raw != "" {
		if qty, ok := numeric.ParseInteger(raw); ok {
			c.StockQuantity = qty
		} else {
			findings = append(findings, Finding{
				RowNumber: rowNumber,
				Field:     catalog.FieldStockQuantity,
				Message:   "stock quantity is not a number, defaulting to 0",
				Severity:  SeverityWarning,
				Bucket:    BucketWarning,
				RawValue:  raw,
			})
		}
	}
	if raw := values[catalog.FieldWeight]; raw != "" {
		if w, ok := numeric.ParseNumber(raw); ok {
			c.Weight = w
		} else {
			findings = append(findings, Finding{
				RowNumber: rowNumber,
				Field:     catalog.FieldWeight,
				Message:   "weight is not a number, defaulting to 0",
				Severity:  SeverityWarning,
				Bucket:    BucketWarning,
				RawValue:  raw,
			})
		}
	}

	for _, f := range findings {
		if f.Severity == SeverityError {
			return nil, findings
		}
	}
	return c, findings
}

// parsePrice parses a price-like value, appending an error finding when
// a non-empty value fails to parse.
func (v *Validator) parsePrice(rowNumber int, field, raw string, findings []Finding) (float64, []Finding) {
	if raw == "" {
		return 0, findings
	}
	value, ok := numeric.ParseNumber(raw)
	if !ok {
		fd, _ := v.catalog.Get(field)
		return 0, append(findings, Finding{
			RowNumber: rowNumber,
			Field:     field,
			Message:   fmt.Sprintf("%s is not a valid number", fd.DisplayLabel),
			Severity:  SeverityError,
			Bucket:    BucketFormat,
			RawValue:  raw,
		})
	}
	return value, findings
}

// splitTags splits a delimited tag list on commas and semicolons.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	var tags []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
