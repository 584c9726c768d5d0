// Package mapping matches raw feed headers against the canonical field
// catalog, producing confidence-scored column mappings.
package mapping

import (
	"strings"

	"github.com/oskarh/feedgate/internal/catalog"
)

// MatchRule identifies which matching rule produced a column mapping.
type MatchRule string

const (
	RuleExact         MatchRule = "exact"
	RuleAliasExact    MatchRule = "alias_exact"
	RuleAliasContains MatchRule = "alias_contains"
	RuleLabelContains MatchRule = "label_contains"
	RulePreset        MatchRule = "preset"
	RuleManual        MatchRule = "manual"
)

// Confidence scores per matching rule. alias_contains is scored by
// alias length relative to the header, bounded to [60, 85].
const (
	confidenceExact      = 100
	confidenceAliasExact = 95
	confidenceLabel      = 70
	confidenceContainsLo = 60
	confidenceContainsHi = 85

	// MinConfidence is the acceptance threshold; weaker candidates are
	// reported as unmatched headers instead.
	MinConfidence = 60
)

// ColumnMapping maps one source column onto one canonical field.
type ColumnMapping struct {
	SourceColumn   string    `json:"source_column"`
	CanonicalField string    `json:"canonical_field"`
	Confidence     int       `json:"confidence"`
	MatchedRule    MatchRule `json:"matched_rule"`
}

// Result holds the outcome of an auto-mapping run.
type Result struct {
	Mappings  []ColumnMapping `json:"mappings"`
	Unmatched []string        `json:"unmatched"`
}

// PresetSource is an optional read-only lookup consulted before
// heuristic matching, e.g. a versioned mapping-template store.
type PresetSource interface {
	// Lookup returns the canonical field a normalized header is preset
	// to, if any.
	Lookup(normalizedHeader string) (string, bool)
}

// Mapper matches source headers against a field catalog.
type Mapper struct {
	catalog *catalog.Catalog
	presets PresetSource
}

// NewMapper creates a Mapper for the given catalog.
// Parameters:
//   - cat: canonical field catalog to match against.
//   - presets: optional preset lookup; may be nil.
// Returns:
//   - *Mapper: mapper instance.
func NewMapper(cat *catalog.Catalog, presets PresetSource) *Mapper {
	return &Mapper{catalog: cat, presets: presets}
}

// Map auto-maps the given raw headers. Headers are processed in input
// order; once a canonical field is claimed it cannot be claimed again,
// so the earliest column wins ties. The manual map, if non-nil, claims
// its fields first and bypasses the confidence threshold.
// Parameters:
//   - headers: raw source headers in feed column order.
//   - manual: caller-supplied source column to canonical field overrides.
// Returns:
//   - *Result: accepted mappings plus unmatched headers.
func (m *Mapper) Map(headers []string, manual map[string]string) *Result {
	res := &Result{}
	claimed := make(map[string]bool)

	// Caller overrides take precedence over everything else.
	for _, header := range headers {
		field, ok := manual[header]
		if !ok || field == "" {
			continue
		}
		if _, known := m.catalog.Get(field); !known || claimed[field] {
			continue
		}
		claimed[field] = true
		res.Mappings = append(res.Mappings, ColumnMapping{
			SourceColumn:   header,
			CanonicalField: field,
			Confidence:     confidenceExact,
			MatchedRule:    RuleManual,
		})
	}

	for _, header := range headers {
		if _, ok := manual[header]; ok {
			continue
		}

		normalized := catalog.NormalizeHeader(header)
		best := m.bestCandidate(normalized, claimed)

		if best == nil || best.Confidence < MinConfidence {
			res.Unmatched = append(res.Unmatched, header)
			continue
		}

		best.SourceColumn = header
		claimed[best.CanonicalField] = true
		res.Mappings = append(res.Mappings, *best)
	}

	return res
}

// bestCandidate scans unclaimed catalog fields and keeps the single
// highest-confidence candidate; ties keep the first found.
func (m *Mapper) bestCandidate(normalized string, claimed map[string]bool) *ColumnMapping {
	if normalized == "" {
		return nil
	}

	if m.presets != nil {
		if field, ok := m.presets.Lookup(normalized); ok {
			if _, known := m.catalog.Get(field); known && !claimed[field] {
				return &ColumnMapping{
					CanonicalField: field,
					Confidence:     confidenceExact,
					MatchedRule:    RulePreset,
				}
			}
		}
	}

	var best *ColumnMapping
	consider := func(field string, confidence int, rule MatchRule) {
		if best == nil || confidence > best.Confidence {
			best = &ColumnMapping{
				CanonicalField: field,
				Confidence:     confidence,
				MatchedRule:    rule,
			}
		}
	}

	for _, fd := range m.catalog.Fields() {
		if claimed[fd.CanonicalName] {
			continue
		}

		if normalized == catalog.NormalizeHeader(fd.CanonicalName) {
			consider(fd.CanonicalName, confidenceExact, RuleExact)
			continue
		}

		matchedAlias := false
		for _, alias := range fd.Aliases {
			na := catalog.NormalizeHeader(alias)
			if na == "" {
				continue
			}
			if normalized == na {
				consider(fd.CanonicalName, confidenceAliasExact, RuleAliasExact)
				matchedAlias = true
				break
			}
			if strings.Contains(normalized, na) || strings.Contains(na, normalized) {
				consider(fd.CanonicalName, containsConfidence(na, normalized), RuleAliasContains)
				matchedAlias = true
			}
		}
		if matchedAlias {
			continue
		}

		label := catalog.NormalizeHeader(fd.DisplayLabel)
		if label != "" && (strings.Contains(normalized, label) || strings.Contains(label, normalized)) {
			consider(fd.CanonicalName, confidenceLabel, RuleLabelContains)
		}
	}

	return best
}

// containsConfidence scores a partial alias match by how much of the
// header the alias covers: 60 + ratio*25, capped at 85.
func containsConfidence(normalizedAlias, normalizedHeader string) int {
	if len(normalizedHeader) == 0 {
		return confidenceContainsLo
	}
	c := confidenceContainsLo + int(float64(len(normalizedAlias))/float64(len(normalizedHeader))*25)
	if c > confidenceContainsHi {
		return confidenceContainsHi
	}
	if c < confidenceContainsLo {
		return confidenceContainsLo
	}
	return c
}

// MissingRequired returns the required canonical fields left unmapped
// by the given result. A non-empty return is a blocking precondition:
// validation must not proceed until the caller maps them.
// Parameters:
//   - res: mapping result to inspect.
//   - cat: field catalog defining required fields.
// Returns:
//   - []string: unmapped required canonical names, in catalog order.
func MissingRequired(res *Result, cat *catalog.Catalog) []string {
	mapped := make(map[string]bool, len(res.Mappings))
	for _, m := range res.Mappings {
		mapped[m.CanonicalField] = true
	}
	var missing []string
	for _, name := range cat.Required() {
		if !mapped[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
