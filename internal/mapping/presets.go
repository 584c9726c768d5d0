package mapping

import "github.com/oskarh/feedgate/internal/catalog"

// StaticPresets is a PresetSource backed by a fixed header-to-field
// map, typically loaded from configuration. Keys are normalized on
// construction so callers can supply headers in feed spelling.
type StaticPresets struct {
	byHeader map[string]string
}

// NewStaticPresets builds a StaticPresets from a raw header to
// canonical field map.
// Parameters:
//   - presets: raw source header to canonical field name entries.
// Returns:
//   - *StaticPresets: preset source; nil if presets is empty.
func NewStaticPresets(presets map[string]string) *StaticPresets {
	if len(presets) == 0 {
		return nil
	}
	byHeader := make(map[string]string, len(presets))
	for header, field := range presets {
		byHeader[catalog.NormalizeHeader(header)] = field
	}
	return &StaticPresets{byHeader: byHeader}
}

// Lookup implements PresetSource.
// Parameters:
//   - normalizedHeader: normalized source header token.
// Returns:
//   - string: canonical field the header is preset to.
//   - bool: true if a preset entry exists.
func (p *StaticPresets) Lookup(normalizedHeader string) (string, bool) {
	field, ok := p.byHeader[normalizedHeader]
	return field, ok
}
