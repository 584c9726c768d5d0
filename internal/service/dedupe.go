package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/oskarh/feedgate/internal/logger"
)

// MatchType identifies which comparison matched an existing record.
type MatchType string

const (
	MatchTypeKey  MatchType = "key"
	MatchTypeName MatchType = "name"
)

// Confidence is fixed per match type; exact case-insensitive equality
// is the only comparator, there is no fuzzy matching at this layer.
const (
	confidenceKeyMatch  = 100
	confidenceNameMatch = 90
)

// DuplicateMatch reports one candidate row matching an existing
// catalog record.
type DuplicateMatch struct {
	SourceRowNumber int       `json:"source_row_number"`
	Value           string    `json:"value"`
	ExistingID      string    `json:"existing_id"`
	MatchType       MatchType `json:"match_type"`
	Confidence      int       `json:"confidence"`
}

// DuplicateDetector compares candidate records against the existing
// tenant catalog, first by key (SKU), then by exact name.
type DuplicateDetector struct {
	products ProductStore
	logger   *logger.Logger

	// Lookup bounds: SKUs are checked in chunks of maxKeyLookup per
	// store call; only the first maxNameLookup names are sampled.
	maxKeyLookup  int
	maxNameLookup int
}

// NewDuplicateDetector creates a DuplicateDetector.
// Parameters:
//   - products: product store used for catalog lookups.
//   - log: logger instance.
//   - maxKeyLookup: SKU lookup chunk size; <=0 uses 500.
//   - maxNameLookup: name sample cap; <=0 uses 100.
// Returns:
//   - *DuplicateDetector: detector instance.
func NewDuplicateDetector(products ProductStore, log *logger.Logger, maxKeyLookup, maxNameLookup int) *DuplicateDetector {
	if maxKeyLookup <= 0 {
		maxKeyLookup = 500
	}
	if maxNameLookup <= 0 {
		maxNameLookup = 100
	}
	return &DuplicateDetector{
		products:      products,
		logger:        log,
		maxKeyLookup:  maxKeyLookup,
		maxNameLookup: maxNameLookup,
	}
}

// Detect runs the two-pass duplicate check over the candidate set.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tenantID: tenant whose catalog is checked.
//   - candidates: validated candidate records.
//   - skipDuplicates: if true, matched rows are excluded from the kept set.
// Returns:
//   - []Candidate: candidates to pass to the ingestor.
//   - []DuplicateMatch: all matches found, reported regardless of policy.
//   - error: non-nil if a store lookup fails.
func (d *DuplicateDetector) Detect(ctx context.Context, tenantID string, candidates []Candidate, skipDuplicates bool) ([]Candidate, []DuplicateMatch, error) {
	if len(candidates) == 0 {
		return candidates, nil, nil
	}

	matchedRows := make(map[int]bool)
	var matches []DuplicateMatch

	// Pass 1: exact key match on SKU, case-insensitive.
	existingBySKU, err := d.lookupSKUs(ctx, tenantID, candidates)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range candidates {
		if c.SKU == "" {
			continue
		}
		if id, ok := existingBySKU[strings.ToLower(c.SKU)]; ok {
			matchedRows[c.RowNumber] = true
			matches = append(matches, DuplicateMatch{
				SourceRowNumber: c.RowNumber,
				Value:           c.SKU,
				ExistingID:      id,
				MatchType:       MatchTypeKey,
				Confidence:      confidenceKeyMatch,
			})
		}
	}

	// Pass 2: exact name match for candidates not matched by key,
	// bounded to a sample for cost control.
	var sample []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		if matchedRows[c.RowNumber] || c.Name == "" {
			continue
		}
		lowered := strings.ToLower(c.Name)
		if seen[lowered] {
			continue
		}
		seen[lowered] = true
		sample = append(sample, c.Name)
		if len(sample) >= d.maxNameLookup {
			break
		}
	}
	if len(sample) > 0 {
		existing, err := d.products.FindByNames(ctx, tenantID, sample)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to look up names: %w", err)
		}
		existingByName := make(map[string]string, len(existing))
		for _, p := range existing {
			existingByName[strings.ToLower(p.Name)] = p.ID
		}
		for _, c := range candidates {
			if matchedRows[c.RowNumber] || c.Name == "" {
				continue
			}
			if id, ok := existingByName[strings.ToLower(c.Name)]; ok {
				matchedRows[c.RowNumber] = true
				matches = append(matches, DuplicateMatch{
					SourceRowNumber: c.RowNumber,
					Value:           c.Name,
					ExistingID:      id,
					MatchType:       MatchTypeName,
					Confidence:      confidenceNameMatch,
				})
			}
		}
	}

	if len(matches) > 0 {
		d.log(ctx).WithFields(logger.Fields{
			"matches": len(matches),
			"skip":    skipDuplicates,
		}).Info("Duplicate candidates detected")
	}

	if !skipDuplicates {
		return candidates, matches, nil
	}

	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !matchedRows[c.RowNumber] {
			kept = append(kept, c)
		}
	}
	return kept, matches, nil
}

// lookupSKUs fetches existing products for every distinct candidate
// SKU, chunked to the per-call bound, and returns a lowered-SKU index.
func (d *DuplicateDetector) lookupSKUs(ctx context.Context, tenantID string, candidates []Candidate) (map[string]string, error) {
	var skus []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		if c.SKU == "" {
			continue
		}
		lowered := strings.ToLower(c.SKU)
		if seen[lowered] {
			continue
		}
		seen[lowered] = true
		skus = append(skus, c.SKU)
	}

	existingBySKU := make(map[string]string)
	for start := 0; start < len(skus); start += d.maxKeyLookup {
		end := start + d.maxKeyLookup
		if end > len(skus) {
			end = len(skus)
		}
		existing, err := d.products.FindBySKUs(ctx, tenantID, skus[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to look up SKUs: %w", err)
		}
		for _, p := range existing {
			existingBySKU[strings.ToLower(p.SKU)] = p.ID
		}
	}
	return existingBySKU, nil
}

func (d *DuplicateDetector) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return d.logger
}
