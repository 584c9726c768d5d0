// Package feed acquires and decodes delimited product feeds into
// header-keyed raw rows for the import pipeline.
package feed

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// DefaultDelimiter is used when no candidate delimiter appears in the
// first line.
const DefaultDelimiter = ','

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// DetectDelimiter picks the delimiter by counting occurrences of each
// candidate in the first line and taking the maximum.
// Parameters:
//   - rawText: feed text; only the first line is inspected.
// Returns:
//   - rune: detected delimiter, DefaultDelimiter if none occur.
func DetectDelimiter(rawText string) rune {
	firstLine := rawText
	if idx := strings.IndexByte(rawText, '\n'); idx >= 0 {
		firstLine = rawText[:idx]
	}

	best := DefaultDelimiter
	bestCount := 0
	for _, d := range candidateDelimiters {
		count := strings.Count(firstLine, string(d))
		if count > bestCount {
			best = d
			bestCount = count
		}
	}
	return best
}

// Decode parses delimited feed text into an ordered header list and
// header-keyed rows. The first line is treated as the header row. A
// column absent from a given row is an empty value, not an error.
// Parameters:
//   - rawText: UTF-8 feed text.
//   - delimiter: field delimiter; 0 means auto-detect.
// Returns:
//   - []string: headers in column order.
//   - []map[string]string: one header-keyed record per data row.
//   - error: non-nil if the text cannot be parsed at all.
func Decode(rawText string, delimiter rune) ([]string, []map[string]string, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, nil, fmt.Errorf("empty feed text")
	}
	if delimiter == 0 {
		delimiter = DetectDelimiter(rawText)
	}

	reader := csv.NewReader(strings.NewReader(rawText))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty feed text")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = record[i]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}

	return headers, rows, nil
}
