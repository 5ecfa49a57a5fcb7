// Package meterlist turns a raw uploaded one-column table into a
// deduplicated, order-preserving list of meter identifiers, classifying
// rejected rows with reasons instead of failing on them.
package meterlist

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyInput indicates the uploaded table contained no rows at all.
var ErrEmptyInput = errors.New("uploaded table has no rows")

// ErrNoValidMeters indicates every row was blank or a duplicate,
// leaving nothing to generate for. This is a blocking condition.
var ErrNoValidMeters = errors.New("no valid meter identifiers found in upload")

// MalformedShapeError reports an upload that is not a single-column table.
type MalformedShapeError struct {
	Row     int // 1-based row where the extra column was found
	Columns int
}

func (e *MalformedShapeError) Error() string {
	return fmt.Sprintf("upload must have exactly one column, row %d has %d", e.Row, e.Columns)
}

// RejectedEntry records a row excluded from the meter list.
type RejectedEntry struct {
	Row    int    `json:"row"` // 1-based row number in the original table
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Extraction is the result of walking the upload table.
type Extraction struct {
	// Meters holds the unique identifiers in first-seen order.
	Meters []string `json:"meters"`
	// Invalid holds rows rejected with a reason (blank cells).
	Invalid []RejectedEntry `json:"invalid"`
	// Duplicates holds later repeats of already-seen identifiers.
	// They are excluded from generation but are not errors.
	Duplicates []RejectedEntry `json:"duplicates"`
	// Summary holds human-readable messages about the extraction.
	Summary []string `json:"summary"`
}

// ExtractOptions configures table extraction.
type ExtractOptions struct {
	// SkipHeader treats the first row as a header, not data.
	SkipHeader bool
}

// Extract walks the raw table in row order, trims each cell, rejects
// blanks, and keeps the first occurrence of every identifier. Repeats
// are recorded as duplicates and never halt processing; only an empty
// result does.
func Extract(table [][]string, opts ExtractOptions) (*Extraction, error) {
	if len(table) == 0 {
		return nil, ErrEmptyInput
	}

	for i, row := range table {
		if len(row) <= 1 {
			continue
		}
		// Trailing blank cells are common in spreadsheet exports and
		// do not make the table multi-column.
		for _, cell := range row[1:] {
			if strings.TrimSpace(cell) != "" {
				return nil, &MalformedShapeError{Row: i + 1, Columns: len(row)}
			}
		}
	}

	data := table
	if opts.SkipHeader {
		data = table[1:]
	}

	ext := &Extraction{}
	seen := make(map[string]struct{}, len(data))

	for i, row := range data {
		rowNum := i + 1
		if opts.SkipHeader {
			rowNum++
		}

		var value string
		if len(row) > 0 {
			value = strings.TrimSpace(row[0])
		}

		if value == "" {
			ext.Invalid = append(ext.Invalid, RejectedEntry{
				Row:    rowNum,
				Reason: "empty/blank value",
			})
			continue
		}

		if _, ok := seen[value]; ok {
			ext.Duplicates = append(ext.Duplicates, RejectedEntry{
				Row:    rowNum,
				Value:  value,
				Reason: "duplicate of an earlier row",
			})
			continue
		}

		seen[value] = struct{}{}
		ext.Meters = append(ext.Meters, value)
	}

	if len(ext.Meters) == 0 {
		return nil, ErrNoValidMeters
	}

	ext.Summary = append(ext.Summary, fmt.Sprintf("%d unique meters accepted", len(ext.Meters)))
	if n := len(ext.Duplicates); n > 0 {
		ext.Summary = append(ext.Summary, fmt.Sprintf("%d duplicate rows excluded", n))
	}
	if n := len(ext.Invalid); n > 0 {
		ext.Summary = append(ext.Summary, fmt.Sprintf("%d blank rows skipped", n))
	}

	return ext, nil
}
