// Package exporter serializes dataset chunks to spreadsheet files and
// bundles them into a single zip archive for download.
package exporter

import (
	"fmt"
	"time"
)

// SheetName is the fixed worksheet name inside every chunk file.
const SheetName = "Data"

// Headers is the header row written to every chunk file.
var Headers = []string{"meter_id", "timestamp", "trigger"}

// Format selects the tabular file format for chunk serialization.
type Format string

const (
	// FormatXLSX writes Excel workbooks (the default).
	FormatXLSX Format = "xlsx"
	// FormatCSV writes UTF-8 CSV files with a BOM for Excel.
	FormatCSV Format = "csv"
)

// Ext returns the file extension for the format
func (f Format) Ext() string {
	if f == FormatCSV {
		return "csv"
	}
	return "xlsx"
}

// PackagingError reports a serialization or compression failure while
// assembling the archive.
type PackagingError struct {
	File string
	Err  error
}

func (e *PackagingError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("packaging failed for %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("packaging failed: %v", e.Err)
}

func (e *PackagingError) Unwrap() error {
	return e.Err
}

// PartName returns the file name for a 1-indexed chunk. Sequence
// numbers are zero-padded to two digits, widening when the chunk
// count needs more so lexical and numeric order agree.
func PartName(seq, total int, format Format) string {
	width := 2
	for limit := 100; total >= limit; limit *= 10 {
		width++
	}
	return fmt.Sprintf("virtual_meters_part_%0*d.%s", width, seq, format.Ext())
}

// ArchiveName returns the suggested download name for an archive
// generated at the given instant.
func ArchiveName(t time.Time) string {
	return fmt.Sprintf("virtual_meters_data_%s.zip", t.Format("20060102_1504"))
}
