// Package dataset builds, validates, and splits the synthetic meter
// time-series dataset: the cross product of a meter list and a
// timestamp grid with a constant trigger column.
package dataset

import "errors"

// TimestampLayout is the textual timestamp format written to output
// files. Day-first with a 24-hour clock, chosen for spreadsheet
// compatibility and unambiguous day/month ordering.
const TimestampLayout = "02/01/2006 15:04"

// TriggerValue is the constant indicator attached to every row.
const TriggerValue = 1

// ErrEmptyInput indicates the builder was given an empty meter list
// or an empty timestamp grid.
var ErrEmptyInput = errors.New("dataset build requires a non-empty meter list and grid")

// Row is one generated observation: a meter, a rendered timestamp,
// and the constant trigger.
type Row struct {
	MeterID   string `json:"meter_id"`
	Timestamp string `json:"timestamp"`
	Trigger   int    `json:"trigger"`
}

// Dataset is an ordered collection of rows, canonically sorted by
// (MeterID ascending, timestamp chronological). It is created once by
// Build and never mutated afterwards.
type Dataset struct {
	Rows []Row
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Chunk is a contiguous, order-preserving view of dataset rows
// destined for one output file. Index is 0-based.
type Chunk struct {
	Index int
	Rows  []Row
}
