package dataset

import (
	"sort"

	"vmgen/internal/timegrid"
)

// Build expands meters × grid into the full dataset. The meter list is
// sorted (on a copy, the input is not touched) and rows are emitted
// meter-major over the already-ordered grid, so the result comes out
// in canonical (MeterID, chronological timestamp) order without a
// post-hoc sort over the full row set. Timestamps are rendered once
// per grid instant and reused across meters.
func Build(meters []string, grid timegrid.Grid) (*Dataset, error) {
	if len(meters) == 0 || grid.Len() == 0 {
		return nil, ErrEmptyInput
	}

	sorted := make([]string, len(meters))
	copy(sorted, meters)
	sort.Strings(sorted)

	timestamps := grid.Format(TimestampLayout)

	rows := make([]Row, 0, len(sorted)*len(timestamps))
	for _, meter := range sorted {
		for _, ts := range timestamps {
			rows = append(rows, Row{
				MeterID:   meter,
				Timestamp: ts,
				Trigger:   TriggerValue,
			})
		}
	}

	return &Dataset{Rows: rows}, nil
}
