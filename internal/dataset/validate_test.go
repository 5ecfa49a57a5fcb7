package dataset

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vmgen/internal/timegrid"
)

func buildClean(t *testing.T, meters []string) (*Dataset, timegrid.Grid) {
	t.Helper()
	grid := hourGrid(t)
	ds, err := Build(meters, grid)
	require.NoError(t, err)
	return ds, grid
}

func TestValidateCleanDataset(t *testing.T) {
	meters := []string{"M1", "M2", "M3"}
	ds, grid := buildClean(t, meters)

	report := Validate(ds, meters, grid, ValidateOptions{})

	assert.False(t, report.Blocking())
	assert.Empty(t, report.Errors())
	assert.Empty(t, report.Warnings())
}

func TestValidateRowCountMismatch(t *testing.T) {
	meters := []string{"M1", "M2"}
	ds, grid := buildClean(t, meters)

	truncated := &Dataset{Rows: ds.Rows[:ds.Len()-1]}
	report := Validate(truncated, meters, grid, ValidateOptions{})

	require.True(t, report.Blocking())
	found := false
	for _, e := range report.Errors() {
		if e.Check == "row_count" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateDuplicatePair(t *testing.T) {
	meters := []string{"M1", "M2"}
	ds, grid := buildClean(t, meters)

	// Overwrite one row with a copy of another: same total count, but
	// a duplicated (meter, timestamp) pair and a gap.
	ds.Rows[1] = ds.Rows[0]
	report := Validate(ds, meters, grid, ValidateOptions{})

	require.True(t, report.Blocking())
	checks := map[string]bool{}
	for _, e := range report.Errors() {
		checks[e.Check] = true
	}
	assert.True(t, checks["pair_uniqueness"])
}

func TestValidateFlippedTrigger(t *testing.T) {
	meters := []string{"M1"}
	ds, grid := buildClean(t, meters)

	ds.Rows[2].Trigger = 0
	report := Validate(ds, meters, grid, ValidateOptions{})

	require.True(t, report.Blocking())
	require.Len(t, report.Errors(), 1)
	assert.Equal(t, "trigger_integrity", report.Errors()[0].Check)
	assert.Contains(t, report.Errors()[0].Message, "1 rows")
}

func TestValidateMissingMeter(t *testing.T) {
	meters := []string{"M1", "M2"}
	ds, grid := buildClean(t, meters)

	// Rebuild with only one meter but validate against both.
	smaller, err := Build([]string{"M1"}, grid)
	require.NoError(t, err)

	report := Validate(smaller, meters, grid, ValidateOptions{})

	require.True(t, report.Blocking())
	var coverage Entry
	for _, e := range report.Errors() {
		if e.Check == "meter_coverage" {
			coverage = e
		}
	}
	require.NotEmpty(t, coverage.Message)
	assert.Contains(t, coverage.Message, "M2")
	assert.Greater(t, ds.Len(), smaller.Len())
}

func TestValidateMissingMeterListCapped(t *testing.T) {
	meters := make([]string, 10)
	for i := range meters {
		meters[i] = fmt.Sprintf("M%02d", i)
	}
	grid := hourGrid(t)

	ds, err := Build(meters[:2], grid)
	require.NoError(t, err)

	report := Validate(ds, meters, grid, ValidateOptions{})

	require.True(t, report.Blocking())
	found := false
	for _, e := range report.Errors() {
		if e.Check == "meter_coverage" {
			found = true
			// 8 missing, 5 shown, 3 collapsed.
			assert.Contains(t, e.Message, "missing 8 meters")
			assert.Contains(t, e.Message, "(+3 more)")
		}
	}
	assert.True(t, found)
}

func TestValidateUnexpectedMeter(t *testing.T) {
	meters := []string{"M1"}
	ds, grid := buildClean(t, []string{"M1", "MX"})

	report := Validate(ds, meters, grid, ValidateOptions{})

	require.True(t, report.Blocking())
	messages := ""
	for _, e := range report.Errors() {
		messages += e.Message + "\n"
	}
	assert.Contains(t, messages, "not present in the input list")
}

func TestValidateSampledCheckWarns(t *testing.T) {
	meters := make([]string, 20)
	for i := range meters {
		meters[i] = fmt.Sprintf("M%02d", i)
	}
	ds, grid := buildClean(t, meters)

	report := Validate(ds, meters, grid, ValidateOptions{SampleThreshold: 5})

	assert.False(t, report.Blocking())
	require.Len(t, report.Warnings(), 1)
	assert.Equal(t, "timestamp_coverage", report.Warnings()[0].Check)
	assert.Contains(t, report.Warnings()[0].Message, "sampled 5 of 20")
}

func TestValidateSampledCheckStillCatchesMismatch(t *testing.T) {
	meters := make([]string, 20)
	for i := range meters {
		meters[i] = fmt.Sprintf("M%02d", i)
	}
	ds, grid := buildClean(t, meters)

	// Corrupt the first meter's first timestamp; the evenly spaced
	// sample always includes the first meter.
	ds.Rows[0].Timestamp = "01/01/2024 00:07"
	report := Validate(ds, meters, grid, ValidateOptions{SampleThreshold: 5})

	assert.True(t, report.Blocking())
}

func TestValidateUnparseableTimestamp(t *testing.T) {
	meters := []string{"M1"}
	ds, grid := buildClean(t, meters)

	ds.Rows[0].Timestamp = "not-a-date"
	report := Validate(ds, meters, grid, ValidateOptions{})

	require.True(t, report.Blocking())
	messages := ""
	for _, e := range report.Errors() {
		messages += e.Message + "\n"
	}
	assert.Contains(t, messages, "unparseable")
}

func TestValidateExhaustiveAcrossDayBoundary(t *testing.T) {
	start := time.Date(2024, 2, 28, 22, 0, 0, 0, time.UTC)
	grid, err := timegrid.Generate(start, start.Add(5*time.Hour), timegrid.FreqHourly)
	require.NoError(t, err)

	meters := []string{"M1", "M2"}
	ds, err := Build(meters, grid)
	require.NoError(t, err)

	report := Validate(ds, meters, grid, ValidateOptions{})
	assert.False(t, report.Blocking())
}
