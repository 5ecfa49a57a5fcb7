package meterlist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractHeaderAndDuplicates(t *testing.T) {
	table := [][]string{
		{"header"},
		{"M1"},
		{"M2"},
		{"M1"},
	}

	ext, err := Extract(table, ExtractOptions{SkipHeader: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"M1", "M2"}, ext.Meters)
	require.Len(t, ext.Duplicates, 1)
	assert.Equal(t, "M1", ext.Duplicates[0].Value)
	assert.Equal(t, 4, ext.Duplicates[0].Row)
	assert.Empty(t, ext.Invalid)
}

func TestExtractHeaderNotSkippedByDefault(t *testing.T) {
	table := [][]string{
		{"meter_id"},
		{"M1"},
	}

	ext, err := Extract(table, ExtractOptions{})
	require.NoError(t, err)

	// Without the flag the header row is ordinary data.
	assert.Equal(t, []string{"meter_id", "M1"}, ext.Meters)
}

func TestExtractBlankRows(t *testing.T) {
	table := [][]string{
		{"M1"},
		{"   "},
		{},
		{"M2"},
	}

	ext, err := Extract(table, ExtractOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"M1", "M2"}, ext.Meters)
	require.Len(t, ext.Invalid, 2)
	assert.Equal(t, 2, ext.Invalid[0].Row)
	assert.Equal(t, 3, ext.Invalid[1].Row)
	assert.Equal(t, "empty/blank value", ext.Invalid[0].Reason)
}

func TestExtractTrimsWhitespace(t *testing.T) {
	table := [][]string{
		{"  M1  "},
		{"M1"},
	}

	ext, err := Extract(table, ExtractOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"M1"}, ext.Meters)
	require.Len(t, ext.Duplicates, 1)
}

func TestExtractEmptyInput(t *testing.T) {
	_, err := Extract(nil, ExtractOptions{})
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = Extract([][]string{}, ExtractOptions{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestExtractNoValidMeters(t *testing.T) {
	table := [][]string{
		{""},
		{"   "},
	}

	_, err := Extract(table, ExtractOptions{})
	assert.ErrorIs(t, err, ErrNoValidMeters)
}

func TestExtractHeaderOnlyTable(t *testing.T) {
	table := [][]string{{"meter_id"}}

	_, err := Extract(table, ExtractOptions{SkipHeader: true})
	assert.ErrorIs(t, err, ErrNoValidMeters)
}

func TestExtractMalformedShape(t *testing.T) {
	table := [][]string{
		{"M1"},
		{"M2", "extra"},
	}

	_, err := Extract(table, ExtractOptions{})
	require.Error(t, err)

	var shapeErr *MalformedShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, 2, shapeErr.Row)
	assert.Equal(t, 2, shapeErr.Columns)
}

func TestExtractTrailingBlankCellsTolerated(t *testing.T) {
	// Spreadsheet exports often pad rows with empty cells; those do
	// not make the table multi-column.
	table := [][]string{
		{"M1", ""},
		{"M2", "  "},
	}

	ext, err := Extract(table, ExtractOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"M1", "M2"}, ext.Meters)
}

func TestExtractDeterminism(t *testing.T) {
	table := [][]string{
		{"M3"},
		{"M1"},
		{"M3"},
		{"M2"},
		{"M1"},
		{""},
	}

	first, err := Extract(table, ExtractOptions{})
	require.NoError(t, err)
	second, err := Extract(table, ExtractOptions{})
	require.NoError(t, err)

	assert.Equal(t, first.Meters, second.Meters)
	assert.Equal(t, first.Duplicates, second.Duplicates)
	assert.Equal(t, first.Invalid, second.Invalid)

	// First-seen order is preserved.
	assert.Equal(t, []string{"M3", "M1", "M2"}, first.Meters)
}

func TestExtractSummary(t *testing.T) {
	table := [][]string{
		{"M1"},
		{"M1"},
		{""},
	}

	ext, err := Extract(table, ExtractOptions{})
	require.NoError(t, err)

	require.Len(t, ext.Summary, 3)
	assert.Contains(t, ext.Summary[0], "1 unique meters")
	assert.Contains(t, ext.Summary[1], "1 duplicate")
	assert.Contains(t, ext.Summary[2], "1 blank")
}
