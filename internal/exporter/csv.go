package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"vmgen/internal/dataset"
)

// WriteChunkCSV serializes one chunk to CSV. A UTF-8 BOM is prefixed
// so Excel recognizes the encoding.
func WriteChunkCSV(chunk dataset.Chunk) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})

	w := csv.NewWriter(&buf)

	if err := w.Write(Headers); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, row := range chunk.Rows {
		record := []string{row.MeterID, row.Timestamp, strconv.Itoa(row.Trigger)}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	return buf.Bytes(), nil
}
