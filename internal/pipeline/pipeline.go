// Package pipeline orchestrates the full generation flow: upload
// table → meter extraction → timestamp grid → dataset build →
// integrity validation → chunk split → archive packaging. Stages run
// synchronously and fail fast; a failure at any stage aborts the rest
// and no partial archive is emitted.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vmgen/internal/dataset"
	"vmgen/internal/exporter"
	"vmgen/internal/infrastructure"
	"vmgen/internal/meterlist"
	"vmgen/internal/timegrid"
)

// previewRows caps how many sample rows the preview carries.
const previewRows = 5

// Config carries the caller-supplied generation parameters.
type Config struct {
	Start      time.Time
	End        time.Time
	Frequency  string
	Files      int
	SkipHeader bool
	Format     exporter.Format

	// SampleThreshold bounds the validator's per-meter check; zero
	// means always exhaustive.
	SampleThreshold int

	// Now supplies the clock for the archive name. Nil means
	// time.Now.
	Now func() time.Time
}

// Preview is informational output for the caller's UI.
type Preview struct {
	TotalRows    int           `json:"total_rows"`
	Meters       int           `json:"meters"`
	Timestamps   int           `json:"timestamps"`
	RowsPerMeter int           `json:"rows_per_meter"`
	Sample       []dataset.Row `json:"sample"`
}

// Result is the outcome of a completed pipeline run.
type Result struct {
	Extraction  *meterlist.Extraction
	Grid        timegrid.Grid
	Dataset     *dataset.Dataset
	Report      *dataset.Report
	Chunks      int
	Archive     []byte
	ArchiveName string
	Preview     Preview
}

// IntegrityError wraps a validation report that contains blocking
// errors. The archive is never built when this is returned.
type IntegrityError struct {
	Report *dataset.Report
}

func (e *IntegrityError) Error() string {
	errs := e.Report.Errors()
	if len(errs) == 0 {
		return "dataset integrity validation failed"
	}
	return fmt.Sprintf("dataset integrity validation failed with %d errors, first: %s",
		len(errs), errs[0].Message)
}

// Generate runs the full pipeline and packages the archive.
func Generate(ctx context.Context, table [][]string, cfg Config) (*Result, error) {
	return run(ctx, table, cfg, true)
}

// DryRun runs every stage except packaging, for preview endpoints.
func DryRun(ctx context.Context, table [][]string, cfg Config) (*Result, error) {
	return run(ctx, table, cfg, false)
}

func run(ctx context.Context, table [][]string, cfg Config, pack bool) (*Result, error) {
	logger := infrastructure.LoggerFromContext(ctx)
	started := time.Now()

	extraction, err := meterlist.Extract(table, meterlist.ExtractOptions{SkipHeader: cfg.SkipHeader})
	if err != nil {
		return nil, fmt.Errorf("meter extraction: %w", err)
	}

	freq, err := timegrid.ParseFrequency(cfg.Frequency)
	if err != nil {
		return nil, fmt.Errorf("frequency: %w", err)
	}

	grid, err := timegrid.Generate(cfg.Start, cfg.End, freq)
	if err != nil {
		return nil, fmt.Errorf("timestamp grid: %w", err)
	}

	logger.Info("inputs resolved",
		slog.Int("meters", len(extraction.Meters)),
		slog.Int("duplicates", len(extraction.Duplicates)),
		slog.Int("invalid_rows", len(extraction.Invalid)),
		slog.Int("timestamps", grid.Len()),
		slog.String("frequency", freq.String()))

	ds, err := dataset.Build(extraction.Meters, grid)
	if err != nil {
		return nil, fmt.Errorf("dataset build: %w", err)
	}

	report := dataset.Validate(ds, extraction.Meters, grid, dataset.ValidateOptions{
		SampleThreshold: cfg.SampleThreshold,
	})
	if report.Blocking() {
		return nil, &IntegrityError{Report: report}
	}

	result := &Result{
		Extraction: extraction,
		Grid:       grid,
		Dataset:    ds,
		Report:     report,
		Preview:    buildPreview(ds, extraction, grid),
	}

	if !pack {
		return result, nil
	}

	chunks := dataset.Split(ds, cfg.Files)
	result.Chunks = len(chunks)

	format := cfg.Format
	if format == "" {
		format = exporter.FormatXLSX
	}

	archive, err := exporter.Package(ctx, chunks, format)
	if err != nil {
		return nil, err
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	result.Archive = archive
	result.ArchiveName = exporter.ArchiveName(now())

	logger.Info("generation complete",
		slog.Int("rows", ds.Len()),
		slog.Int("chunks", len(chunks)),
		slog.Int("archive_bytes", len(archive)),
		slog.Duration("elapsed", time.Since(started)))

	return result, nil
}

func buildPreview(ds *dataset.Dataset, extraction *meterlist.Extraction, grid timegrid.Grid) Preview {
	sample := ds.Rows
	if len(sample) > previewRows {
		sample = sample[:previewRows]
	}
	sampleCopy := make([]dataset.Row, len(sample))
	copy(sampleCopy, sample)

	return Preview{
		TotalRows:    ds.Len(),
		Meters:       len(extraction.Meters),
		Timestamps:   grid.Len(),
		RowsPerMeter: grid.Len(),
		Sample:       sampleCopy,
	}
}
