// Command generator runs the generation pipeline from the command
// line: a meter list file in, a zip archive of dataset chunks out.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"vmgen/internal/config"
	"vmgen/internal/exporter"
	"vmgen/internal/infrastructure"
	"vmgen/internal/meterlist"
	"vmgen/internal/pipeline"
)

func main() {
	var (
		inputPath  = flag.String("input", "", "path to the meter list file (.xlsx or .csv)")
		startStr   = flag.String("start", "", "start date (YYYY-MM-DD or YYYY-MM-DD HH:MM)")
		endStr     = flag.String("end", "", "end date (YYYY-MM-DD or YYYY-MM-DD HH:MM)")
		frequency  = flag.String("frequency", "", "sampling frequency: 15T, 30T, or 1H")
		files      = flag.Int("files", 0, "number of output files in the archive")
		skipHeader = flag.Bool("skip-header", false, "treat the first row of the input as a header")
		format     = flag.String("format", "xlsx", "chunk file format: xlsx or csv")
		outputPath = flag.String("output", "", "output archive path (default: suggested name in the current directory)")
	)
	flag.Parse()

	if err := run(*inputPath, *startStr, *endStr, *frequency, *files, *skipHeader, *format, *outputPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(inputPath, startStr, endStr, frequency string, files int, skipHeader bool, format, outputPath string) error {
	if inputPath == "" {
		return fmt.Errorf("-input is required")
	}
	if startStr == "" || endStr == "" {
		return fmt.Errorf("-start and -end are required")
	}

	cfg := config.Default()
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if frequency == "" {
		frequency = cfg.Generator.DefaultFrequency
	}
	if files <= 0 {
		files = cfg.Generator.DefaultFiles
	}

	start, err := parseInstant(startStr, false)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	end, err := parseInstant(endStr, true)
	if err != nil {
		return fmt.Errorf("invalid -end: %w", err)
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer file.Close()

	table, err := meterlist.ReadTable(file, inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input table: %w", err)
	}

	result, err := pipeline.Generate(context.Background(), table, pipeline.Config{
		Start:           start,
		End:             end,
		Frequency:       frequency,
		Files:           files,
		SkipHeader:      skipHeader,
		Format:          exporter.Format(format),
		SampleThreshold: cfg.Generator.SampleThreshold,
	})
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = result.ArchiveName
	} else if info, statErr := os.Stat(outputPath); statErr == nil && info.IsDir() {
		outputPath = filepath.Join(outputPath, result.ArchiveName)
	}

	if err := os.WriteFile(outputPath, result.Archive, 0644); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	logger.Info("archive written",
		slog.String("path", outputPath),
		slog.Int("rows", result.Dataset.Len()),
		slog.Int("chunks", result.Chunks),
		slog.Int("meters", len(result.Extraction.Meters)))

	for _, msg := range result.Extraction.Summary {
		fmt.Println(msg)
	}
	for _, warning := range result.Report.Warnings() {
		fmt.Printf("warning: %s\n", warning.Message)
	}
	fmt.Printf("wrote %s (%d rows in %d files)\n", outputPath, result.Dataset.Len(), result.Chunks)

	return nil
}

// instantLayouts are accepted timestamp formats, most specific first.
var instantLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseInstant parses a date flag. A date-only end value is expanded
// to the last minute of that day.
func parseInstant(value string, endOfDay bool) (time.Time, error) {
	for _, layout := range instantLayouts {
		t, err := time.ParseInLocation(layout, value, time.UTC)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" && endOfDay {
			t = t.Add(23*time.Hour + 59*time.Minute)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
