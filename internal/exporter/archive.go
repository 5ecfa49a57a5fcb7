package exporter

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"vmgen/internal/dataset"
	"vmgen/internal/infrastructure"
)

// Package serializes every chunk and bundles the files into one zip
// archive. Chunks render concurrently but the archive is assembled
// strictly in index order; a failure on any chunk aborts the whole
// archive, never emitting a partial one.
func Package(ctx context.Context, chunks []dataset.Chunk, format Format) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, &PackagingError{Err: fmt.Errorf("no chunks to package")}
	}

	logger := infrastructure.LoggerFromContext(ctx)
	logger.Info("packaging chunks",
		slog.Int("chunk_count", len(chunks)),
		slog.String("format", string(format)))

	files := make([][]byte, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	for _, chunk := range chunks {
		chunk := chunk
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := writeChunk(chunk, format)
			if err != nil {
				return &PackagingError{
					File: PartName(chunk.Index+1, len(chunks), format),
					Err:  err,
				}
			}
			files[chunk.Index] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for i, data := range files {
		name := PartName(i+1, len(chunks), format)

		w, err := zw.Create(name)
		if err != nil {
			zw.Close()
			return nil, &PackagingError{File: name, Err: err}
		}
		if _, err := w.Write(data); err != nil {
			zw.Close()
			return nil, &PackagingError{File: name, Err: err}
		}
	}

	if err := zw.Close(); err != nil {
		return nil, &PackagingError{Err: err}
	}

	logger.Info("archive assembled",
		slog.Int("files", len(files)),
		slog.Int("bytes", buf.Len()))

	return buf.Bytes(), nil
}

func writeChunk(chunk dataset.Chunk, format Format) ([]byte, error) {
	if format == FormatCSV {
		return WriteChunkCSV(chunk)
	}
	return WriteChunkXLSX(chunk)
}
