// Package export writes classified rows to their destinations.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Veraticus/inbox-triage/internal/model"
)

// Writer is implemented by every export destination. The returned string
// locates the result (a file path or a spreadsheet ID).
type Writer interface {
	Write(ctx context.Context, rows []model.ExportRow, summary model.Summary) (string, error)
}

// CSVWriter writes rows as CSV with the export header. The summary is not
// written so the file can be fed back in as a source.
type CSVWriter struct {
	out  io.Writer
	path string
}

// NewCSVWriter writes to out.
func NewCSVWriter(out io.Writer) *CSVWriter {
	return &CSVWriter{out: out}
}

// NewCSVFileWriter writes to path, creating parent directories as needed.
func NewCSVFileWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Write implements Writer.
func (w *CSVWriter) Write(ctx context.Context, rows []model.ExportRow, _ model.Summary) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("export canceled: %w", err)
	}

	if w.out != nil {
		return "", WriteRows(w.out, rows)
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	f, err := os.Create(w.path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}

	if err := WriteRows(f, rows); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}

	return w.path, nil
}

// WriteRows writes the header followed by one line per row.
func WriteRows(out io.Writer, rows []model.ExportRow) error {
	cw := csv.NewWriter(out)

	if err := cw.Write(model.ExportHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row.Values()); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
