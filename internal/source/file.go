package source

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/inbox-triage/internal/model"
)

// Supported file formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// FileSource reads records from a JSON array or a CSV file with a header row.
type FileSource struct {
	path   string
	format string
}

// NewFileSource creates a file source. An empty format is inferred from the
// file extension.
func NewFileSource(path, format string) (*FileSource, error) {
	if path == "" {
		return nil, fmt.Errorf("source file path is required")
	}
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	format = strings.ToLower(format)
	if format != FormatJSON && format != FormatCSV {
		return nil, fmt.Errorf("unsupported source format %q: use json or csv", format)
	}
	return &FileSource{path: path, format: format}, nil
}

// Fetch reads and decodes the whole file.
func (s *FileSource) Fetch(ctx context.Context) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch canceled: %w", err)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if s.format == FormatCSV {
		return ParseCSV(f)
	}
	return ParseJSON(f)
}

// ParseJSON decodes a JSON array of {"subject","snippet","from","id"} objects.
func ParseJSON(r io.Reader) ([]model.Record, error) {
	var records []model.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode JSON records: %w", err)
	}
	return records, nil
}

// ParseCSV decodes CSV with a header row. Columns are matched by name,
// case-insensitively; "from" and "sender" are both accepted for the sender.
// Missing columns leave the field empty.
func ParseCSV(r io.Reader) ([]model.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := map[string]int{}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if name == "sender" {
			name = "from"
		}
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	if _, ok := columns["subject"]; !ok {
		if _, ok := columns["snippet"]; !ok {
			return nil, fmt.Errorf("CSV header needs a subject or snippet column, got %v", header)
		}
	}

	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []model.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		records = append(records, model.Record{
			ID:      field(row, "id"),
			Subject: field(row, "subject"),
			Snippet: field(row, "snippet"),
			Sender:  field(row, "from"),
		})
	}

	return records, nil
}
