package tabular

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const utf8BOM = "\uFEFF"

// CSVSource reads a comma-separated dataset.
type CSVSource struct {
	path string
}

// NewCSVSource creates a CSV dataset reader.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// ReadRows returns the header and data rows. Rows may be ragged and blank
// lines are skipped.
func (s *CSVSource) ReadRows(ctx context.Context) ([]string, [][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("tabular: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("tabular: %s is empty", s.path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("tabular: %s: %w", s.path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	var rows [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("tabular: %s: %w", s.path, err)
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// CSVSink writes a comma-separated file with CRLF line endings.
type CSVSink struct {
	path      string
	overwrite bool
}

// NewCSVSink creates a CSV dataset writer.
func NewCSVSink(path string, opts SinkOptions) *CSVSink {
	return &CSVSink{path: path, overwrite: opts.Overwrite}
}

// WriteRows writes the header followed by the rows.
func (s *CSVSink) WriteRows(_ context.Context, header []string, rows [][]string) error {
	f, err := createFile(s.path, s.overwrite)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	w.UseCRLF = true
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("tabular: %s: %w", s.path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("tabular: %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("tabular: %s: %w", s.path, err)
	}
	return nil
}
