package tabular

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nodalpair/nodalpair/internal/domain/port"
)

// ErrExists is returned by sinks that refuse to replace an existing file.
var ErrExists = errors.New("file already exists")

// Format is a tabular file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("tabular: unsupported file type %q", filepath.Ext(path))
	}
}

// NewSource opens a dataset reader for path, by extension.
func NewSource(path string) (port.DatasetSource, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return NewXLSXSource(path, ""), nil
	}
	return NewCSVSource(path), nil
}

// SinkOptions configures a dataset writer.
type SinkOptions struct {
	// Sheet names the worksheet of XLSX output.
	Sheet string
	// Overwrite allows replacing an existing file.
	Overwrite bool
}

// NewSink opens a dataset writer for path, by extension.
func NewSink(path string, opts SinkOptions) (port.DatasetSink, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return NewXLSXSink(path, opts), nil
	}
	return NewCSVSink(path, opts), nil
}

// createFile opens path for writing, creating parent directories. Without
// overwrite an existing file is left untouched and ErrExists is returned.
func createFile(path string, overwrite bool) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("tabular: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("tabular: %s: %w", path, ErrExists)
	}
	if err != nil {
		return nil, fmt.Errorf("tabular: %w", err)
	}
	return f, nil
}
