package tabular

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet names the worksheet written by XLSXSink when none is configured.
const DefaultSheet = "Pairings"

// XLSXSource reads a dataset from one worksheet of a workbook.
type XLSXSource struct {
	path  string
	sheet string
}

// NewXLSXSource creates a workbook dataset reader. An empty sheet selects the
// first worksheet.
func NewXLSXSource(path, sheet string) *XLSXSource {
	return &XLSXSource{path: path, sheet: sheet}
}

// ReadRows returns the header and data rows. Cell values are read raw, so
// dates come back as spreadsheet serial numbers unless stored as text.
func (s *XLSXSource) ReadRows(_ context.Context) ([]string, [][]string, error) {
	wb, err := excelize.OpenFile(s.path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("tabular: %w", err)
	}
	defer wb.Close()

	sheet := s.sheet
	if sheet == "" {
		sheet = wb.GetSheetName(0)
	}
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("tabular: %s: sheet %q: %w", s.path, sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("tabular: %s: sheet %q is empty", s.path, sheet)
	}
	return rows[0], rows[1:], nil
}

// XLSXSink writes a single-sheet workbook with a bold header row.
type XLSXSink struct {
	path      string
	sheet     string
	overwrite bool
}

// NewXLSXSink creates a workbook dataset writer.
func NewXLSXSink(path string, opts SinkOptions) *XLSXSink {
	sheet := opts.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &XLSXSink{path: path, sheet: sheet, overwrite: opts.Overwrite}
}

// WriteRows writes the header followed by the rows.
func (s *XLSXSink) WriteRows(_ context.Context, header []string, rows [][]string) error {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", s.sheet); err != nil {
		return fmt.Errorf("tabular: %w", err)
	}

	if err := s.writeRow(wb, 1, header); err != nil {
		return err
	}
	headerStyle, err := wb.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("tabular: %w", err)
	}
	if err := wb.SetRowStyle(s.sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("tabular: %w", err)
	}

	for i, row := range rows {
		if err := s.writeRow(wb, i+2, row); err != nil {
			return err
		}
	}

	f, err := createFile(s.path, s.overwrite)
	if err != nil {
		return err
	}
	if err := wb.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("tabular: %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("tabular: %s: %w", s.path, err)
	}
	return nil
}

func (s *XLSXSink) writeRow(wb *excelize.File, n int, row []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return fmt.Errorf("tabular: %w", err)
	}
	values := make([]any, len(row))
	for i, v := range row {
		values[i] = v
	}
	if err := wb.SetSheetRow(s.sheet, cell, &values); err != nil {
		return fmt.Errorf("tabular: row %d: %w", n, err)
	}
	return nil
}
