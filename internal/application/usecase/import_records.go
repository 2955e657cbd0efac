package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nodalpair/nodalpair/internal/application/dto"
	"github.com/nodalpair/nodalpair/internal/domain/model"
	"github.com/nodalpair/nodalpair/internal/domain/port"
	"github.com/nodalpair/nodalpair/internal/domain/valueobject"
	"github.com/nodalpair/nodalpair/pkg/observability"
)

// firstDataRow is the spreadsheet row number of the first record; record ids
// are spreadsheet row numbers so they can be traced back to the source file.
const firstDataRow = 2

// ImportRecords parses a tabular dataset into the SLNB and ELND cohorts.
type ImportRecords struct {
	source    port.DatasetSource
	repo      port.RecordRepository
	schema    *model.VariableSchema
	logger    *slog.Logger
	layout    Layout
	threshold int
}

// NewImportRecords creates a new ImportRecords use case. Records with more
// than threshold empty cells are kept but flagged as discarded.
func NewImportRecords(
	source port.DatasetSource,
	repo port.RecordRepository,
	schema *model.VariableSchema,
	layout Layout,
	threshold int,
	logger *slog.Logger,
) *ImportRecords {
	return &ImportRecords{
		source:    source,
		repo:      repo,
		schema:    schema,
		layout:    layout,
		threshold: threshold,
		logger:    logger,
	}
}

// columnPositions holds where each layout column sits in the dataset; -1
// marks an optional column that is absent.
type columnPositions struct {
	variables   []int
	gender      int
	surgeryDate int
	slnb        int
	elnd        int
}

// Execute reads, validates and stores both cohorts.
func (uc *ImportRecords) Execute(ctx context.Context) (summary dto.ImportSummary, err error) {
	ctx, stage := observability.StartStage(ctx, uc.logger, "import")
	defer func() { stage.End(err) }()

	header, rows, err := uc.source.ReadRows(ctx)
	if err != nil {
		return dto.ImportSummary{}, fmt.Errorf("failed to read dataset: %w", err)
	}

	pos, err := uc.locate(header)
	if err != nil {
		return dto.ImportSummary{}, err
	}

	var slnb, elnd []*model.Record
	summary.Rows = len(rows)
	for i, row := range rows {
		id := i + firstDataRow
		rec, err := uc.parseRow(id, header, row, pos)
		if err != nil {
			return dto.ImportSummary{}, err
		}
		if rec == nil {
			summary.Skipped++
			continue
		}
		if rec.Discard() {
			summary.Discarded++
		}
		if rec.Cohort().Equal(valueobject.CohortSLNB) {
			slnb = append(slnb, rec)
		} else {
			elnd = append(elnd, rec)
		}
	}
	summary.SLNB, summary.ELND = len(slnb), len(elnd)
	summary.Imported = summary.SLNB + summary.ELND

	if err := uc.repo.SaveCohorts(ctx, uc.schema, slnb, elnd); err != nil {
		return dto.ImportSummary{}, fmt.Errorf("failed to save cohorts: %w", err)
	}

	uc.logger.Info("records imported",
		"imported", summary.Imported,
		"skipped", summary.Skipped,
		"discarded", summary.Discarded,
		"slnb", summary.SLNB,
		"elnd", summary.ELND,
	)
	return summary, nil
}

func (uc *ImportRecords) locate(header []string) (columnPositions, error) {
	if err := uc.layout.Validate(uc.schema); err != nil {
		return columnPositions{}, err
	}

	idx := newColumnIndex(header)
	required := func(c Column) (int, error) {
		i, ok := idx.find(c)
		if !ok {
			return -1, fmt.Errorf("dataset has no %q column", c.Primary())
		}
		return i, nil
	}
	optional := func(c Column) int {
		i, _ := idx.find(c)
		return i
	}

	pos := columnPositions{
		gender:      optional(uc.layout.Gender),
		surgeryDate: optional(uc.layout.SurgeryDate),
		variables:   make([]int, len(uc.layout.Variables)),
	}
	var err error
	if pos.slnb, err = required(uc.layout.SLNB); err != nil {
		return columnPositions{}, err
	}
	if pos.elnd, err = required(uc.layout.ELND); err != nil {
		return columnPositions{}, err
	}
	for i, c := range uc.layout.Variables {
		if pos.variables[i], err = required(c); err != nil {
			return columnPositions{}, err
		}
	}
	return pos, nil
}

// parseRow builds the record for one data row, or nil when the row carries
// neither cohort flag. The SLNB flag wins when both are set.
func (uc *ImportRecords) parseRow(id int, header, row []string, pos columnPositions) (*model.Record, error) {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	isSLNB, err := parseFlag(cell(pos.slnb))
	if err != nil {
		return nil, rowError(id, header[pos.slnb], err)
	}
	isELND, err := parseFlag(cell(pos.elnd))
	if err != nil {
		return nil, rowError(id, header[pos.elnd], err)
	}
	var cohort valueobject.Cohort
	switch {
	case isSLNB:
		cohort = valueobject.CohortSLNB
	case isELND:
		cohort = valueobject.CohortELND
	default:
		return nil, nil
	}

	missing := 0
	for i := range header {
		if cell(i) == "" {
			missing++
		}
	}

	values := make([]valueobject.Code, uc.schema.Len())
	for i, col := range pos.variables {
		v := uc.schema.At(i)
		code, err := parseCode(cell(col))
		if err != nil {
			return nil, rowError(id, header[col], err)
		}
		if c, ok := code.Value(); ok && !v.Disabled && !v.Accepts(c) {
			return nil, rowError(id, header[col], fmt.Errorf("code %d is outside the domain of %s %v", c, v.Name, v.Codes))
		}
		values[i] = code
	}

	gender := valueobject.NullCode()
	if pos.gender >= 0 {
		if gender, err = parseCode(cell(pos.gender)); err != nil {
			return nil, rowError(id, header[pos.gender], err)
		}
	}

	var surgeryDate time.Time
	if pos.surgeryDate >= 0 {
		if surgeryDate, err = parseDate(cell(pos.surgeryDate)); err != nil {
			return nil, rowError(id, header[pos.surgeryDate], err)
		}
	}

	rec, err := model.NewRecord(uc.schema, model.RecordParams{
		ID:          id,
		Cohort:      cohort,
		GenderCode:  gender,
		SurgeryDate: surgeryDate,
		Values:      values,
		Discard:     missing > uc.threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", id, err)
	}
	return rec, nil
}

func rowError(id int, column string, err error) error {
	return fmt.Errorf("row %d, column %q: %w", id, column, err)
}

// parseCode reads an integer code. Integral decimals such as "2.0", as
// written by exported reports, are accepted.
func parseCode(s string) (valueobject.Code, error) {
	if s == "" {
		return valueobject.NullCode(), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return valueobject.Code{}, fmt.Errorf("%q is not an integer code", s)
	}
	return valueobject.NewCode(int(d.IntPart())), nil
}

func parseFlag(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	code, err := parseCode(s)
	if err != nil {
		return false, err
	}
	v, _ := code.Value()
	return v != 0, nil
}

var dateLayouts = []string{time.RFC3339Nano, time.DateTime, time.DateOnly}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		// Spreadsheet serial day number.
		return time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC).Add(time.Duration(serial * 24 * float64(time.Hour))), nil
	}
	return time.Time{}, fmt.Errorf("%q is not a date", s)
}
