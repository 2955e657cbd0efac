package usecase

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/nodalpair/nodalpair/internal/domain/model"
)

// Column names one dataset column by the headers it may appear under. The
// first header is the one written to generated datasets and reports.
type Column struct {
	Headers []string
}

// Primary returns the header written for the column.
func (c Column) Primary() string {
	if len(c.Headers) == 0 {
		return ""
	}
	return c.Headers[0]
}

// Layout describes the columns of a dataset. Variables are aligned with the
// study schema.
type Layout struct {
	Gender      Column
	SurgeryDate Column
	SLNB        Column
	ELND        Column
	Variables   []Column
}

// Header returns the primary headers in dataset order: gender, surgery date,
// the variables, then the two cohort flags.
func (l Layout) Header() []string {
	header := make([]string, 0, len(l.Variables)+4)
	header = append(header, l.Gender.Primary(), l.SurgeryDate.Primary())
	for _, v := range l.Variables {
		header = append(header, v.Primary())
	}
	return append(header, l.SLNB.Primary(), l.ELND.Primary())
}

// Validate checks the layout against the study schema.
func (l Layout) Validate(schema *model.VariableSchema) error {
	if len(l.Variables) != schema.Len() {
		return &model.ConfigurationError{
			Reason: fmt.Sprintf("layout has %d variable columns for %d declared variables", len(l.Variables), schema.Len()),
		}
	}
	for i, c := range l.Variables {
		if c.Primary() == "" {
			return &model.ConfigurationError{Reason: fmt.Sprintf("variable %q has no column header", schema.At(i).Name)}
		}
	}
	if l.SLNB.Primary() == "" || l.ELND.Primary() == "" {
		return &model.ConfigurationError{Reason: "cohort flag columns need a header"}
	}
	return nil
}

// normalizeHeader makes header matching insensitive to case, Unicode
// compatibility forms and stray whitespace.
func normalizeHeader(h string) string {
	h = norm.NFKC.String(h)
	h = cases.Fold().String(h)
	return strings.Join(strings.Fields(h), " ")
}

// columnIndex maps each normalised header of a dataset to its position.
type columnIndex map[string]int

func newColumnIndex(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// find returns the position of the first header of c present in the dataset.
func (idx columnIndex) find(c Column) (int, bool) {
	for _, h := range c.Headers {
		if i, ok := idx[normalizeHeader(h)]; ok {
			return i, true
		}
	}
	return -1, false
}
