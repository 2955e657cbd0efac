package model

import (
	"fmt"
	"slices"
	"time"

	"github.com/nodalpair/nodalpair/internal/domain/valueobject"
)

// Record is an immutable clinical case record. Values are aligned with the
// schema the record was built against.
type Record struct {
	surgeryDate time.Time
	cohort      valueobject.Cohort
	values      []valueobject.Code
	genderCode  valueobject.Code
	id          int
	discard     bool
}

// RecordParams carries the fields of a new Record.
type RecordParams struct {
	SurgeryDate time.Time
	Cohort      valueobject.Cohort
	Values      []valueobject.Code
	GenderCode  valueobject.Code
	ID          int
	Discard     bool
}

// NewRecord validates params against the schema and builds a Record.
// Disabled variables are stored as null.
func NewRecord(schema *VariableSchema, p RecordParams) (*Record, error) {
	if p.Cohort.IsZero() {
		return nil, fmt.Errorf("record %d: cohort is required", p.ID)
	}
	if len(p.Values) != schema.Len() {
		return nil, fmt.Errorf("record %d: got %d values for %d declared variables", p.ID, len(p.Values), schema.Len())
	}

	values := slices.Clone(p.Values)
	for i := range values {
		v := schema.At(i)
		if v.Disabled {
			values[i] = valueobject.NullCode()
			continue
		}
		if code, ok := values[i].Value(); ok && !v.Accepts(code) {
			return nil, fmt.Errorf("record %d: code %d is outside the domain of %q", p.ID, code, v.Name)
		}
	}

	return &Record{
		id:          p.ID,
		cohort:      p.Cohort,
		genderCode:  p.GenderCode,
		surgeryDate: p.SurgeryDate,
		values:      values,
		discard:     p.Discard,
	}, nil
}

// --- Accessors ---

func (r *Record) ID() int                      { return r.id }
func (r *Record) Cohort() valueobject.Cohort   { return r.cohort }
func (r *Record) GenderCode() valueobject.Code { return r.genderCode }
func (r *Record) SurgeryDate() time.Time       { return r.surgeryDate }
func (r *Record) Discard() bool                { return r.discard }
func (r *Record) Value(i int) valueobject.Code { return r.values[i] }
func (r *Record) Values() []valueobject.Code   { return slices.Clone(r.values) }
