package dto

import (
	"fmt"
	"time"

	"github.com/nodalpair/nodalpair/internal/domain/model"
	"github.com/nodalpair/nodalpair/internal/domain/valueobject"
)

// VariableValue is one (variable, code) pair of a stored record. A nil Value
// is a missing or disabled variable.
type VariableValue struct {
	Value *int   `json:"value"`
	Name  string `json:"name"`
}

// RecordDTO is the stored JSON shape of a clinical record.
type RecordDTO struct {
	SurgeryDate time.Time       `json:"surgeryDate"`
	GenderCode  *int            `json:"genderCode"`
	SurgeryType string          `json:"surgeryType"`
	Variables   []VariableValue `json:"variables"`
	ID          int             `json:"id"`
	Discard     bool            `json:"discard"`
}

// FromRecord maps a domain record to its stored shape, in schema order.
func FromRecord(schema *model.VariableSchema, r *model.Record) RecordDTO {
	vars := make([]VariableValue, schema.Len())
	for i := range vars {
		vars[i] = VariableValue{Name: schema.At(i).Name, Value: codePtr(r.Value(i))}
	}
	return RecordDTO{
		ID:          r.ID(),
		GenderCode:  codePtr(r.GenderCode()),
		SurgeryDate: r.SurgeryDate(),
		SurgeryType: r.Cohort().String(),
		Variables:   vars,
		Discard:     r.Discard(),
	}
}

// ToModel rebuilds the domain record. Variables are matched by name, so a
// stored record survives a reordered schema; variables it lacks are null.
func (d RecordDTO) ToModel(schema *model.VariableSchema) (*model.Record, error) {
	cohort, err := valueobject.CohortFromString(d.SurgeryType)
	if err != nil {
		return nil, fmt.Errorf("record %d: %w", d.ID, err)
	}

	values := make([]valueobject.Code, schema.Len())
	for i := range values {
		values[i] = valueobject.NullCode()
	}
	for _, v := range d.Variables {
		i, ok := schema.Index(v.Name)
		if !ok {
			return nil, fmt.Errorf("record %d: variable %q is not declared", d.ID, v.Name)
		}
		values[i] = codeFromPtr(v.Value)
	}

	return model.NewRecord(schema, model.RecordParams{
		ID:          d.ID,
		Cohort:      cohort,
		GenderCode:  codeFromPtr(d.GenderCode),
		SurgeryDate: d.SurgeryDate,
		Values:      values,
		Discard:     d.Discard,
	})
}

func codePtr(c valueobject.Code) *int {
	v, ok := c.Value()
	if !ok {
		return nil
	}
	return &v
}

func codeFromPtr(p *int) valueobject.Code {
	if p == nil {
		return valueobject.NullCode()
	}
	return valueobject.NewCode(*p)
}
