package service_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nodalpair/nodalpair/internal/domain/model"
	"github.com/nodalpair/nodalpair/internal/domain/valueobject"
)

// gradeStudy declares a single variable "grade" whose codes score exactly
// the given ratios, which lets tests dial in any score they need.
func gradeStudy(t *testing.T, ratios map[int]string) (*model.VariableSchema, *model.RatioTable) {
	t.Helper()

	schema, err := model.NewVariableSchema(model.Variable{Name: "grade"})
	require.NoError(t, err)

	table := make(map[int]decimal.Decimal, len(ratios))
	for code, r := range ratios {
		table[code] = decimal.RequireFromString(r)
	}
	return schema, model.NewRatioTable(model.RatioEntry{Variable: "grade", Ratios: table})
}

func gradeRecord(t *testing.T, schema *model.VariableSchema, id int, cohort valueobject.Cohort, code int) *model.Record {
	t.Helper()
	return newRecord(t, schema, id, cohort, false, valueobject.NewCode(code))
}

func newRecord(t *testing.T, schema *model.VariableSchema, id int, cohort valueobject.Cohort, discard bool, values ...valueobject.Code) *model.Record {
	t.Helper()

	r, err := model.NewRecord(schema, model.RecordParams{
		ID:      id,
		Cohort:  cohort,
		Values:  values,
		Discard: discard,
	})
	require.NoError(t, err)
	return r
}

func elndIDs(list model.RankedList) []int {
	ids := make([]int, len(list))
	for i, c := range list {
		ids[i] = c.ELND().ID()
	}
	return ids
}

func code(v int) valueobject.Code { return valueobject.NewCode(v) }
