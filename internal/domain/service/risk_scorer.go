package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nodalpair/nodalpair/internal/domain/model"
	"github.com/nodalpair/nodalpair/internal/domain/valueobject"
)

// RiskScorer computes a record's clinical risk score as the schema-ordered sum
// of per-variable ratios.
type RiskScorer struct {
	schema *model.VariableSchema
	table  *model.RatioTable
}

// NewRiskScorer validates the ratio table against the schema before any
// scoring can happen.
func NewRiskScorer(schema *model.VariableSchema, table *model.RatioTable) (*RiskScorer, error) {
	if err := table.Validate(schema); err != nil {
		return nil, err
	}
	return &RiskScorer{schema: schema, table: table}, nil
}

// Schema returns the schema the scorer was built with.
func (s *RiskScorer) Schema() *model.VariableSchema {
	return s.schema
}

// contributions returns one ratio per declared variable in schema order.
// Disabled variables, null values and undeclared codes contribute zero.
func (s *RiskScorer) contributions(r *model.Record) []decimal.Decimal {
	out := make([]decimal.Decimal, s.schema.Len())
	for i := range out {
		out[i] = s.table.Ratio(s.schema.At(i).Name, s.effectiveValue(r, i))
	}
	return out
}

// Score returns the record's risk score.
func (s *RiskScorer) Score(r *model.Record) decimal.Decimal {
	total := decimal.Zero
	for _, c := range s.contributions(r) {
		total = total.Add(c)
	}
	return total
}

// Explain renders the score calculation, e.g. "2.6+1.6+0.0+0.0+0.0+0.0=4.2".
func (s *RiskScorer) Explain(r *model.Record) string {
	parts := s.contributions(r)
	terms := make([]string, len(parts))
	total := decimal.Zero
	for i, c := range parts {
		terms[i] = c.StringFixed(1)
		total = total.Add(c)
	}
	return strings.Join(terms, "+") + "=" + total.StringFixed(1)
}

// IsPerfectMatch reports whether a and b agree on every declared variable.
// Disabled variables count as null on both sides and never break a match.
func (s *RiskScorer) IsPerfectMatch(a, b *model.Record) bool {
	for i := 0; i < s.schema.Len(); i++ {
		if !s.effectiveValue(a, i).Equal(s.effectiveValue(b, i)) {
			return false
		}
	}
	return true
}

// effectiveValue forces disabled variables to null.
func (s *RiskScorer) effectiveValue(r *model.Record, i int) valueobject.Code {
	if s.schema.At(i).Disabled {
		return valueobject.NullCode()
	}
	return r.Value(i)
}
