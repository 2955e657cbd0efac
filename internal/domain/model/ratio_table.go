package model

import (
	"fmt"
	"maps"

	"github.com/shopspring/decimal"

	"github.com/nodalpair/nodalpair/internal/domain/valueobject"
)

// RatioEntry maps the codes of one variable to their ratio.
type RatioEntry struct {
	Variable string
	Ratios   map[int]decimal.Decimal
}

// RatioTable maps variable name to per-code ratios. Entries keep their
// declaration order so it can be checked against the schema.
type RatioTable struct {
	entries []RatioEntry
	byName  map[string]map[int]decimal.Decimal
}

// NewRatioTable builds a table from entries in declaration order.
// Duplicate variables are kept so Validate can report them.
func NewRatioTable(entries ...RatioEntry) *RatioTable {
	t := &RatioTable{
		entries: make([]RatioEntry, 0, len(entries)),
		byName:  make(map[string]map[int]decimal.Decimal, len(entries)),
	}
	for _, e := range entries {
		e.Ratios = maps.Clone(e.Ratios)
		t.entries = append(t.entries, e)
		if _, ok := t.byName[e.Variable]; !ok {
			t.byName[e.Variable] = e.Ratios
		}
	}
	return t
}

// Ratio looks up the ratio for a code of the named variable. A null code, an
// undeclared code or an unknown variable yields zero.
func (t *RatioTable) Ratio(variable string, code valueobject.Code) decimal.Decimal {
	v, ok := code.Value()
	if !ok {
		return decimal.Zero
	}
	r, ok := t.byName[variable][v]
	if !ok {
		return decimal.Zero
	}
	return r
}

// Entries returns the table entries in declaration order.
func (t *RatioTable) Entries() []RatioEntry {
	out := make([]RatioEntry, len(t.entries))
	for i, e := range t.entries {
		out[i] = RatioEntry{Variable: e.Variable, Ratios: maps.Clone(e.Ratios)}
	}
	return out
}

// Validate checks the table against the schema. Every table variable must be
// declared, appear once, and appear in schema order.
func (t *RatioTable) Validate(schema *VariableSchema) error {
	last := -1
	seen := make(map[string]bool, len(t.entries))
	for _, e := range t.entries {
		if seen[e.Variable] {
			return &ConfigurationError{Reason: fmt.Sprintf("ratio table lists %q twice", e.Variable)}
		}
		seen[e.Variable] = true

		pos, ok := schema.Index(e.Variable)
		if !ok {
			return &ConfigurationError{Reason: fmt.Sprintf("ratio table references undeclared variable %q", e.Variable)}
		}
		if pos < last {
			return &ConfigurationError{Reason: fmt.Sprintf(
				"ratio table order disagrees with schema: %q comes after %q",
				e.Variable, schema.At(last).Name,
			)}
		}
		last = pos
	}
	return nil
}
