package model

import (
	"fmt"
	"slices"
)

// Variable is one declared clinical variable.
type Variable struct {
	Name string
	// Codes is the integer code domain. An empty domain accepts any code.
	Codes    []int
	Disabled bool
}

// Accepts reports whether code belongs to the variable's domain.
func (v Variable) Accepts(code int) bool {
	return len(v.Codes) == 0 || slices.Contains(v.Codes, code)
}

// VariableSchema is the ordered, fixed list of declared variables. Its order is
// authoritative for score explanations and perfect-match comparison.
type VariableSchema struct {
	variables []Variable
	index     map[string]int
}

// NewVariableSchema builds a schema from variables in declaration order.
func NewVariableSchema(variables ...Variable) (*VariableSchema, error) {
	if len(variables) == 0 {
		return nil, &ConfigurationError{Reason: "schema declares no variables"}
	}

	s := &VariableSchema{
		variables: make([]Variable, 0, len(variables)),
		index:     make(map[string]int, len(variables)),
	}
	for _, v := range variables {
		if v.Name == "" {
			return nil, &ConfigurationError{Reason: "variable name is required"}
		}
		if _, dup := s.index[v.Name]; dup {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("variable %q declared twice", v.Name)}
		}
		v.Codes = slices.Clone(v.Codes)
		s.index[v.Name] = len(s.variables)
		s.variables = append(s.variables, v)
	}
	return s, nil
}

// Len returns the number of declared variables.
func (s *VariableSchema) Len() int { return len(s.variables) }

// At returns the variable at schema position i.
func (s *VariableSchema) At(i int) Variable { return s.variables[i] }

// Index returns the schema position of the named variable.
func (s *VariableSchema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Variables returns a copy of the declared variables in schema order.
func (s *VariableSchema) Variables() []Variable {
	return slices.Clone(s.variables)
}

// Names returns the variable names in schema order.
func (s *VariableSchema) Names() []string {
	names := make([]string, len(s.variables))
	for i, v := range s.variables {
		names[i] = v.Name
	}
	return names
}
