package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"github.com/nodalpair/nodalpair/internal/application/usecase"
	"github.com/nodalpair/nodalpair/internal/domain/model"
)

//go:embed default_study.toml
var defaultStudy []byte

// Study is a loaded study definition: the variables, their hazard ratios and
// the dataset columns they are read from.
type Study struct {
	Schema                *model.VariableSchema
	Ratios                *model.RatioTable
	Layout                usecase.Layout
	MissingValueThreshold int
}

type studyFile struct {
	MissingValueThreshold *int           `toml:"missing_value_threshold"`
	Columns               columnsFile    `toml:"columns"`
	Variables             []variableFile `toml:"variables"`
}

type columnsFile struct {
	Gender      []string `toml:"gender"`
	SurgeryDate []string `toml:"surgery_date"`
	SLNB        []string `toml:"slnb"`
	ELND        []string `toml:"elnd"`
}

type variableFile struct {
	Ratios   map[string]string `toml:"ratios"`
	Name     string            `toml:"name"`
	Headers  []string          `toml:"headers"`
	Codes    []int             `toml:"codes"`
	Disabled bool              `toml:"disabled"`
}

// DefaultStudy returns the built-in study.
func DefaultStudy() (*Study, error) {
	return ParseStudy(defaultStudy)
}

// LoadStudy reads a study file. An empty path yields the default study.
func LoadStudy(path string) (*Study, error) {
	if path == "" {
		return DefaultStudy()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read study config: %w", err)
	}
	study, err := ParseStudy(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return study, nil
}

// ParseStudy decodes a TOML study definition and checks it is consistent.
func ParseStudy(data []byte) (*Study, error) {
	var f studyFile
	if err := toml.Unmarshal(data, &f); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, &model.ConfigurationError{Reason: fmt.Sprintf("study config line %d column %d: %s", row, col, derr.Error())}
		}
		return nil, &model.ConfigurationError{Reason: fmt.Sprintf("study config: %v", err)}
	}

	variables := make([]model.Variable, 0, len(f.Variables))
	columns := make([]usecase.Column, 0, len(f.Variables))
	var entries []model.RatioEntry
	for _, v := range f.Variables {
		variables = append(variables, model.Variable{Name: v.Name, Codes: v.Codes, Disabled: v.Disabled})

		headers := v.Headers
		if len(headers) == 0 {
			headers = []string{v.Name}
		}
		columns = append(columns, usecase.Column{Headers: headers})

		if len(v.Ratios) == 0 {
			continue
		}
		ratios, err := parseRatios(v)
		if err != nil {
			return nil, err
		}
		entries = append(entries, model.RatioEntry{Variable: v.Name, Ratios: ratios})
	}

	schema, err := model.NewVariableSchema(variables...)
	if err != nil {
		return nil, err
	}
	table := model.NewRatioTable(entries...)
	if err := table.Validate(schema); err != nil {
		return nil, err
	}

	layout := usecase.Layout{
		Gender:      column(f.Columns.Gender, "Gender Code"),
		SurgeryDate: column(f.Columns.SurgeryDate, "Date of Surgery"),
		SLNB:        column(f.Columns.SLNB, "SLNB"),
		ELND:        column(f.Columns.ELND, "ELND"),
		Variables:   columns,
	}
	if err := layout.Validate(schema); err != nil {
		return nil, err
	}

	threshold := 1
	if f.MissingValueThreshold != nil {
		threshold = *f.MissingValueThreshold
	}
	if threshold < 0 {
		return nil, &model.ConfigurationError{Reason: "missing_value_threshold must not be negative"}
	}

	return &Study{Schema: schema, Ratios: table, Layout: layout, MissingValueThreshold: threshold}, nil
}

func parseRatios(v variableFile) (map[int]decimal.Decimal, error) {
	ratios := make(map[int]decimal.Decimal, len(v.Ratios))
	for key, raw := range v.Ratios {
		code, err := strconv.Atoi(key)
		if err != nil {
			return nil, &model.ConfigurationError{Reason: fmt.Sprintf("variable %q: ratio key %q is not an integer code", v.Name, key)}
		}
		if len(v.Codes) > 0 && !slices.Contains(v.Codes, code) {
			return nil, &model.ConfigurationError{Reason: fmt.Sprintf("variable %q: ratio for code %d outside its domain", v.Name, code)}
		}
		ratio, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, &model.ConfigurationError{Reason: fmt.Sprintf("variable %q: ratio %q is not a number", v.Name, raw)}
		}
		ratios[code] = ratio
	}
	return ratios, nil
}

func column(headers []string, fallback string) usecase.Column {
	if len(headers) == 0 {
		return usecase.Column{Headers: []string{fallback}}
	}
	return usecase.Column{Headers: headers}
}
