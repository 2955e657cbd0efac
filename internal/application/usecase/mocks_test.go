package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nodalpair/nodalpair/internal/application/usecase"
	"github.com/nodalpair/nodalpair/internal/domain/model"
	"github.com/nodalpair/nodalpair/internal/domain/valueobject"
	"github.com/nodalpair/nodalpair/pkg/events"
)

// --- Mock implementations ---

type mockRecordRepository struct {
	saveErr error
	loadErr error
	slnb    []*model.Record
	elnd    []*model.Record
	saved   bool
}

func (m *mockRecordRepository) SaveCohorts(_ context.Context, _ *model.VariableSchema, slnb, elnd []*model.Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.slnb, m.elnd, m.saved = slnb, elnd, true
	return nil
}

func (m *mockRecordRepository) LoadCohorts(_ context.Context, _ *model.VariableSchema) ([]*model.Record, []*model.Record, error) {
	if m.loadErr != nil {
		return nil, nil, m.loadErr
	}
	return m.slnb, m.elnd, nil
}

type mockPairingRepository struct {
	saved   []*model.PairingRun
	saveErr error
}

func (m *mockPairingRepository) Save(_ context.Context, run *model.PairingRun) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, run)
	return nil
}

func (m *mockPairingRepository) FindLatest(_ context.Context) (*model.PairingRun, error) {
	if len(m.saved) == 0 {
		return nil, model.ErrRunNotFound
	}
	return m.saved[len(m.saved)-1], nil
}

type mockEventPublisher struct {
	published  []events.DomainEvent
	publishErr error
}

func (m *mockEventPublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, evts...)
	return nil
}

type mockRunRecorder struct {
	passes []model.RepairPass
	runs   []*model.PairingRun
}

func (m *mockRunRecorder) RecordPass(_ context.Context, pass model.RepairPass) {
	m.passes = append(m.passes, pass)
}

func (m *mockRunRecorder) RecordRun(_ context.Context, run *model.PairingRun) {
	m.runs = append(m.runs, run)
}

type mockSource struct {
	err    error
	header []string
	rows   [][]string
}

func (m *mockSource) ReadRows(_ context.Context) ([]string, [][]string, error) {
	return m.header, m.rows, m.err
}

type mockSink struct {
	err    error
	header []string
	rows   [][]string
}

func (m *mockSink) WriteRows(_ context.Context, header []string, rows [][]string) error {
	if m.err != nil {
		return m.err
	}
	m.header, m.rows = header, rows
	return nil
}

// --- Fixtures ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testStudy declares depthCode {1,2,3} and lvi {0,1} with a subset of the
// default hazard ratios.
func testStudy(t *testing.T, lviDisabled bool) (*model.VariableSchema, *model.RatioTable, usecase.Layout) {
	t.Helper()

	schema, err := model.NewVariableSchema(
		model.Variable{Name: "depthCode", Codes: []int{1, 2, 3}},
		model.Variable{Name: "lvi", Codes: []int{0, 1}, Disabled: lviDisabled},
	)
	require.NoError(t, err)

	table := model.NewRatioTable(
		model.RatioEntry{Variable: "depthCode", Ratios: map[int]decimal.Decimal{
			3: decimal.RequireFromString("2.6"),
			2: decimal.RequireFromString("2.1"),
		}},
		model.RatioEntry{Variable: "lvi", Ratios: map[int]decimal.Decimal{1: decimal.RequireFromString("1.6")}},
	)

	layout := usecase.Layout{
		Gender:      usecase.Column{Headers: []string{"Gender Code"}},
		SurgeryDate: usecase.Column{Headers: []string{"Date of Surgery"}},
		Variables: []usecase.Column{
			{Headers: []string{"Depth Code"}},
			{Headers: []string{"LVI"}},
		},
		SLNB: usecase.Column{Headers: []string{"SLNB"}},
		ELND: usecase.Column{Headers: []string{"ELND"}},
	}
	return schema, table, layout
}

func record(t *testing.T, schema *model.VariableSchema, id int, cohort valueobject.Cohort, depth, lvi int) *model.Record {
	t.Helper()

	r, err := model.NewRecord(schema, model.RecordParams{
		ID:         id,
		Cohort:     cohort,
		GenderCode: valueobject.NewCode(1),
		Values:     []valueobject.Code{valueobject.NewCode(depth), valueobject.NewCode(lvi)},
	})
	require.NoError(t, err)
	return r
}
