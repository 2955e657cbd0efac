package port

import (
	"context"

	"github.com/nodalpair/nodalpair/internal/domain/model"
	"github.com/nodalpair/nodalpair/pkg/events"
)

// RecordRepository defines the persistence port for imported cohorts.
type RecordRepository interface {
	// SaveCohorts replaces both stored cohorts.
	SaveCohorts(ctx context.Context, schema *model.VariableSchema, slnb, elnd []*model.Record) error

	// LoadCohorts rebuilds both cohorts against the given schema.
	LoadCohorts(ctx context.Context, schema *model.VariableSchema) (slnb, elnd []*model.Record, err error)
}

// PairingRepository defines the persistence port for pairing runs.
type PairingRepository interface {
	// Save persists a pairing run.
	Save(ctx context.Context, run *model.PairingRun) error

	// FindLatest retrieves the most recently created pairing run.
	FindLatest(ctx context.Context) (*model.PairingRun, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	// Publish sends one or more domain events to the messaging infrastructure.
	Publish(ctx context.Context, events ...events.DomainEvent) error
}

// DatasetSource reads a tabular dataset: a header row followed by data rows.
type DatasetSource interface {
	ReadRows(ctx context.Context) (header []string, rows [][]string, err error)
}

// DatasetSink writes a tabular dataset or report.
type DatasetSink interface {
	WriteRows(ctx context.Context, header []string, rows [][]string) error
}

// RunRecorder receives measurements of matching runs.
type RunRecorder interface {
	// RecordPass is called after every repair pass.
	RecordPass(ctx context.Context, pass model.RepairPass)

	// RecordRun is called once per finished run, converged or not.
	RecordRun(ctx context.Context, run *model.PairingRun)
}
