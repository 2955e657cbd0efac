package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/nodalpair/nodalpair/internal/application/dto"
	"github.com/nodalpair/nodalpair/internal/domain/model"
	"github.com/nodalpair/nodalpair/internal/domain/port"
	"github.com/nodalpair/nodalpair/internal/domain/service"
	"github.com/nodalpair/nodalpair/internal/domain/valueobject"
	"github.com/nodalpair/nodalpair/pkg/observability"
)

// Report columns appended after the dataset columns.
var reportColumns = []string{"Hazard calculation", "Discarded", "Paired with", "Hazard difference", "Perfect match"}

// ExportPairings writes the latest pairing run as a per-record report.
type ExportPairings struct {
	records port.RecordRepository
	runs    port.PairingRepository
	sink    port.DatasetSink
	scorer  *service.RiskScorer
	logger  *slog.Logger
	layout  Layout
}

// NewExportPairings creates a new ExportPairings use case.
func NewExportPairings(
	records port.RecordRepository,
	runs port.PairingRepository,
	sink port.DatasetSink,
	scorer *service.RiskScorer,
	layout Layout,
	logger *slog.Logger,
) *ExportPairings {
	return &ExportPairings{
		records: records,
		runs:    runs,
		sink:    sink,
		scorer:  scorer,
		layout:  layout,
		logger:  logger,
	}
}

// Execute writes one row per record of both cohorts in ascending id order.
// Paired rows also carry the partner id, the score difference and the
// perfect-match flag.
func (uc *ExportPairings) Execute(ctx context.Context) (summary dto.ExportSummary, err error) {
	ctx, stage := observability.StartStage(ctx, uc.logger, "export")
	defer func() { stage.End(err) }()

	schema := uc.scorer.Schema()
	if err := uc.layout.Validate(schema); err != nil {
		return dto.ExportSummary{}, err
	}

	slnb, elnd, err := uc.records.LoadCohorts(ctx, schema)
	if err != nil {
		return dto.ExportSummary{}, fmt.Errorf("failed to load cohorts: %w", err)
	}
	run, err := uc.runs.FindLatest(ctx)
	if err != nil {
		return dto.ExportSummary{}, fmt.Errorf("failed to load pairing run: %w", err)
	}

	records := slices.Concat(slnb, elnd)
	slices.SortStableFunc(records, func(a, b *model.Record) int { return a.ID() - b.ID() })

	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = uc.row(r, run)
	}

	header := slices.Concat(uc.layout.Header(), reportColumns)
	if err := uc.sink.WriteRows(ctx, header, rows); err != nil {
		return dto.ExportSummary{}, fmt.Errorf("failed to write report: %w", err)
	}

	summary = dto.ExportSummary{Rows: len(rows), Pairings: len(run.Pairings())}
	uc.logger.Info("pairings exported", "rows", summary.Rows, "pairings", summary.Pairings, "run_id", run.ID())
	return summary, nil
}

func (uc *ExportPairings) row(r *model.Record, run *model.PairingRun) []string {
	row := make([]string, 0, len(r.Values())+len(reportColumns)+4)

	gender := ""
	if g, ok := r.GenderCode().Value(); ok {
		gender = strconv.Itoa(g)
	}
	date := ""
	if !r.SurgeryDate().IsZero() {
		date = r.SurgeryDate().Format(time.RFC3339)
	}
	row = append(row, gender, date)

	for _, v := range r.Values() {
		row = append(row, v.Fixed1())
	}

	isSLNB := r.Cohort().Equal(valueobject.CohortSLNB)
	row = append(row,
		boolFlag(isSLNB),
		boolFlag(!isSLNB),
		uc.scorer.Explain(r),
		boolFlag(r.Discard()),
	)

	p, ok := run.PairingFor(r.ID())
	if !ok {
		return row
	}
	partner := p.SLNBID
	if isSLNB {
		partner = p.ELNDID
	}
	return append(row,
		strconv.Itoa(partner),
		p.Difference.StringFixed(1),
		boolFlag(p.Perfect),
	)
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
