package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nodalpair/nodalpair/internal/application/dto"
	"github.com/nodalpair/nodalpair/internal/domain/event"
	"github.com/nodalpair/nodalpair/internal/domain/model"
	"github.com/nodalpair/nodalpair/internal/domain/port"
	"github.com/nodalpair/nodalpair/internal/domain/service"
	"github.com/nodalpair/nodalpair/pkg/observability"
)

// MatchRecords is the use case for pairing the stored cohorts.
type MatchRecords struct {
	records   port.RecordRepository
	publisher port.EventPublisher
	recorder  port.RunRecorder
	pipeline  *service.Pipeline
	logger    *slog.Logger
	runs      []port.PairingRepository
	maxPasses int
}

// NewMatchRecords creates a new MatchRecords use case. Every run is saved to
// each of the given repositories in order.
func NewMatchRecords(
	records port.RecordRepository,
	runs []port.PairingRepository,
	publisher port.EventPublisher,
	recorder port.RunRecorder,
	pipeline *service.Pipeline,
	maxPasses int,
	logger *slog.Logger,
) *MatchRecords {
	return &MatchRecords{
		records:   records,
		runs:      runs,
		publisher: publisher,
		recorder:  recorder,
		pipeline:  pipeline,
		maxPasses: maxPasses,
		logger:    logger,
	}
}

// Execute loads the cohorts, runs the matching pipeline, persists the run
// and publishes its events. Core failures publish a PairingRunFailed event
// and are returned unchanged.
func (uc *MatchRecords) Execute(ctx context.Context, req dto.MatchRequest) (resp dto.PairingRunDTO, err error) {
	ctx, stage := observability.StartStage(ctx, uc.logger, "match")
	defer func() { stage.End(err) }()

	schema := uc.pipeline.Scorer().Schema()
	slnb, elnd, err := uc.records.LoadCohorts(ctx, schema)
	if err != nil {
		return dto.PairingRunDTO{}, fmt.Errorf("failed to load cohorts: %w", err)
	}

	result, err := uc.pipeline.Run(slnb, elnd,
		service.WithMaxPasses(uc.maxPasses),
		service.WithPassObserver(func(p model.RepairPass) {
			uc.recorder.RecordPass(ctx, p)
			uc.logger.Debug("repair pass",
				"pass", p.Pass,
				"band_elnd_id", p.BandELNDID,
				"band_size", p.BandSize,
				"conflicts_left", p.ConflictsLeft,
			)
		}),
	)

	var run *model.PairingRun
	var limitErr *model.ConvergenceLimitError
	switch {
	case err == nil:
		if run, err = model.NewConvergedRun(result.Assignment, result.Passes); err != nil {
			return dto.PairingRunDTO{}, err
		}
		uc.logAssignment(result.Assignment)
	case errors.As(err, &limitErr) && req.AcceptUnconverged:
		uc.logger.Warn("keeping unconverged assignment",
			"passes", limitErr.Passes,
			"conflicted_elnd_ids", limitErr.Last.ConflictedELNDIDs(),
		)
		run = model.NewUnconvergedRun(limitErr)
		uc.logAssignment(limitErr.Last)
	default:
		uc.publishFailure(ctx, err)
		return dto.PairingRunDTO{}, err
	}

	for _, repo := range uc.runs {
		if err := repo.Save(ctx, run); err != nil {
			return dto.PairingRunDTO{}, fmt.Errorf("failed to save pairing run: %w", err)
		}
	}

	uc.recorder.RecordRun(ctx, run)

	if events := run.ClearEvents(); len(events) > 0 {
		if err := uc.publisher.Publish(ctx, events...); err != nil {
			return dto.PairingRunDTO{}, fmt.Errorf("failed to publish events: %w", err)
		}
	}

	stats := run.Stats()
	uc.logger.Info("pairing run stored",
		"run_id", run.ID(),
		"status", run.Status().String(),
		"pairs", len(run.Pairings()),
		"perfect", stats.Perfect,
		"imperfect", stats.Imperfect,
		"total_difference", stats.TotalDifference.StringFixed(1),
		"passes", run.Passes(),
	)
	return dto.FromPairingRun(run), nil
}

func (uc *MatchRecords) logAssignment(a model.Assignment) {
	if !uc.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for _, c := range a.Candidates() {
		uc.logger.Debug(c.String())
	}
}

// publishFailure reports a failed run. Publishing problems are logged so the
// matching error stays the one returned to the caller.
func (uc *MatchRecords) publishFailure(ctx context.Context, cause error) {
	evt := event.NewPairingRunFailed(uuid.New().String(), failureReason(cause), cause.Error())
	if err := uc.publisher.Publish(ctx, evt); err != nil {
		uc.logger.Error("failed to publish run failure", "error", err)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, model.ErrInsufficientPool):
		return "insufficient_pool"
	case errors.Is(err, model.ErrResolutionExhausted):
		return "resolution_exhausted"
	case errors.Is(err, model.ErrConvergenceLimit):
		return "convergence_limit"
	case errors.Is(err, model.ErrConfiguration):
		return "configuration"
	default:
		return "invalid_input"
	}
}
