package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/nodalpair/nodalpair/internal/domain/model"
)

const meterName = "github.com/nodalpair/nodalpair"

// RunRecorder records pairing run metrics through OpenTelemetry instruments.
type RunRecorder struct {
	passes          metric.Int64Counter
	bandSize        metric.Int64Histogram
	conflictsLeft   metric.Int64Gauge
	runs            metric.Int64Counter
	pairings        metric.Int64Counter
	totalDifference metric.Float64Gauge
}

// NewRunRecorder creates the run instruments on the given provider.
func NewRunRecorder(provider metric.MeterProvider) (*RunRecorder, error) {
	meter := provider.Meter(meterName)

	var r RunRecorder
	var err error
	if r.passes, err = meter.Int64Counter("pairing_repair_passes",
		metric.WithDescription("Conflict repair passes performed")); err != nil {
		return nil, fmt.Errorf("create repair pass counter: %w", err)
	}
	if r.bandSize, err = meter.Int64Histogram("pairing_band_size",
		metric.WithDescription("SLNB records contending for one ELND record per repair pass"),
		metric.WithExplicitBucketBoundaries(2, 3, 4, 6, 8, 12, 16, 32)); err != nil {
		return nil, fmt.Errorf("create band size histogram: %w", err)
	}
	if r.conflictsLeft, err = meter.Int64Gauge("pairing_conflicts_left",
		metric.WithDescription("Conflicted ELND records after the latest repair pass")); err != nil {
		return nil, fmt.Errorf("create conflicts gauge: %w", err)
	}
	if r.runs, err = meter.Int64Counter("pairing_runs",
		metric.WithDescription("Completed pairing runs by status")); err != nil {
		return nil, fmt.Errorf("create run counter: %w", err)
	}
	if r.pairings, err = meter.Int64Counter("pairing_pairs",
		metric.WithDescription("Pairs produced, split by perfect match")); err != nil {
		return nil, fmt.Errorf("create pair counter: %w", err)
	}
	if r.totalDifference, err = meter.Float64Gauge("pairing_total_difference",
		metric.WithDescription("Summed score difference of the latest run")); err != nil {
		return nil, fmt.Errorf("create total difference gauge: %w", err)
	}
	return &r, nil
}

// RecordPass records one repair pass.
func (r *RunRecorder) RecordPass(ctx context.Context, pass model.RepairPass) {
	r.passes.Add(ctx, 1)
	r.bandSize.Record(ctx, int64(pass.BandSize))
	r.conflictsLeft.Record(ctx, int64(pass.ConflictsLeft))
}

// RecordRun records the outcome of a finished run.
func (r *RunRecorder) RecordRun(ctx context.Context, run *model.PairingRun) {
	stats := run.Stats()
	r.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", run.Status().String())))
	r.pairings.Add(ctx, int64(stats.Perfect), metric.WithAttributes(attribute.Bool("perfect", true)))
	r.pairings.Add(ctx, int64(stats.Imperfect), metric.WithAttributes(attribute.Bool("perfect", false)))
	r.totalDifference.Record(ctx, stats.TotalDifference.InexactFloat64())
}
