package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/nodalpair/nodalpair"

// Stage times one step of a batch run. It logs its duration and closes a
// trace span when ended.
type Stage struct {
	start  time.Time
	logger *slog.Logger
	span   trace.Span
	name   string
}

// StartStage opens a span named after the stage and starts its timer. The
// returned context carries the span.
func StartStage(ctx context.Context, logger *slog.Logger, name string) (context.Context, *Stage) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	return ctx, &Stage{
		name:   name,
		logger: logger,
		span:   span,
		start:  time.Now(),
	}
}

// End logs the elapsed time and ends the span, marking it failed when err is non-nil.
func (s *Stage) End(err error) time.Duration {
	elapsed := time.Since(s.start)
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("stage failed", "stage", s.name, "elapsed", elapsed, "error", err)
	} else {
		s.logger.Info("stage finished", "stage", s.name, "elapsed", elapsed)
	}
	s.span.End()
	return elapsed
}
