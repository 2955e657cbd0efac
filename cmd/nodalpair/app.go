package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nodalpair/nodalpair/internal/domain/port"
	"github.com/nodalpair/nodalpair/internal/domain/service"
	"github.com/nodalpair/nodalpair/internal/infrastructure/config"
	"github.com/nodalpair/nodalpair/internal/infrastructure/filestore"
	"github.com/nodalpair/nodalpair/internal/infrastructure/kafka"
	"github.com/nodalpair/nodalpair/internal/infrastructure/postgres"
	"github.com/nodalpair/nodalpair/internal/infrastructure/telemetry"
	pkgkafka "github.com/nodalpair/nodalpair/pkg/kafka"
	"github.com/nodalpair/nodalpair/pkg/observability"
	pkgpostgres "github.com/nodalpair/nodalpair/pkg/postgres"
)

const serviceName = "nodalpair"

// app holds the adapters shared by every command of one process.
type app struct {
	cfg      config.Config
	study    *config.Study
	logger   *slog.Logger
	metrics  *observability.Metrics
	recorder *telemetry.RunRecorder
	pool     *pgxpool.Pool
	closers  []func(context.Context) error
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	a := &app{cfg: cfg, logger: logger}

	if cfg.Telemetry.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
			Insecure:    cfg.Telemetry.OTLPInsecure,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			a.closers = append(a.closers, shutdown)
		}
	}

	metrics, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		PushgatewayURL: cfg.Telemetry.PushgatewayURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	a.metrics = metrics
	a.closers = append(a.closers, metrics.Shutdown)

	a.recorder, err = telemetry.NewRunRecorder(metrics.Provider)
	if err != nil {
		return nil, err
	}

	a.study, err = config.LoadStudy(cfg.StudyPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("study loaded",
		"variables", a.study.Schema.Names(),
		"missing_value_threshold", a.threshold(),
	)

	return a, nil
}

// threshold returns the missing-value threshold, preferring the environment
// over the study file.
func (a *app) threshold() int {
	if a.cfg.MissingValueThreshold >= 0 {
		return a.cfg.MissingValueThreshold
	}
	return a.study.MissingValueThreshold
}

func (a *app) paths(reportFormat string) config.Paths {
	return a.cfg.Paths(reportFormat)
}

func (a *app) recordStore() *filestore.RecordStore {
	p := a.paths("")
	return filestore.NewRecordStore(p.SLNB, p.ELND)
}

// pairingRepositories returns the JSON store, followed by Postgres when a
// database is configured. Reads go to the JSON store.
func (a *app) pairingRepositories(ctx context.Context) ([]port.PairingRepository, error) {
	repos := []port.PairingRepository{filestore.NewPairingStore(a.paths("").Pairings)}
	if a.cfg.DatabaseURL == "" {
		return repos, nil
	}

	pool, err := a.database(ctx)
	if err != nil {
		return nil, err
	}
	return append(repos, postgres.NewPairingRunRepository(pool)), nil
}

func (a *app) database(ctx context.Context) (*pgxpool.Pool, error) {
	if a.pool != nil {
		return a.pool, nil
	}
	if err := postgres.Migrate(a.cfg.DatabaseURL); err != nil {
		return nil, err
	}
	pool, err := pkgpostgres.NewPool(ctx, pkgpostgres.Config{URL: a.cfg.DatabaseURL, MaxConns: 4})
	if err != nil {
		return nil, err
	}
	a.logger.Info("connected to database")
	a.pool = pool
	return pool, nil
}

func (a *app) publisher() (port.EventPublisher, error) {
	if !a.cfg.Kafka.Enabled() {
		return kafka.NewLogPublisher(a.logger), nil
	}
	producer, err := pkgkafka.NewProducer(a.cfg.Kafka.Client(serviceName))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return producer.Close() })
	return kafka.NewPublisher(producer, a.cfg.Kafka.Topic, a.logger), nil
}

func (a *app) pipeline() (*service.Pipeline, error) {
	return service.NewPipeline(a.study.Schema, a.study.Ratios)
}

// close pushes metrics and releases every adapter in reverse order.
func (a *app) close(ctx context.Context) {
	if err := a.metrics.Push(ctx); err != nil {
		a.logger.Warn("failed to push metrics", "error", err)
	}
	if a.pool != nil {
		a.pool.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("shutdown error", "error", err)
		}
	}
}
