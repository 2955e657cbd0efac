package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nodalpair/nodalpair/internal/domain/model"
	"github.com/nodalpair/nodalpair/internal/domain/valueobject"
	pkgpostgres "github.com/nodalpair/nodalpair/pkg/postgres"
)

// PairingRunRepository implements port.PairingRepository using PostgreSQL.
type PairingRunRepository struct {
	pool *pgxpool.Pool
}

// NewPairingRunRepository creates a new PostgreSQL-backed pairing run repository.
func NewPairingRunRepository(pool *pgxpool.Pool) *PairingRunRepository {
	return &PairingRunRepository{pool: pool}
}

// Save persists a pairing run and its pairings in one transaction. Saving
// the same run twice is a no-op.
func (r *PairingRunRepository) Save(ctx context.Context, run *model.PairingRun) error {
	return pkgpostgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		inserted, err := insertRun(ctx, tx, run)
		if err != nil || !inserted {
			return err
		}
		return insertPairings(ctx, tx, run)
	})
}

func insertRun(ctx context.Context, q pkgpostgres.Querier, run *model.PairingRun) (bool, error) {
	stats := run.Stats()
	tag, err := q.Exec(ctx, `
		INSERT INTO pairing_runs (
			id, status, passes, pairs, perfect, imperfect, total_difference, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`,
		run.ID(),
		run.Status().String(),
		run.Passes(),
		len(run.Pairings()),
		stats.Perfect,
		stats.Imperfect,
		stats.TotalDifference,
		run.CreatedAt(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to save pairing run: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func insertPairings(ctx context.Context, tx pgx.Tx, run *model.PairingRun) error {
	pairings := run.Pairings()
	if len(pairings) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range pairings {
		batch.Queue(`
			INSERT INTO pairings (run_id, slnb_id, elnd_id, slnb_score, elnd_score, difference, perfect)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, run.ID(), p.SLNBID, p.ELNDID, p.SLNBScore, p.ELNDScore, p.Difference, p.Perfect)
	}

	results := tx.SendBatch(ctx, batch)
	for range pairings {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to save pairing: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to save pairings: %w", err)
	}
	return nil
}

// FindLatest retrieves the most recently created pairing run.
func (r *PairingRunRepository) FindLatest(ctx context.Context) (*model.PairingRun, error) {
	var (
		id        uuid.UUID
		statusStr string
		passes    int
		createdAt time.Time
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, status, passes, created_at
		FROM pairing_runs
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`).Scan(&id, &statusStr, &passes, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to scan pairing run: %w", err)
	}

	status, err := valueobject.RunStatusFromString(statusStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run status: %w", err)
	}

	pairings, err := r.loadPairings(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}

	return model.ReconstructRun(id, status, pairings, passes, createdAt.UTC()), nil
}

func (r *PairingRunRepository) loadPairings(ctx context.Context, q pkgpostgres.Querier, runID uuid.UUID) ([]model.Pairing, error) {
	rows, err := q.Query(ctx, `
		SELECT slnb_id, elnd_id, slnb_score::text, elnd_score::text, difference::text, perfect
		FROM pairings
		WHERE run_id = $1
		ORDER BY slnb_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pairings: %w", err)
	}
	defer rows.Close()

	var pairings []model.Pairing
	for rows.Next() {
		var p model.Pairing
		if err := rows.Scan(&p.SLNBID, &p.ELNDID, &p.SLNBScore, &p.ELNDScore, &p.Difference, &p.Perfect); err != nil {
			return nil, fmt.Errorf("failed to scan pairing row: %w", err)
		}
		pairings = append(pairings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pairings: %w", err)
	}

	return pairings, nil
}
