package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/sitecatalog/internal/entity"
)

// ErrSyncRunSealed is returned when sealing a run that is missing or already sealed.
var ErrSyncRunSealed = errors.New("sync run already sealed or missing")

// SyncRunCounts are the tallies written when a run is sealed.
type SyncRunCounts struct {
	Processed int
	Created   int
	Updated   int
	Failed    int
}

// SyncRunRepository stores the sync audit log.
type SyncRunRepository interface {
	Open(ctx context.Context, syncType, action string) (entity.SyncRun, error)
	Seal(ctx context.Context, id uuid.UUID, status string, counts SyncRunCounts, errMsg *string) error
	ListRecent(ctx context.Context, limit int) ([]entity.SyncRun, error)
}

// PGXSyncRunRepository implements SyncRunRepository using pgx.
type PGXSyncRunRepository struct {
	pool pgxPool
}

// NewPGXSyncRunRepository wires a pgx backed repository.
func NewPGXSyncRunRepository(pool *pgxpool.Pool) *PGXSyncRunRepository {
	return &PGXSyncRunRepository{pool: pool}
}

// Open inserts an in-progress run.
func (r *PGXSyncRunRepository) Open(ctx context.Context, syncType, action string) (entity.SyncRun, error) {
	run := entity.SyncRun{SyncType: syncType, Action: action, Status: entity.SyncStatusInProgress}
	err := r.pool.QueryRow(ctx, `
        INSERT INTO sync_runs (sync_type, action, status, started_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING id, started_at
    `, syncType, action, entity.SyncStatusInProgress).Scan(&run.ID, &run.StartedAt)
	if err != nil {
		return entity.SyncRun{}, fmt.Errorf("open sync run: %w", err)
	}
	return run, nil
}

// Seal closes an in-progress run exactly once.
func (r *PGXSyncRunRepository) Seal(ctx context.Context, id uuid.UUID, status string, counts SyncRunCounts, errMsg *string) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE sync_runs SET
            status = $2,
            completed_at = NOW(),
            records_processed = $3,
            records_created = $4,
            records_updated = $5,
            records_failed = $6,
            error = $7
        WHERE id = $1 AND status = 'in_progress'
    `, id, status, counts.Processed, counts.Created, counts.Updated, counts.Failed, errMsg)
	if err != nil {
		return fmt.Errorf("seal sync run %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSyncRunSealed
	}
	return nil
}

// ListRecent returns the newest runs first.
func (r *PGXSyncRunRepository) ListRecent(ctx context.Context, limit int) ([]entity.SyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `
        SELECT id, sync_type, action, status, started_at, completed_at,
               records_processed, records_created, records_updated, records_failed, error
        FROM sync_runs
        ORDER BY started_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []entity.SyncRun
	for rows.Next() {
		var run entity.SyncRun
		if err := rows.Scan(
			&run.ID,
			&run.SyncType,
			&run.Action,
			&run.Status,
			&run.StartedAt,
			&run.CompletedAt,
			&run.RecordsProcessed,
			&run.RecordsCreated,
			&run.RecordsUpdated,
			&run.RecordsFailed,
			&run.Error,
		); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync runs: %w", err)
	}

	return runs, nil
}
