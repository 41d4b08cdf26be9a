package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/sitecatalog/internal/entity"
)

// ErrWebsiteNotFound is returned when a qualification references an unknown website.
var ErrWebsiteNotFound = errors.New("website not found")

// QualificationRepository writes qualification marks.
type QualificationRepository interface {
	UpsertMarks(ctx context.Context, marks []entity.QualificationMark) ([]entity.QualificationMark, error)
}

// PGXQualificationRepository implements QualificationRepository using pgx.
type PGXQualificationRepository struct {
	pool pgxPool
}

// NewPGXQualificationRepository wires a pgx backed repository.
func NewPGXQualificationRepository(pool *pgxpool.Pool) *PGXQualificationRepository {
	return &PGXQualificationRepository{pool: pool}
}

const upsertMarkSQL = `
        INSERT INTO qualification_marks (website_id, client_id, project_id, qualified_by, status, notes, qualified_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        ON CONFLICT ON CONSTRAINT qualification_marks_scope_key DO UPDATE SET
            status = EXCLUDED.status,
            notes = EXCLUDED.notes,
            qualified_by = EXCLUDED.qualified_by,
            qualified_at = NOW()
        RETURNING id, qualified_at;
    `

// UpsertMarks writes every mark in a single transaction. One (website, client, project)
// triple holds at most one mark; a repeated triple refreshes status, notes, actor and time.
// Any failure rolls back the whole batch.
func (r *PGXQualificationRepository) UpsertMarks(ctx context.Context, marks []entity.QualificationMark) ([]entity.QualificationMark, error) {
	if len(marks) == 0 {
		return nil, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("start qualification tx: %w", err)
	}
	defer tx.Rollback(ctx)

	saved := make([]entity.QualificationMark, 0, len(marks))
	for _, mark := range marks {
		err := tx.QueryRow(ctx, upsertMarkSQL,
			mark.WebsiteID,
			mark.ClientID,
			mark.ProjectID,
			mark.QualifiedBy,
			mark.Status,
			mark.Notes,
		).Scan(&mark.ID, &mark.QualifiedAt)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, fmt.Errorf("qualify website %s: %w", mark.WebsiteID, ErrWebsiteNotFound)
			}
			return nil, fmt.Errorf("qualify website %s: %w", mark.WebsiteID, err)
		}
		saved = append(saved, mark)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit qualification tx: %w", err)
	}

	return saved, nil
}
