package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/sitecatalog/internal/entity"
)

// ErrDuplicateContact indicates the contact set handed to ReconcileEntry was not deduplicated.
var ErrDuplicateContact = errors.New("duplicate contact email for website")

// CatalogRepository persists catalog entries and their contact sets.
type CatalogRepository interface {
	Exists(ctx context.Context, externalID string) (bool, error)
	ReconcileEntry(ctx context.Context, entry entity.NormalizedEntry, contacts []entity.ContactRecord) (uuid.UUID, error)
}

// PGXCatalogRepository implements CatalogRepository using pgx.
type PGXCatalogRepository struct {
	pool pgxPool
}

// NewPGXCatalogRepository wires a pgx backed repository.
func NewPGXCatalogRepository(pool *pgxpool.Pool) *PGXCatalogRepository {
	return &PGXCatalogRepository{pool: pool}
}

// Exists reports whether an entry with the given external id is stored.
func (r *PGXCatalogRepository) Exists(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM catalog_entries WHERE external_id = $1)`, externalID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("probe catalog entry %q: %w", externalID, err)
	}
	return exists, nil
}

const upsertEntrySQL = `
        INSERT INTO catalog_entries (
            external_id,
            domain,
            domain_rating,
            total_traffic,
            guest_post_cost,
            link_insert_cost,
            categories,
            website_type,
            niche,
            has_guest_post,
            has_link_insert,
            status,
            overall_quality,
            external_created_at,
            external_updated_at,
            last_synced_at,
            updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW(), NOW())
        ON CONFLICT (external_id) DO UPDATE SET
            domain = EXCLUDED.domain,
            domain_rating = EXCLUDED.domain_rating,
            total_traffic = EXCLUDED.total_traffic,
            guest_post_cost = EXCLUDED.guest_post_cost,
            link_insert_cost = EXCLUDED.link_insert_cost,
            categories = EXCLUDED.categories,
            website_type = EXCLUDED.website_type,
            niche = EXCLUDED.niche,
            has_guest_post = EXCLUDED.has_guest_post,
            has_link_insert = EXCLUDED.has_link_insert,
            status = EXCLUDED.status,
            overall_quality = EXCLUDED.overall_quality,
            external_created_at = EXCLUDED.external_created_at,
            external_updated_at = NOW(),
            last_synced_at = NOW(),
            updated_at = NOW()
        RETURNING id;
    `

const deleteContactsSQL = `DELETE FROM contact_records WHERE website_id = $1`

const insertContactSQL = `
        INSERT INTO contact_records (
            website_id,
            email,
            position,
            is_primary,
            has_paid_guest_post,
            has_swap_option,
            guest_post_cost,
            link_insert_cost,
            requirement,
            status
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
    `

// ReconcileEntry upserts the entry keyed by external id and replaces its contact set,
// all inside one transaction. contacts must already be deduplicated and ordered.
func (r *PGXCatalogRepository) ReconcileEntry(ctx context.Context, entry entity.NormalizedEntry, contacts []entity.ContactRecord) (uuid.UUID, error) {
	if entry.ExternalID == "" {
		return uuid.Nil, fmt.Errorf("reconcile entry: external id is empty")
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return uuid.Nil, fmt.Errorf("start reconcile tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var websiteID uuid.UUID
	err = tx.QueryRow(ctx, upsertEntrySQL,
		entry.ExternalID,
		entry.Domain,
		entry.DomainRating,
		entry.TotalTraffic,
		entry.GuestPostCost,
		entry.LinkInsertCost,
		stringSliceOrEmpty(entry.Categories),
		stringSliceOrEmpty(entry.WebsiteType),
		stringSliceOrEmpty(entry.Niche),
		entry.HasGuestPost,
		entry.HasLinkInsert,
		entry.Status,
		entry.OverallQuality,
		entry.ExternalCreatedAt,
	).Scan(&websiteID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert catalog entry %q: %w", entry.ExternalID, err)
	}

	if _, err := tx.Exec(ctx, deleteContactsSQL, websiteID); err != nil {
		return uuid.Nil, fmt.Errorf("clear contacts for %q: %w", entry.ExternalID, err)
	}

	for _, contact := range contacts {
		_, err := tx.Exec(ctx, insertContactSQL,
			websiteID,
			contact.Email,
			contact.Position,
			contact.IsPrimary,
			contact.HasPaidGuestPost,
			contact.HasSwapOption,
			contact.GuestPostCost,
			contact.LinkInsertCost,
			contact.Requirement,
			contact.Status,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return uuid.Nil, fmt.Errorf("insert contact %q for %q: %w", contact.Email, entry.ExternalID, ErrDuplicateContact)
			}
			return uuid.Nil, fmt.Errorf("insert contact %q for %q: %w", contact.Email, entry.ExternalID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit reconcile tx: %w", err)
	}

	return websiteID, nil
}

func stringSliceOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
