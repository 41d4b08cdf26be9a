package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/sitecatalog/internal/entity"
)

func sampleContacts() []entity.ContactRecord {
	cost := 500.0
	return []entity.ContactRecord{
		{Email: "a@x.com", Position: 0, IsPrimary: true, HasPaidGuestPost: true, GuestPostCost: &cost},
		{Email: "b@x.com", Position: 1},
	}
}

func TestPGXCatalogRepository_ReconcileEntry(t *testing.T) {
	websiteID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	tx := &stubTx{queryRowFunc: func(query string, args ...any) pgx.Row {
		return &stubRow{scan: func(dest ...any) error {
			*dest[0].(*uuid.UUID) = websiteID
			return nil
		}}
	}}
	repo := &PGXCatalogRepository{pool: poolWithTx(tx)}

	id, err := repo.ReconcileEntry(context.Background(), entity.NormalizedEntry{ExternalID: "rec1", Domain: "x.com"}, sampleContacts())
	require.NoError(t, err)
	assert.Equal(t, websiteID, id)
	assert.True(t, tx.committed)

	require.Len(t, tx.calls, 4)
	assert.Contains(t, tx.calls[0].query, "ON CONFLICT (external_id) DO UPDATE")
	assert.Contains(t, tx.calls[0].query, "last_synced_at = NOW()")
	assert.Contains(t, tx.calls[0].query, "external_updated_at = NOW()")
	assert.Equal(t, "rec1", tx.calls[0].args[0])
	assert.Equal(t, []string{}, tx.calls[0].args[6], "nil arrays are stored as empty arrays")

	assert.True(t, strings.HasPrefix(tx.calls[1].query, "DELETE FROM contact_records"))
	assert.Equal(t, websiteID, tx.calls[1].args[0])

	assert.Equal(t, "a@x.com", tx.calls[2].args[1])
	assert.Equal(t, 0, tx.calls[2].args[2])
	assert.Equal(t, true, tx.calls[2].args[3])
	assert.Equal(t, "b@x.com", tx.calls[3].args[1])
	assert.Equal(t, 1, tx.calls[3].args[2])
	assert.Equal(t, false, tx.calls[3].args[3])
}

func TestPGXCatalogRepository_ReconcileEntry_RollsBackOnContactFailure(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(query string, args ...any) pgx.Row {
			return &stubRow{scan: func(dest ...any) error {
				*dest[0].(*uuid.UUID) = uuid.New()
				return nil
			}}
		},
		execFunc: func(query string, args ...any) (pgconn.CommandTag, error) {
			if strings.Contains(query, "INSERT INTO contact_records") && args[1] == "b@x.com" {
				return pgconn.CommandTag{}, errors.New("boom")
			}
			return pgconn.NewCommandTag("DELETE 2"), nil
		},
	}
	repo := &PGXCatalogRepository{pool: poolWithTx(tx)}

	_, err := repo.ReconcileEntry(context.Background(), entity.NormalizedEntry{ExternalID: "rec1"}, sampleContacts())
	require.Error(t, err)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestPGXCatalogRepository_ReconcileEntry_DuplicateContact(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(query string, args ...any) pgx.Row {
			return &stubRow{scan: func(dest ...any) error {
				*dest[0].(*uuid.UUID) = uuid.New()
				return nil
			}}
		},
		execFunc: func(query string, args ...any) (pgconn.CommandTag, error) {
			if strings.Contains(query, "INSERT INTO contact_records") {
				return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"}
			}
			return pgconn.NewCommandTag("DELETE 0"), nil
		},
	}
	repo := &PGXCatalogRepository{pool: poolWithTx(tx)}

	_, err := repo.ReconcileEntry(context.Background(), entity.NormalizedEntry{ExternalID: "rec1"}, sampleContacts())
	require.ErrorIs(t, err, ErrDuplicateContact)
	assert.True(t, tx.rolledBack)
}

func TestPGXCatalogRepository_ReconcileEntry_UpsertFailure(t *testing.T) {
	tx := &stubTx{queryRowFunc: func(query string, args ...any) pgx.Row {
		return &stubRow{scan: func(dest ...any) error { return errors.New("constraint") }}
	}}
	repo := &PGXCatalogRepository{pool: poolWithTx(tx)}

	_, err := repo.ReconcileEntry(context.Background(), entity.NormalizedEntry{ExternalID: "rec1"}, sampleContacts())
	require.Error(t, err)
	assert.Len(t, tx.calls, 1, "no contact statement runs after a failed upsert")
	assert.True(t, tx.rolledBack)
}

func TestPGXCatalogRepository_ReconcileEntry_EmptyExternalID(t *testing.T) {
	repo := &PGXCatalogRepository{pool: &stubPool{}}
	_, err := repo.ReconcileEntry(context.Background(), entity.NormalizedEntry{}, nil)
	require.Error(t, err)
}

func TestPGXCatalogRepository_Exists(t *testing.T) {
	repo := &PGXCatalogRepository{pool: &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return &stubRow{scan: func(dest ...any) error {
				*dest[0].(*bool) = args[0] == "known"
				return nil
			}}
		},
	}}

	exists, err := repo.Exists(context.Background(), "known")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, exists)
}
