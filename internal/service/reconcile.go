package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/octobees/sitecatalog/internal/entity"
	"github.com/octobees/sitecatalog/internal/logging"
	"github.com/octobees/sitecatalog/internal/repository"
)

// Reconciler merges one normalized record into the local catalog.
type Reconciler struct {
	repo   repository.CatalogRepository
	logger *zap.Logger
}

// NewReconciler builds a Reconciler on top of the catalog repository.
func NewReconciler(repo repository.CatalogRepository, logger *zap.Logger) *Reconciler {
	logger = logging.OrNop(logger)
	return &Reconciler{repo: repo, logger: logger}
}

// Reconcile upserts entry by external id and replaces its contact set with the deduplicated,
// re-ordered contacts. It returns the local website id.
func (r *Reconciler) Reconcile(ctx context.Context, entry entity.NormalizedEntry) (uuid.UUID, error) {
	entry.ExternalID = strings.TrimSpace(entry.ExternalID)
	if entry.ExternalID == "" {
		return uuid.Nil, fmt.Errorf("%w: external id is empty", ErrInvalidEntry)
	}
	if strings.TrimSpace(entry.OverallQuality) == "" {
		entry.OverallQuality = DeriveOverallQuality(entry.DomainRating, entry.TotalTraffic)
	}

	contacts := AssignPrimaryByOrder(DedupeContacts(entry.Contacts))
	if dropped := len(entry.Contacts) - len(contacts); dropped > 0 {
		r.logger.Debug("collapsed duplicate contacts",
			zap.String("external_id", entry.ExternalID),
			zap.Int("dropped", dropped),
		)
	}

	id, err := r.repo.ReconcileEntry(ctx, entry, toContactRecords(contacts))
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
