package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/octobees/sitecatalog/internal/dto"
	"github.com/octobees/sitecatalog/internal/entity"
	"github.com/octobees/sitecatalog/internal/logging"
	"github.com/octobees/sitecatalog/internal/metrics"
	"github.com/octobees/sitecatalog/internal/repository"
)

const defaultQualificationStatus = "qualified"

// QualificationService records which websites were accepted for a client.
type QualificationService struct {
	repo      repository.QualificationRepository
	validator *Validator
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewQualificationService builds a QualificationService.
func NewQualificationService(repo repository.QualificationRepository, m *metrics.Metrics, logger *zap.Logger) *QualificationService {
	logger = logging.OrNop(logger)
	if m == nil {
		m = metrics.New()
	}
	return &QualificationService{
		repo:      repo,
		validator: NewValidator(),
		metrics:   m,
		logger:    logger.Named("qualify"),
	}
}

// Qualify writes one mark per distinct website id. The batch is all-or-nothing.
func (s *QualificationService) Qualify(ctx context.Context, req dto.QualifyRequest) (dto.QualifyResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return dto.QualifyResult{}, err
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = defaultQualificationStatus
	}
	var notes *string
	if req.Notes != nil {
		if trimmed := strings.TrimSpace(*req.Notes); trimmed != "" {
			notes = &trimmed
		}
	}

	ids := uniqueIDs(req.WebsiteIDs)
	marks := make([]entity.QualificationMark, 0, len(ids))
	for _, id := range ids {
		marks = append(marks, entity.QualificationMark{
			WebsiteID:   id,
			ClientID:    req.ClientID,
			ProjectID:   req.ProjectID,
			QualifiedBy: req.ActorID,
			Status:      status,
			Notes:       notes,
		})
	}

	saved, err := s.repo.UpsertMarks(ctx, marks)
	if err != nil {
		s.logger.Warn("qualification batch rejected",
			zap.String("client_id", req.ClientID.String()),
			zap.Int("websites", len(ids)),
			zap.Error(err),
		)
		return dto.QualifyResult{}, err
	}

	s.metrics.QualificationMarks.Add(float64(len(saved)))
	s.logger.Info("websites qualified",
		zap.String("client_id", req.ClientID.String()),
		zap.String("actor_id", req.ActorID.String()),
		zap.Int("marked", len(saved)),
	)
	return dto.QualifyResult{Marked: len(saved), WebsiteIDs: ids}, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
