package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/octobees/sitecatalog/internal/airtable"
	"github.com/octobees/sitecatalog/internal/config"
	"github.com/octobees/sitecatalog/internal/dto"
	"github.com/octobees/sitecatalog/internal/entity"
	"github.com/octobees/sitecatalog/internal/logging"
	"github.com/octobees/sitecatalog/internal/metrics"
	"github.com/octobees/sitecatalog/internal/repository"
)

const (
	syncTypeWebsites = "airtable_websites"
	actionFullSync   = "full_sync"

	// defaultPageDelay keeps paging at five requests per second.
	defaultPageDelay = 200 * time.Millisecond
)

// PageReader reads one page of the external catalog.
type PageReader interface {
	FetchPage(ctx context.Context, filter dto.CatalogFilter, pageSizeHint int, cursor string) (airtable.Page, error)
}

// SyncService pages through the external catalog and reconciles every record locally.
// Only one full sync runs at a time per service.
type SyncService struct {
	reader     PageReader
	catalog    repository.CatalogRepository
	runs       repository.SyncRunRepository
	reconciler *Reconciler
	cfg        config.SyncConfig
	metrics    *metrics.Metrics
	logger     *zap.Logger

	sleep   func(ctx context.Context, d time.Duration) error
	running atomic.Bool
}

// NewSyncService wires the orchestrator.
func NewSyncService(
	reader PageReader,
	catalog repository.CatalogRepository,
	runs repository.SyncRunRepository,
	cfg config.SyncConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *SyncService {
	logger = logging.OrNop(logger)
	if m == nil {
		m = metrics.New()
	}
	if cfg.PageSize <= 0 || cfg.PageSize > airtable.MaxPageSize {
		cfg.PageSize = airtable.MaxPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 100
	}
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = defaultPageDelay
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}

	logger = logger.Named("sync")
	return &SyncService{
		reader:     reader,
		catalog:    catalog,
		runs:       runs,
		reconciler: NewReconciler(catalog, logger),
		cfg:        cfg,
		metrics:    m,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// Running reports whether a full sync is in flight.
func (s *SyncService) Running() bool {
	return s.running.Load()
}

// RunFullSync mirrors the whole external catalog into the local store. Record-level failures
// are counted and skipped. A reader failure aborts the run; the counts reached so far are
// returned alongside the error.
func (s *SyncService) RunFullSync(ctx context.Context) (dto.SyncResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return dto.SyncResult{}, ErrSyncInProgress
	}
	defer s.running.Store(false)

	started := time.Now()
	defer func() { s.metrics.SyncDuration.Observe(time.Since(started).Seconds()) }()

	run, err := s.runs.Open(ctx, syncTypeWebsites, actionFullSync)
	if err != nil {
		s.metrics.SyncRuns.WithLabelValues(entity.SyncStatusFailed).Inc()
		s.logger.Error("open sync run failed", zap.Error(err))
		return dto.SyncResult{}, err
	}

	result := dto.SyncResult{RunID: run.ID}
	log := s.logger.With(zap.String("run_id", run.ID.String()))
	log.Info("catalog sync started", zap.Int("page_size", s.cfg.PageSize), zap.Int("max_pages", s.cfg.MaxPages))

	cursor := ""
	for {
		if result.Pages >= s.cfg.MaxPages {
			result.Truncated = true
			log.Warn("page ceiling reached with records remaining",
				zap.Int("max_pages", s.cfg.MaxPages),
				zap.String("next_cursor", cursor),
			)
			break
		}
		if result.Pages > 0 {
			if err := s.sleep(ctx, s.cfg.PageDelay); err != nil {
				return s.fail(ctx, log, run.ID, result, fmt.Errorf("wait before page %d: %w", result.Pages+1, err))
			}
		}

		page, err := s.fetch(ctx, cursor)
		if err != nil {
			return s.fail(ctx, log, run.ID, result, fmt.Errorf("fetch page %d: %w", result.Pages+1, err))
		}
		result.Pages++
		s.metrics.SyncPagesFetched.Inc()

		for _, entry := range page.Records {
			s.reconcileOne(ctx, log, entry, &result)
		}
		log.Debug("page reconciled",
			zap.Int("page", result.Pages),
			zap.Int("records", len(page.Records)),
			zap.Bool("has_more", page.HasMore),
		)

		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	result.Total = result.Created + result.Updated + result.Errors
	if err := s.runs.Seal(context.WithoutCancel(ctx), run.ID, entity.SyncStatusSuccess, countsOf(result), nil); err != nil {
		log.Error("seal sync run failed", zap.Error(err))
		return result, fmt.Errorf("seal sync run: %w", err)
	}

	s.metrics.SyncRuns.WithLabelValues(entity.SyncStatusSuccess).Inc()
	log.Info("catalog sync completed",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.Errors),
		zap.Int("pages", result.Pages),
		zap.Bool("truncated", result.Truncated),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// ListRuns returns the most recent sync runs, newest first.
func (s *SyncService) ListRuns(ctx context.Context, limit int) ([]entity.SyncRun, error) {
	runs, err := s.runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []entity.SyncRun{}
	}
	return runs, nil
}

func (s *SyncService) fetch(ctx context.Context, cursor string) (airtable.Page, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	return s.reader.FetchPage(fetchCtx, dto.CatalogFilter{}, s.cfg.PageSize, cursor)
}

func (s *SyncService) reconcileOne(ctx context.Context, log *zap.Logger, entry entity.NormalizedEntry, result *dto.SyncResult) {
	existed, err := s.catalog.Exists(ctx, entry.ExternalID)
	if err == nil {
		_, err = s.reconciler.Reconcile(ctx, entry)
	}
	if err != nil {
		result.Errors++
		s.metrics.SyncRecords.WithLabelValues("failed").Inc()
		log.Error("reconcile record failed", zap.String("external_id", entry.ExternalID), zap.Error(err))
		return
	}

	if existed {
		result.Updated++
		s.metrics.SyncRecords.WithLabelValues("updated").Inc()
		return
	}
	result.Created++
	s.metrics.SyncRecords.WithLabelValues("created").Inc()
}

func (s *SyncService) fail(ctx context.Context, log *zap.Logger, runID uuid.UUID, result dto.SyncResult, cause error) (dto.SyncResult, error) {
	result.Total = result.Created + result.Updated + result.Errors
	msg := cause.Error()
	if err := s.runs.Seal(context.WithoutCancel(ctx), runID, entity.SyncStatusFailed, countsOf(result), &msg); err != nil {
		log.Error("seal failed sync run", zap.Error(err))
		cause = errors.Join(cause, err)
	}

	s.metrics.SyncRuns.WithLabelValues(entity.SyncStatusFailed).Inc()
	log.Error("catalog sync failed",
		zap.Error(cause),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.Errors),
		zap.Int("pages", result.Pages),
	)
	return result, cause
}

func countsOf(result dto.SyncResult) repository.SyncRunCounts {
	return repository.SyncRunCounts{
		Processed: result.Created + result.Updated + result.Errors,
		Created:   result.Created,
		Updated:   result.Updated,
		Failed:    result.Errors,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
