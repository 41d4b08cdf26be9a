package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/octobees/sitecatalog/internal/config"
	"github.com/octobees/sitecatalog/internal/dto"
	"github.com/octobees/sitecatalog/internal/entity"
	"github.com/octobees/sitecatalog/internal/logging"
	"github.com/octobees/sitecatalog/internal/metrics"
	"github.com/octobees/sitecatalog/internal/repository"
)

const defaultSearchLimit = 20

// SearchService answers filtered catalog queries with a page of rows and the full total.
type SearchService struct {
	repo     repository.SearchRepository
	maxLimit int
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewSearchService builds a SearchService.
func NewSearchService(repo repository.SearchRepository, cfg config.SearchConfig, m *metrics.Metrics, logger *zap.Logger) *SearchService {
	logger = logging.OrNop(logger)
	if m == nil {
		m = metrics.New()
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 500
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SearchService{
		repo:     repo,
		maxLimit: cfg.MaxLimit,
		timeout:  cfg.Timeout,
		metrics:  m,
		logger:   logger.Named("search"),
	}
}

// Search validates filter, then runs the count and page queries concurrently.
func (s *SearchService) Search(ctx context.Context, filter dto.SearchFilter) (dto.SearchResult, error) {
	filter, err := s.prepare(filter)
	if err != nil {
		s.metrics.SearchRequests.WithLabelValues("invalid").Inc()
		return dto.SearchResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	var (
		total int
		rows  []entity.CatalogEntryWithContacts
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.Count(gctx, filter)
		total = n
		return err
	})
	g.Go(func() error {
		page, err := s.repo.Page(gctx, filter)
		rows = page
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.SearchRequests.WithLabelValues("error").Inc()
		s.logger.Error("search failed", zap.Error(err))
		return dto.SearchResult{}, fmt.Errorf("search catalog: %w", err)
	}

	s.metrics.SearchRequests.WithLabelValues("ok").Inc()
	s.metrics.SearchDuration.Observe(time.Since(started).Seconds())

	if rows == nil {
		rows = []entity.CatalogEntryWithContacts{}
	}
	return dto.SearchResult{Rows: rows, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// prepare applies pagination defaults and rejects contradictory filters.
func (s *SearchService) prepare(filter dto.SearchFilter) (dto.SearchFilter, error) {
	filter.SearchTerm = strings.TrimSpace(filter.SearchTerm)

	if filter.OnlyQualified && filter.OnlyUnqualified {
		return filter, invalid("only_qualified and only_unqualified are mutually exclusive")
	}
	if (filter.OnlyQualified || filter.OnlyUnqualified) && filter.ClientID == nil {
		return filter, invalid("client_id is required when filtering by qualification")
	}
	if filter.ProjectID != nil && filter.ClientID == nil {
		return filter, invalid("project_id requires client_id")
	}
	if filter.Offset < 0 {
		return filter, invalid("offset must be >= 0, got %d", filter.Offset)
	}

	if err := checkRange("dr", filter.MinDomainRating, filter.MaxDomainRating); err != nil {
		return filter, err
	}
	if err := checkRange("traffic", filter.MinTraffic, filter.MaxTraffic); err != nil {
		return filter, err
	}
	if err := checkRange("cost", filter.MinCost, filter.MaxCost); err != nil {
		return filter, err
	}
	if err := checkWindow("external_created", filter.ExternalCreatedFrom, filter.ExternalCreatedTo); err != nil {
		return filter, err
	}
	if err := checkWindow("external_updated", filter.ExternalUpdatedFrom, filter.ExternalUpdatedTo); err != nil {
		return filter, err
	}
	if err := checkWindow("last_synced", filter.LastSyncedFrom, filter.LastSyncedTo); err != nil {
		return filter, err
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultSearchLimit
	}
	if filter.Limit > s.maxLimit {
		filter.Limit = s.maxLimit
	}
	return filter, nil
}

func checkRange[T int64 | float64](name string, lo, hi *T) error {
	if lo != nil && hi != nil && *lo > *hi {
		return invalid("min_%s must not exceed max_%s", name, name)
	}
	return nil
}

func checkWindow(name string, from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return invalid("%s_from must not be after %s_to", name, name)
	}
	return nil
}
