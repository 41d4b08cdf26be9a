// Package scheduler runs the catalog sync on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/octobees/sitecatalog/internal/dto"
	"github.com/octobees/sitecatalog/internal/logging"
	"github.com/octobees/sitecatalog/internal/service"
)

// Syncer runs one full catalog sync.
type Syncer interface {
	RunFullSync(ctx context.Context) (dto.SyncResult, error)
}

// Scheduler triggers Syncer on a cron expression. Both five-field and seconds-prefixed
// expressions are accepted, as are descriptors like "@hourly" or "@every 30m".
type Scheduler struct {
	cron   *cron.Cron
	entry  cron.EntryID
	syncer Syncer
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New validates spec and registers the sync job. The scheduler is idle until Start.
func New(spec string, syncer Syncer, logger *zap.Logger) (*Scheduler, error) {
	if syncer == nil {
		return nil, errors.New("scheduler: nil syncer")
	}
	logger = logging.OrNop(logger)
	logger = logger.Named("scheduler")

	cronLog := cronLogger{logger.Sugar()}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLogger(cronLog),
		cron.WithChain(
			cron.SkipIfStillRunning(cronLog),
			cron.Recover(cronLog),
		),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{cron: c, syncer: syncer, logger: logger, ctx: ctx, cancel: cancel}

	id, err := c.AddFunc(spec, s.runSync)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("parse sync schedule %q: %w", spec, err)
	}
	s.entry = id
	return s, nil
}

// Start runs the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("sync schedule started", zap.Time("next_run", s.Next()))
}

// Next reports when the sync job fires next. It is zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Stop halts the schedule and waits for an in-flight sync. When ctx ends first the
// running sync is cancelled and Stop still waits for it to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		done := s.cron.Stop()
		select {
		case <-done.Done():
		case <-ctx.Done():
			s.cancel()
			<-done.Done()
			err = ctx.Err()
		}
		s.cancel()
	})
	return err
}

func (s *Scheduler) runSync() {
	result, err := s.syncer.RunFullSync(s.ctx)
	switch {
	case errors.Is(err, service.ErrSyncInProgress):
		s.logger.Info("scheduled sync skipped, another sync is running")
	case err != nil:
		s.logger.Error("scheduled sync failed", zap.Error(err), zap.Int("errors", result.Errors))
	default:
		s.logger.Info("scheduled sync finished",
			zap.String("run_id", result.RunID.String()),
			zap.Int("created", result.Created),
			zap.Int("updated", result.Updated),
			zap.Int("errors", result.Errors),
		)
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
