package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/octobees/sitecatalog/internal/airtable"
	"github.com/octobees/sitecatalog/internal/config"
	"github.com/octobees/sitecatalog/internal/database"
	"github.com/octobees/sitecatalog/internal/logging"
	"github.com/octobees/sitecatalog/internal/metrics"
	"github.com/octobees/sitecatalog/internal/repository"
	"github.com/octobees/sitecatalog/internal/service"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sitecatalog",
		Short:         "Guest-post catalog mirror and search API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	serve := newServeCommand()
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, newSyncCommand(), newMigrateCommand(), newTokenCommand())
	return root
}

// app holds the dependencies shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	pool    *pgxpool.Pool
	metrics *metrics.Metrics

	sync          *service.SyncService
	search        *service.SearchService
	qualification *service.QualificationService
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := database.Connect(connectCtx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	m := metrics.New()
	if !cfg.AirtableConfigured() {
		logger.Warn("airtable credentials missing, catalog sync will fail until configured")
	}
	reader := airtable.NewClient(airtable.Options{
		APIKey:  cfg.Airtable.APIKey,
		BaseID:  cfg.Airtable.BaseID,
		Table:   cfg.Airtable.Table,
		View:    cfg.Airtable.View,
		BaseURL: cfg.Airtable.BaseURL,
		RPS:     cfg.Airtable.RPS,
		Logger:  logger,
	})

	catalogRepo := repository.NewPGXCatalogRepository(pool)
	runsRepo := repository.NewPGXSyncRunRepository(pool)

	return &app{
		cfg:           cfg,
		logger:        logger,
		pool:          pool,
		metrics:       m,
		sync:          service.NewSyncService(reader, catalogRepo, runsRepo, cfg.Sync, m, logger),
		search:        service.NewSearchService(repository.NewPGXSearchRepository(pool), cfg.Search, m, logger),
		qualification: service.NewQualificationService(repository.NewPGXQualificationRepository(pool), m, logger),
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
	_ = a.logger.Sync()
}

func (a *app) migrate() error {
	version, err := database.Migrate(a.pool)
	if err != nil {
		return err
	}
	a.logger.Info("schema migrated", zap.Uint("version", version))
	return nil
}
