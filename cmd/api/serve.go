package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/octobees/sitecatalog/internal/auth"
	"github.com/octobees/sitecatalog/internal/handler"
	middlewarepkg "github.com/octobees/sitecatalog/internal/middleware"
	"github.com/octobees/sitecatalog/internal/router"
	"github.com/octobees/sitecatalog/internal/scheduler"
)

func newServeCommand() *cobra.Command {
	var autoMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if autoMigrate {
				if err := a.migrate(); err != nil {
					return err
				}
			}
			return serve(ctx, a)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", true, "apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(a.logger))
	e.Use(echoMiddleware.Recover())

	router.Register(e, a.cfg, auth.NewJWTManager(a.cfg.JWTSecret, a.cfg.TokenTTL), a.metrics, router.Handlers{
		Websites:       handler.NewWebsitesHandler(a.search),
		Qualifications: handler.NewQualificationsHandler(a.qualification),
		Sync:           handler.NewSyncHandler(a.sync),
	})

	var sched *scheduler.Scheduler
	if a.cfg.Sync.Schedule != "" {
		s, err := scheduler.New(a.cfg.Sync.Schedule, a.sync, a.logger)
		if err != nil {
			return err
		}
		sched = s
		sched.Start()
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", zap.String("port", a.cfg.Port))
		serverErr <- e.Start(":" + a.cfg.Port)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			a.logger.Warn("scheduled sync interrupted by shutdown", zap.Error(err))
		}
	}
	return nil
}
