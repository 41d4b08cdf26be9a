package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/sitecatalog/internal/auth"
	"github.com/octobees/sitecatalog/internal/config"
	"github.com/octobees/sitecatalog/internal/handler"
	"github.com/octobees/sitecatalog/internal/metrics"
	middlewarepkg "github.com/octobees/sitecatalog/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Websites       *handler.WebsitesHandler
	Qualifications *handler.QualificationsHandler
	Sync           *handler.SyncHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, m *metrics.Metrics, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(jwtManager))

	secured.GET("/websites", handlers.Websites.List)
	secured.POST("/websites/search", handlers.Websites.Search)
	secured.POST("/qualifications", handlers.Qualifications.Create)

	admin := secured.Group("/admin", middlewarepkg.RequireRole(auth.RoleAdmin))
	admin.POST("/sync", handlers.Sync.Trigger, middlewarepkg.RateLimiter(cfg.RateLimitSync))
	admin.GET("/sync/runs", handlers.Sync.Runs)
}
