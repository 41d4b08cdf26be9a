package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/sitecatalog/internal/airtable"
	"github.com/octobees/sitecatalog/internal/service"
)

// SyncHandler triggers and reports catalog syncs.
type SyncHandler struct {
	service *service.SyncService
}

// NewSyncHandler creates a new handler instance.
func NewSyncHandler(service *service.SyncService) *SyncHandler {
	return &SyncHandler{service: service}
}

// Trigger handles POST /admin/sync. The sync outlives a dropped client connection.
func (h *SyncHandler) Trigger(c echo.Context) error {
	ctx := context.WithoutCancel(c.Request().Context())

	result, err := h.service.RunFullSync(ctx)
	if err != nil {
		var apiErr *airtable.APIError
		switch {
		case errors.Is(err, service.ErrSyncInProgress):
			return Error(c, http.StatusConflict, err.Error())
		case errors.Is(err, airtable.ErrNotConfigured), errors.As(err, &apiErr):
			return Failure(c, http.StatusBadGateway, err.Error(), result)
		default:
			return Failure(c, http.StatusInternalServerError, "catalog sync failed", result)
		}
	}

	return Success(c, http.StatusOK, "catalog synced", result)
}

// Runs handles GET /admin/sync/runs.
func (h *SyncHandler) Runs(c echo.Context) error {
	q := &queryReader{c: c}
	limit := q.intOr("limit", 20)
	if q.err != nil {
		return Error(c, http.StatusBadRequest, q.err.Error())
	}

	runs, err := h.service.ListRuns(c.Request().Context(), limit)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list sync runs")
	}

	return Success(c, http.StatusOK, "sync runs retrieved", map[string]any{
		"running": h.service.Running(),
		"runs":    runs,
	})
}
