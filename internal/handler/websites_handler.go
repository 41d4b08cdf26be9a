package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/sitecatalog/internal/dto"
	"github.com/octobees/sitecatalog/internal/service"
)

// WebsitesHandler exposes the catalog search.
type WebsitesHandler struct {
	service *service.SearchService
}

// NewWebsitesHandler creates a new handler instance.
func NewWebsitesHandler(service *service.SearchService) *WebsitesHandler {
	return &WebsitesHandler{service: service}
}

// List handles GET /websites requests.
func (h *WebsitesHandler) List(c echo.Context) error {
	q := &queryReader{c: c}
	filter := dto.SearchFilter{
		CatalogFilter: dto.CatalogFilter{
			MinDomainRating: q.optFloat("min_dr"),
			MaxDomainRating: q.optFloat("max_dr"),
			MinTraffic:      q.optInt64("min_traffic"),
			MaxTraffic:      q.optInt64("max_traffic"),
			MinCost:         q.optFloat("min_cost"),
			MaxCost:         q.optFloat("max_cost"),
			Status:          q.optString("status"),
			HasGuestPost:    q.optBool("has_guest_post"),
			HasLinkInsert:   q.optBool("has_link_insert"),
			SearchTerm:      q.raw("q"),
			Categories:      q.list("categories"),
		},
		WebsiteTypes:        q.list("website_types"),
		Niches:              q.list("niches"),
		HasActiveOfferings:  q.optBool("has_active_offerings"),
		ExternalCreatedFrom: q.optTime("external_created_from"),
		ExternalCreatedTo:   q.optTime("external_created_to"),
		ExternalUpdatedFrom: q.optTime("external_updated_from"),
		ExternalUpdatedTo:   q.optTime("external_updated_to"),
		LastSyncedFrom:      q.optTime("last_synced_from"),
		LastSyncedTo:        q.optTime("last_synced_to"),
		OnlyQualified:       q.flag("only_qualified"),
		OnlyUnqualified:     q.flag("only_unqualified"),
		ClientID:            q.optUUID("client_id"),
		ProjectID:           q.optUUID("project_id"),
		Limit:               q.intOr("limit", 0),
		Offset:              q.intOr("offset", 0),
	}
	if q.err != nil {
		return Error(c, http.StatusBadRequest, q.err.Error())
	}

	return h.search(c, filter)
}

// Search handles POST /websites/search requests carrying the filter as JSON.
func (h *WebsitesHandler) Search(c echo.Context) error {
	var filter dto.SearchFilter
	if err := c.Bind(&filter); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	return h.search(c, filter)
}

func (h *WebsitesHandler) search(c echo.Context, filter dto.SearchFilter) error {
	result, err := h.service.Search(c.Request().Context(), filter)
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			return Invalid(c, vErr)
		case errors.Is(err, context.DeadlineExceeded):
			return Error(c, http.StatusGatewayTimeout, "search timed out")
		default:
			return Error(c, http.StatusInternalServerError, "failed to search websites")
		}
	}

	return Success(c, http.StatusOK, "websites retrieved", result)
}
