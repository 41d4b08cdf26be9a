package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/sitecatalog/internal/dto"
	middleware "github.com/octobees/sitecatalog/internal/middleware"
	"github.com/octobees/sitecatalog/internal/repository"
	"github.com/octobees/sitecatalog/internal/service"
)

// QualificationsHandler records qualification decisions.
type QualificationsHandler struct {
	service *service.QualificationService
}

// NewQualificationsHandler creates a new handler instance.
func NewQualificationsHandler(service *service.QualificationService) *QualificationsHandler {
	return &QualificationsHandler{service: service}
}

// Create handles POST /qualifications. The actor is always the authenticated user.
func (h *QualificationsHandler) Create(c echo.Context) error {
	actor, err := uuid.Parse(middleware.UserIDFromContext(c))
	if err != nil {
		return Error(c, http.StatusUnauthorized, "token subject is not a user id")
	}

	var req dto.QualifyRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	req.ActorID = actor

	result, err := h.service.Qualify(c.Request().Context(), req)
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			return Invalid(c, vErr)
		case errors.Is(err, repository.ErrWebsiteNotFound):
			return Error(c, http.StatusNotFound, "one or more websites do not exist")
		default:
			return Error(c, http.StatusInternalServerError, "failed to qualify websites")
		}
	}

	return Success(c, http.StatusCreated, "websites qualified", result)
}
