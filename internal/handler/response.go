package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/octobees/sitecatalog/internal/middleware"
	"github.com/octobees/sitecatalog/internal/service"
)

// APIResponse is the envelope every endpoint answers with. Errors carries per-field
// validation messages and RequestID echoes the X-Request-ID of the call.
type APIResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message,omitempty"`
	Data      any               `json:"data,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func respond(c echo.Context, status int, payload APIResponse) error {
	payload.RequestID = middleware.RequestIDFromContext(c)
	return c.JSON(status, payload)
}

// Success sends a successful response. status 0 means 200.
func Success(c echo.Context, status int, message string, data any) error {
	if status == 0 {
		status = http.StatusOK
	}
	return respond(c, status, APIResponse{Status: "success", Message: message, Data: data})
}

// Error sends an error response. status 0 means 500.
func Error(c echo.Context, status int, message string) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return respond(c, status, APIResponse{Status: "error", Message: message})
}

// Failure sends an error response that still carries data, e.g. the partial counts of an aborted sync.
func Failure(c echo.Context, status int, message string, data any) error {
	return respond(c, status, APIResponse{Status: "error", Message: message, Data: data})
}

// Invalid answers 400 with the validation message and its field breakdown.
func Invalid(c echo.Context, err *service.ValidationError) error {
	return respond(c, http.StatusBadRequest, APIResponse{Status: "error", Message: err.Message, Errors: err.Fields})
}
