package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/sitecatalog/internal/auth"
	"github.com/octobees/sitecatalog/internal/config"
	"github.com/octobees/sitecatalog/internal/handler"
	"github.com/octobees/sitecatalog/internal/metrics"
)

func newRouter(t *testing.T) (*echo.Echo, *auth.JWTManager) {
	t.Helper()
	e := echo.New()
	manager := auth.NewJWTManager("secret", time.Hour)
	cfg := &config.Config{RateLimitSync: config.RateLimitConfig{Requests: 1, Interval: time.Minute}}
	Register(e, cfg, manager, metrics.New(), Handlers{
		Websites:       &handler.WebsitesHandler{},
		Qualifications: &handler.QualificationsHandler{},
		Sync:           &handler.SyncHandler{},
	})
	return e, manager
}

func TestRegister_PublicRoutes(t *testing.T) {
	e, _ := newRouter(t)

	for _, path := range []string{"/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRegister_Guards(t *testing.T) {
	e, manager := newRouter(t)
	member, err := manager.GenerateToken(uuid.New(), "m@example.com", auth.RoleMember)
	require.NoError(t, err)

	tests := []struct {
		method string
		path   string
		token  string
		code   int
	}{
		{http.MethodGet, "/websites", "", http.StatusUnauthorized},
		{http.MethodPost, "/websites/search", "", http.StatusUnauthorized},
		{http.MethodPost, "/qualifications", "", http.StatusUnauthorized},
		{http.MethodPost, "/admin/sync", "", http.StatusUnauthorized},
		{http.MethodPost, "/admin/sync", member, http.StatusForbidden},
		{http.MethodGet, "/admin/sync/runs", member, http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		if tt.token != "" {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+tt.token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, tt.code, rec.Code, "%s %s", tt.method, tt.path)
	}
}
