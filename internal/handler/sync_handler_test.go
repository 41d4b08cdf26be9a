package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/octobees/sitecatalog/internal/airtable"
	"github.com/octobees/sitecatalog/internal/config"
	"github.com/octobees/sitecatalog/internal/dto"
	"github.com/octobees/sitecatalog/internal/entity"
	"github.com/octobees/sitecatalog/internal/service"
)

func newSyncHandler(reader *stubReader, runs *memoryRuns) *SyncHandler {
	cfg := config.SyncConfig{PageSize: 100, MaxPages: 10, FetchTimeout: time.Second}
	return NewSyncHandler(service.NewSyncService(reader, &memoryCatalog{}, runs, cfg, nil, nil))
}

func TestSyncHandler_Trigger(t *testing.T) {
	reader := &stubReader{page: airtable.Page{Records: []entity.NormalizedEntry{{ExternalID: "rec1"}, {ExternalID: "rec2"}}}}
	runs := &memoryRuns{}
	h := newSyncHandler(reader, runs)

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/admin/sync", nil), rec)

	if err := h.Trigger(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result dto.SyncResult
	decodeEnvelope(t, rec, &result)
	if result.Created != 2 || result.Total != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if runs.status != entity.SyncStatusSuccess {
		t.Fatalf("expected run sealed success, got %q", runs.status)
	}
}

func TestSyncHandler_Trigger_SourceErrors(t *testing.T) {
	for name, err := range map[string]error{
		"not configured": airtable.ErrNotConfigured,
		"api error":      &airtable.APIError{StatusCode: 422, Type: "INVALID_FILTER_BY_FORMULA"},
	} {
		t.Run(name, func(t *testing.T) {
			runs := &memoryRuns{}
			h := newSyncHandler(&stubReader{err: err}, runs)
			rec := httptest.NewRecorder()

			_ = h.Trigger(echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/admin/sync", nil), rec))
			if rec.Code != http.StatusBadGateway {
				t.Fatalf("expected 502, got %d", rec.Code)
			}
			if runs.status != entity.SyncStatusFailed {
				t.Fatalf("expected run sealed failed, got %q", runs.status)
			}
		})
	}
}

func TestSyncHandler_Trigger_Conflict(t *testing.T) {
	reader := &stubReader{wait: make(chan struct{})}
	h := newSyncHandler(reader, &memoryRuns{})
	e := echo.New()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.Trigger(e.NewContext(httptest.NewRequest(http.MethodPost, "/admin/sync", nil), httptest.NewRecorder()))
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !h.service.Running() {
		if time.Now().After(deadline) {
			t.Fatalf("first sync never started")
		}
		time.Sleep(time.Millisecond)
	}

	rec := httptest.NewRecorder()
	_ = h.Trigger(e.NewContext(httptest.NewRequest(http.MethodPost, "/admin/sync", nil), rec))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	close(reader.wait)
	<-done
}

func TestSyncHandler_Runs(t *testing.T) {
	runs := &memoryRuns{runs: []entity.SyncRun{{Status: entity.SyncStatusSuccess, RecordsProcessed: 12}}}
	h := newSyncHandler(&stubReader{}, runs)

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/admin/sync/runs?limit=5", nil), rec)
	if err := h.Runs(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var data struct {
		Running bool             `json:"running"`
		Runs    []entity.SyncRun `json:"runs"`
	}
	decodeEnvelope(t, rec, &data)
	if data.Running || len(data.Runs) != 1 || data.Runs[0].RecordsProcessed != 12 {
		t.Fatalf("unexpected runs payload: %+v", data)
	}

	rec = httptest.NewRecorder()
	_ = h.Runs(echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/admin/sync/runs?limit=ten", nil), rec))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}
