package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/octobees/sitecatalog/internal/airtable"
	"github.com/octobees/sitecatalog/internal/dto"
	"github.com/octobees/sitecatalog/internal/entity"
	"github.com/octobees/sitecatalog/internal/repository"
)

type capturingSearchRepo struct {
	lastFilter dto.SearchFilter
	total      int
	rows       []entity.CatalogEntryWithContacts
	err        error
}

func (r *capturingSearchRepo) Count(ctx context.Context, filter dto.SearchFilter) (int, error) {
	return r.total, r.err
}

func (r *capturingSearchRepo) Page(ctx context.Context, filter dto.SearchFilter) ([]entity.CatalogEntryWithContacts, error) {
	r.lastFilter = filter
	return r.rows, r.err
}

type capturingMarksRepo struct {
	received []entity.QualificationMark
	err      error
}

func (r *capturingMarksRepo) UpsertMarks(ctx context.Context, marks []entity.QualificationMark) ([]entity.QualificationMark, error) {
	r.received = marks
	if r.err != nil {
		return nil, r.err
	}
	return marks, nil
}

type stubReader struct {
	page airtable.Page
	err  error
	wait chan struct{}
}

func (r *stubReader) FetchPage(ctx context.Context, filter dto.CatalogFilter, pageSizeHint int, cursor string) (airtable.Page, error) {
	if r.wait != nil {
		<-r.wait
	}
	return r.page, r.err
}

type memoryCatalog struct {
	ids map[string]bool
}

func (m *memoryCatalog) Exists(ctx context.Context, externalID string) (bool, error) {
	return m.ids[externalID], nil
}

func (m *memoryCatalog) ReconcileEntry(ctx context.Context, entry entity.NormalizedEntry, contacts []entity.ContactRecord) (uuid.UUID, error) {
	if m.ids == nil {
		m.ids = map[string]bool{}
	}
	m.ids[entry.ExternalID] = true
	return uuid.New(), nil
}

type memoryRuns struct {
	status string
	runs   []entity.SyncRun
}

func (m *memoryRuns) Open(ctx context.Context, syncType, action string) (entity.SyncRun, error) {
	return entity.SyncRun{ID: uuid.New(), SyncType: syncType, Action: action, Status: entity.SyncStatusInProgress}, nil
}

func (m *memoryRuns) Seal(ctx context.Context, id uuid.UUID, status string, counts repository.SyncRunCounts, errMsg *string) error {
	m.status = status
	return nil
}

func (m *memoryRuns) ListRecent(ctx context.Context, limit int) ([]entity.SyncRun, error) {
	return m.runs, nil
}

// decodeEnvelope unmarshals the response envelope, decoding data into out when given.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, out any) APIResponse {
	t.Helper()
	var raw struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, out); err != nil {
			t.Fatalf("failed to decode data: %v", err)
		}
	}
	return APIResponse{Status: raw.Status, Message: raw.Message}
}
