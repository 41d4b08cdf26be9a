package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/octobees/sitecatalog/internal/airtable"
	"github.com/octobees/sitecatalog/internal/dto"
	"github.com/octobees/sitecatalog/internal/entity"
	"github.com/octobees/sitecatalog/internal/repository"
)

// fakeCatalog keeps reconciled entries in memory keyed by external id.
type fakeCatalog struct {
	mu        sync.Mutex
	entries   map[string]entity.NormalizedEntry
	contacts  map[string][]entity.ContactRecord
	failOn    map[string]error
	existsErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		entries:  map[string]entity.NormalizedEntry{},
		contacts: map[string][]entity.ContactRecord{},
		failOn:   map[string]error{},
	}
}

func (f *fakeCatalog) Exists(ctx context.Context, externalID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.entries[externalID]
	return ok, nil
}

func (f *fakeCatalog) ReconcileEntry(ctx context.Context, entry entity.NormalizedEntry, contacts []entity.ContactRecord) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[entry.ExternalID]; err != nil {
		return uuid.Nil, err
	}
	f.entries[entry.ExternalID] = entry
	f.contacts[entry.ExternalID] = contacts
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(entry.ExternalID)), nil
}

// fakeReader serves pages in order and records the cursors it was asked for.
type fakeReader struct {
	mu       sync.Mutex
	pages    []airtable.Page
	errs     map[int]error
	repeat   bool
	cursors  []string
	sizes    []int
	deadline []bool
	block    chan struct{}
	entered  chan struct{}
}

func (f *fakeReader) FetchPage(ctx context.Context, filter dto.CatalogFilter, pageSizeHint int, cursor string) (airtable.Page, error) {
	if f.entered != nil {
		close(f.entered)
		f.entered = nil
	}
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	idx := len(f.cursors)
	f.cursors = append(f.cursors, cursor)
	f.sizes = append(f.sizes, pageSizeHint)
	_, hasDeadline := ctx.Deadline()
	f.deadline = append(f.deadline, hasDeadline)

	if err := f.errs[idx]; err != nil {
		return airtable.Page{}, err
	}
	if f.repeat {
		return f.pages[0], nil
	}
	if idx >= len(f.pages) {
		return airtable.Page{}, errors.New("no more pages")
	}
	return f.pages[idx], nil
}

// fakeRuns records the sync run lifecycle.
type fakeRuns struct {
	mu       sync.Mutex
	openErr  error
	sealErr  error
	runID    uuid.UUID
	opened   int
	sealed   int
	status   string
	counts   repository.SyncRunCounts
	errMsg   *string
	recent   []entity.SyncRun
	gotLimit int
}

func (f *fakeRuns) Open(ctx context.Context, syncType, action string) (entity.SyncRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return entity.SyncRun{}, f.openErr
	}
	f.opened++
	if f.runID == uuid.Nil {
		f.runID = uuid.New()
	}
	return entity.SyncRun{ID: f.runID, SyncType: syncType, Action: action, Status: entity.SyncStatusInProgress}, nil
}

func (f *fakeRuns) Seal(ctx context.Context, id uuid.UUID, status string, counts repository.SyncRunCounts, errMsg *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sealErr != nil {
		return f.sealErr
	}
	f.sealed++
	f.status = status
	f.counts = counts
	f.errMsg = errMsg
	return nil
}

func (f *fakeRuns) ListRecent(ctx context.Context, limit int) ([]entity.SyncRun, error) {
	f.gotLimit = limit
	return f.recent, nil
}

type fakeMarks struct {
	upsert func(ctx context.Context, marks []entity.QualificationMark) ([]entity.QualificationMark, error)
}

func (f *fakeMarks) UpsertMarks(ctx context.Context, marks []entity.QualificationMark) ([]entity.QualificationMark, error) {
	if f.upsert != nil {
		return f.upsert(ctx, marks)
	}
	return marks, nil
}

type fakeSearch struct {
	count func(ctx context.Context, filter dto.SearchFilter) (int, error)
	page  func(ctx context.Context, filter dto.SearchFilter) ([]entity.CatalogEntryWithContacts, error)
}

func (f *fakeSearch) Count(ctx context.Context, filter dto.SearchFilter) (int, error) {
	if f.count != nil {
		return f.count(ctx, filter)
	}
	return 0, nil
}

func (f *fakeSearch) Page(ctx context.Context, filter dto.SearchFilter) ([]entity.CatalogEntryWithContacts, error) {
	if f.page != nil {
		return f.page(ctx, filter)
	}
	return nil, nil
}

func floatPtr(v float64) *float64 { return &v }
