package entity

import (
	"time"

	"github.com/google/uuid"
)

// Sync run states.
const (
	SyncStatusInProgress = "in_progress"
	SyncStatusSuccess    = "success"
	SyncStatusFailed     = "failed"
)

// QualificationMark records that a website was accepted for a client, optionally within a project.
type QualificationMark struct {
	ID          uuid.UUID  `json:"id"`
	WebsiteID   uuid.UUID  `json:"website_id"`
	ClientID    uuid.UUID  `json:"client_id"`
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
	QualifiedBy uuid.UUID  `json:"qualified_by"`
	Status      string     `json:"status"`
	Notes       *string    `json:"notes,omitempty"`
	QualifiedAt time.Time  `json:"qualified_at"`
}

// SyncRun is the audit record bracketing one full sync.
type SyncRun struct {
	ID               uuid.UUID  `json:"id"`
	SyncType         string     `json:"sync_type"`
	Action           string     `json:"action"`
	Status           string     `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	RecordsProcessed int        `json:"records_processed"`
	RecordsCreated   int        `json:"records_created"`
	RecordsUpdated   int        `json:"records_updated"`
	RecordsFailed    int        `json:"records_failed"`
	Error            *string    `json:"error,omitempty"`
}
