package dto

import "github.com/google/uuid"

// QualifyRequest marks a batch of websites as qualified for a client.
type QualifyRequest struct {
	WebsiteIDs []uuid.UUID `json:"website_ids" validate:"required,min=1,max=1000,dive,required"`
	ClientID   uuid.UUID   `json:"client_id" validate:"required"`
	ProjectID  *uuid.UUID  `json:"project_id,omitempty"`
	ActorID    uuid.UUID   `json:"actor_id" validate:"required"`
	Notes      *string     `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Status     string      `json:"status,omitempty" validate:"omitempty,max=32"`
}

// QualifyResult reports the marks written by one batch.
type QualifyResult struct {
	Marked     int         `json:"marked"`
	WebsiteIDs []uuid.UUID `json:"website_ids"`
}

// SyncResult summarises one full catalog sync.
type SyncResult struct {
	RunID     uuid.UUID `json:"run_id"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Errors    int       `json:"errors"`
	Total     int       `json:"total"`
	Pages     int       `json:"pages"`
	Truncated bool      `json:"truncated"`
}
