package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/octobees/sitecatalog/internal/entity"
)

// CatalogFilter is the filter set shared by the external formula builder and the search engine.
// A nil or empty field applies no condition.
type CatalogFilter struct {
	MinDomainRating *float64 `json:"min_dr,omitempty"`
	MaxDomainRating *float64 `json:"max_dr,omitempty"`
	MinTraffic      *int64   `json:"min_traffic,omitempty"`
	MaxTraffic      *int64   `json:"max_traffic,omitempty"`
	MinCost         *float64 `json:"min_cost,omitempty"`
	MaxCost         *float64 `json:"max_cost,omitempty"`
	Status          *string  `json:"status,omitempty"`
	HasGuestPost    *bool    `json:"has_guest_post,omitempty"`
	HasLinkInsert   *bool    `json:"has_link_insert,omitempty"`
	SearchTerm      string   `json:"q,omitempty"`
	Categories      []string `json:"categories,omitempty"`
}

// SearchFilter extends CatalogFilter with the local-store-only predicates and pagination.
type SearchFilter struct {
	CatalogFilter

	WebsiteTypes       []string `json:"website_types,omitempty"`
	Niches             []string `json:"niches,omitempty"`
	HasActiveOfferings *bool    `json:"has_active_offerings,omitempty"`

	ExternalCreatedFrom *time.Time `json:"external_created_from,omitempty"`
	ExternalCreatedTo   *time.Time `json:"external_created_to,omitempty"`
	ExternalUpdatedFrom *time.Time `json:"external_updated_from,omitempty"`
	ExternalUpdatedTo   *time.Time `json:"external_updated_to,omitempty"`
	LastSyncedFrom      *time.Time `json:"last_synced_from,omitempty"`
	LastSyncedTo        *time.Time `json:"last_synced_to,omitempty"`

	OnlyQualified   bool       `json:"only_qualified,omitempty"`
	OnlyUnqualified bool       `json:"only_unqualified,omitempty"`
	ClientID        *uuid.UUID `json:"client_id,omitempty"`
	ProjectID       *uuid.UUID `json:"project_id,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// SearchResult is one page of search rows plus the total across all pages.
type SearchResult struct {
	Rows   []entity.CatalogEntryWithContacts `json:"rows"`
	Total  int                               `json:"total"`
	Limit  int                               `json:"limit"`
	Offset int                               `json:"offset"`
}
