package entity

import (
	"time"

	"github.com/google/uuid"
)

// CatalogEntry represents a publisher website mirrored from the external catalog.
type CatalogEntry struct {
	ID                uuid.UUID  `json:"id"`
	ExternalID        string     `json:"external_id"`
	Domain            string     `json:"domain"`
	DomainRating      *float64   `json:"domain_rating,omitempty"`
	TotalTraffic      *int64     `json:"total_traffic,omitempty"`
	GuestPostCost     *float64   `json:"guest_post_cost,omitempty"`
	LinkInsertCost    *float64   `json:"link_insert_cost,omitempty"`
	Categories        []string   `json:"categories"`
	WebsiteType       []string   `json:"website_type"`
	Niche             []string   `json:"niche"`
	HasGuestPost      bool       `json:"has_guest_post"`
	HasLinkInsert     bool       `json:"has_link_insert"`
	Status            string     `json:"status"`
	OverallQuality    string     `json:"overall_quality"`
	ExternalCreatedAt *time.Time `json:"external_created_at,omitempty"`
	ExternalUpdatedAt time.Time  `json:"external_updated_at"`
	LastSyncedAt      time.Time  `json:"last_synced_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ContactRecord is a publisher contact owned by exactly one catalog entry.
type ContactRecord struct {
	ID               uuid.UUID `json:"id"`
	WebsiteID        uuid.UUID `json:"website_id"`
	Email            string    `json:"email"`
	Position         int       `json:"position"`
	IsPrimary        bool      `json:"is_primary"`
	HasPaidGuestPost bool      `json:"has_paid_guest_post"`
	HasSwapOption    bool      `json:"has_swap_option"`
	GuestPostCost    *float64  `json:"guest_post_cost,omitempty"`
	LinkInsertCost   *float64  `json:"link_insert_cost,omitempty"`
	Requirement      *string   `json:"requirement,omitempty"`
	Status           *string   `json:"status,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// CatalogEntryWithContacts is one search result row.
type CatalogEntryWithContacts struct {
	CatalogEntry
	Contacts        []ContactRecord    `json:"contacts"`
	Qualification   *QualificationMark `json:"qualification"`
	ActiveOfferings int                `json:"active_offerings"`
}
