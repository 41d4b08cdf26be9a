package entity

import "time"

// NormalizedEntry is a source record reduced to the shape the reconciler stores.
type NormalizedEntry struct {
	ExternalID        string
	Domain            string
	DomainRating      *float64
	TotalTraffic      *int64
	GuestPostCost     *float64
	LinkInsertCost    *float64
	Categories        []string
	WebsiteType       []string
	Niche             []string
	HasGuestPost      bool
	HasLinkInsert     bool
	Status            string
	OverallQuality    string
	ExternalCreatedAt *time.Time
	Contacts          []NormalizedContact
}

// NormalizedContact is an incoming contact before deduplication.
type NormalizedContact struct {
	Email            string
	IsPrimary        bool
	HasPaidGuestPost bool
	HasSwapOption    bool
	GuestPostCost    *float64
	LinkInsertCost   *float64
	Requirement      *string
	Status           *string
}
