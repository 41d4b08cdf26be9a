package service

import (
	"strings"

	"github.com/octobees/sitecatalog/internal/entity"
)

// DedupeContacts collapses contacts sharing an email (trimmed, lower-cased) into one.
// When two collide the primary one wins; if neither or both are primary the lower non-null
// guest-post cost wins, a known cost beating an unknown one; otherwise the first seen stays.
// The survivor keeps the slot of the email's first occurrence. Empty emails are dropped.
func DedupeContacts(contacts []entity.NormalizedContact) []entity.NormalizedContact {
	if len(contacts) == 0 {
		return nil
	}

	slots := make(map[string]int, len(contacts))
	out := make([]entity.NormalizedContact, 0, len(contacts))
	for _, contact := range contacts {
		key := strings.ToLower(strings.TrimSpace(contact.Email))
		if key == "" {
			continue
		}
		contact.Email = key

		idx, seen := slots[key]
		if !seen {
			slots[key] = len(out)
			out = append(out, contact)
			continue
		}
		if preferContact(contact, out[idx]) {
			out[idx] = contact
		}
	}
	return out
}

// preferContact reports whether candidate should replace current.
func preferContact(candidate, current entity.NormalizedContact) bool {
	if candidate.IsPrimary != current.IsPrimary {
		return candidate.IsPrimary
	}
	switch {
	case candidate.GuestPostCost == nil:
		return false
	case current.GuestPostCost == nil:
		return true
	default:
		return *candidate.GuestPostCost < *current.GuestPostCost
	}
}

// AssignPrimaryByOrder marks the first contact primary and clears the flag on the rest.
// The input slice is not modified.
func AssignPrimaryByOrder(contacts []entity.NormalizedContact) []entity.NormalizedContact {
	out := make([]entity.NormalizedContact, len(contacts))
	for i, contact := range contacts {
		contact.IsPrimary = i == 0
		out[i] = contact
	}
	return out
}

func toContactRecords(contacts []entity.NormalizedContact) []entity.ContactRecord {
	records := make([]entity.ContactRecord, 0, len(contacts))
	for i, c := range contacts {
		records = append(records, entity.ContactRecord{
			Email:            c.Email,
			Position:         i,
			IsPrimary:        c.IsPrimary,
			HasPaidGuestPost: c.HasPaidGuestPost,
			HasSwapOption:    c.HasSwapOption,
			GuestPostCost:    c.GuestPostCost,
			LinkInsertCost:   c.LinkInsertCost,
			Requirement:      c.Requirement,
			Status:           c.Status,
		})
	}
	return records
}
