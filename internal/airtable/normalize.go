package airtable

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/idna"

	"github.com/octobees/sitecatalog/internal/entity"
)

// Record is a raw row of the list endpoint.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime time.Time      `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

var (
	domainRatingFields = []string{fieldDomainRating, "Domain Rating"}
	trafficFields      = []string{fieldTotalTraffic, "Traffic"}
)

// Normalize reduces a raw record to the shape the reconciler stores. It never fails:
// unparsable values are dropped or passed through as documented per field.
func Normalize(record Record) entity.NormalizedEntry {
	fields := record.Fields

	guestPostCost := numberField(fields, fieldGuestPostCost)
	linkInsertCost := numberField(fields, fieldLinkInsertCost)

	entry := entity.NormalizedEntry{
		ExternalID:     strings.TrimSpace(record.ID),
		Domain:         NormalizeDomain(stringField(fields, fieldWebsite)),
		DomainRating:   numberField(fields, domainRatingFields...),
		TotalTraffic:   intField(fields, trafficFields...),
		GuestPostCost:  guestPostCost,
		LinkInsertCost: linkInsertCost,
		Categories:     listField(fields, fieldCategory),
		WebsiteType:    listField(fields, fieldWebsiteType),
		Niche:          listField(fields, fieldNiche),
		Status:         stringField(fields, fieldStatus),
		OverallQuality: stringField(fields, fieldOverallQuality),
	}

	if v, ok := boolField(fields, fieldGuestPost); ok {
		entry.HasGuestPost = v
	} else {
		entry.HasGuestPost = positive(guestPostCost)
	}
	if v, ok := boolField(fields, fieldLinkInsert); ok {
		entry.HasLinkInsert = v
	} else {
		entry.HasLinkInsert = positive(linkInsertCost)
	}

	if !record.CreatedTime.IsZero() {
		created := record.CreatedTime.UTC()
		entry.ExternalCreatedAt = &created
	}

	requirement := optionalString(stringField(fields, fieldRequirement))
	contactStatus := optionalString(stringField(fields, fieldContactStatus))
	swap, _ := boolField(fields, fieldSwapOption)

	for i, email := range emailsField(fields, fieldContactEmail) {
		entry.Contacts = append(entry.Contacts, entity.NormalizedContact{
			Email:            email,
			IsPrimary:        i == 0,
			HasPaidGuestPost: positive(guestPostCost),
			HasSwapOption:    swap,
			GuestPostCost:    guestPostCost,
			LinkInsertCost:   linkInsertCost,
			Requirement:      requirement,
			Status:           contactStatus,
		})
	}

	return entry
}

// NormalizeDomain reduces a website value to its lower-case ASCII hostname. Values that
// do not parse as a URL with a host are returned trimmed but otherwise unchanged.
func NormalizeDomain(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	candidate := trimmed
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Hostname() == "" {
		return trimmed
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if ascii, err := idna.Lookup.ToASCII(host); err == nil && ascii != "" {
		host = ascii
	}
	return host
}

func lookup(fields map[string]any, names ...string) (any, bool) {
	for _, name := range names {
		if v, ok := fields[name]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(fields map[string]any, names ...string) string {
	v, ok := lookup(fields, names...)
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case []any:
		// single-select lookups arrive as one-element arrays
		for _, item := range val {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func numberField(fields map[string]any, names ...string) *float64 {
	v, ok := lookup(fields, names...)
	if !ok {
		return nil
	}
	var (
		n   float64
		err error
	)
	switch val := v.(type) {
	case json.Number:
		n, err = val.Float64()
	case float64:
		n = val
	case int:
		n = float64(val)
	case int64:
		n = float64(val)
	case string:
		n, err = parseNumeric(val)
	default:
		return nil
	}
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

func intField(fields map[string]any, names ...string) *int64 {
	f := numberField(fields, names...)
	if f == nil {
		return nil
	}
	n := int64(math.Round(*f))
	return &n
}

// parseNumeric accepts display strings such as "$1,200" or "45%".
func parseNumeric(raw string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', '%', ' ', '\u00a0':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	return strconv.ParseFloat(cleaned, 64)
}

func boolField(fields map[string]any, names ...string) (bool, bool) {
	v, ok := lookup(fields, names...)
	if !ok {
		return false, false
	}
	switch val := v.(type) {
	case bool:
		return val, true
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0, err == nil
	case float64:
		return val != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "yes", "y", "true", "1", "x":
			return true, true
		case "no", "n", "false", "0", "":
			return false, true
		}
	}
	return false, false
}

func listField(fields map[string]any, names ...string) []string {
	v, ok := lookup(fields, names...)
	if !ok {
		return []string{}
	}
	var raw []string
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case []string:
		raw = val
	case string:
		raw = strings.Split(val, ",")
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// emailsField keeps order and duplicates; deduplication belongs to the reconciler.
func emailsField(fields map[string]any, names ...string) []string {
	v, ok := lookup(fields, names...)
	if !ok {
		return nil
	}
	var raw []string
	switch val := v.(type) {
	case string:
		raw = []string{val}
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case []string:
		raw = val
	}

	var emails []string
	for _, chunk := range raw {
		for _, part := range strings.FieldsFunc(chunk, func(r rune) bool {
			return r == ',' || r == ';' || r == '\n' || r == '\r'
		}) {
			if email := strings.ToLower(strings.TrimSpace(part)); email != "" {
				emails = append(emails, email)
			}
		}
	}
	return emails
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func positive(v *float64) bool {
	return v != nil && *v > 0
}
