// Package airtable reads the publisher website catalog from an Airtable base.
//
// Free text placed into a filter formula is wrapped in single quotes with embedded
// single quotes backslash-escaped. Nothing else is escaped: braces, double quotes,
// parentheses and commas reach the formula verbatim, because the formula language
// defines its own escaping and this package does not try to emulate it. Backslashes
// are not escaped either, so text ending in a backslash (abc\) escapes the closing
// quote and leaves the formula unterminated. Formulas
// built from untrusted text can therefore change meaning and must never be used
// as an access-control boundary. The local search path binds every value as a
// query parameter and does not share this limitation.
package airtable

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/octobees/sitecatalog/internal/dto"
)

// Source column names.
const (
	fieldWebsite        = "Website"
	fieldDomainRating   = "DR"
	fieldTotalTraffic   = "Total Traffic"
	fieldGuestPostCost  = "Guest Post Cost"
	fieldLinkInsertCost = "Link Insert Cost"
	fieldCategory       = "Category"
	fieldWebsiteType    = "Website Type"
	fieldNiche          = "Niche"
	fieldGuestPost      = "Guest Post"
	fieldLinkInsert     = "Link Insert"
	fieldStatus         = "Status"
	fieldOverallQuality = "Overall Quality"
	fieldContactEmail   = "Contact Email"
	fieldRequirement    = "Requirement"
	fieldContactStatus  = "Contact Status"
	fieldSwapOption     = "Swap Option"
)

// BuildFormula translates filter into a filterByFormula expression. Only the fields
// that are set contribute a condition; an empty filter yields "" so the request
// carries no formula and the source returns every record.
func BuildFormula(filter dto.CatalogFilter) string {
	var parts []string

	if filter.MinDomainRating != nil {
		parts = append(parts, compare(fieldDomainRating, ">=", formatNumber(*filter.MinDomainRating)))
	}
	if filter.MaxDomainRating != nil {
		parts = append(parts, compare(fieldDomainRating, "<=", formatNumber(*filter.MaxDomainRating)))
	}
	if filter.MinTraffic != nil {
		parts = append(parts, compare(fieldTotalTraffic, ">=", strconv.FormatInt(*filter.MinTraffic, 10)))
	}
	if filter.MaxTraffic != nil {
		parts = append(parts, compare(fieldTotalTraffic, "<=", strconv.FormatInt(*filter.MaxTraffic, 10)))
	}
	if filter.MinCost != nil {
		parts = append(parts, compare(fieldGuestPostCost, ">=", formatNumber(*filter.MinCost)))
	}
	if filter.MaxCost != nil {
		parts = append(parts, compare(fieldGuestPostCost, "<=", formatNumber(*filter.MaxCost)))
	}
	if filter.Status != nil {
		parts = append(parts, compare(fieldStatus, "=", quote(*filter.Status)))
	}
	if filter.HasGuestPost != nil {
		parts = append(parts, checkbox(fieldGuestPost, *filter.HasGuestPost))
	}
	if filter.HasLinkInsert != nil {
		parts = append(parts, checkbox(fieldLinkInsert, *filter.HasLinkInsert))
	}
	if term := strings.TrimSpace(filter.SearchTerm); term != "" {
		parts = append(parts, fmt.Sprintf("FIND(LOWER(%s), LOWER({%s})) > 0", quote(term), fieldWebsite))
	}
	if expr := categoriesExpr(filter.Categories); expr != "" {
		parts = append(parts, expr)
	}

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return "AND(" + strings.Join(parts, ", ") + ")"
	}
}

func categoriesExpr(categories []string) string {
	var checks []string
	for _, category := range categories {
		category = strings.TrimSpace(category)
		if category == "" {
			continue
		}
		checks = append(checks, fmt.Sprintf("FIND(%s, ARRAYJOIN({%s}, ',')) > 0", quote(category), fieldCategory))
	}
	switch len(checks) {
	case 0:
		return ""
	case 1:
		return checks[0]
	default:
		return "OR(" + strings.Join(checks, ", ") + ")"
	}
}

func compare(field, op, value string) string {
	return fmt.Sprintf("{%s} %s %s", field, op, value)
}

func checkbox(field string, want bool) string {
	if want {
		return fmt.Sprintf("{%s} = TRUE()", field)
	}
	return fmt.Sprintf("NOT({%s})", field)
}

// quote is the minimal quoting step; see the package documentation.
func quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `\'`) + "'"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
