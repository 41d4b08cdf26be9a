package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/sitecatalog/internal/dto"
	"github.com/octobees/sitecatalog/internal/entity"
)

// SearchRepository runs the catalog search. Count and Page build their SQL from the same
// predicate set, so a total always describes exactly the rows a full pagination returns.
type SearchRepository interface {
	Count(ctx context.Context, filter dto.SearchFilter) (int, error)
	Page(ctx context.Context, filter dto.SearchFilter) ([]entity.CatalogEntryWithContacts, error)
}

// PGXSearchRepository implements SearchRepository using pgx.
type PGXSearchRepository struct {
	pool pgxPool
}

// NewPGXSearchRepository wires a pgx backed repository.
func NewPGXSearchRepository(pool *pgxpool.Pool) *PGXSearchRepository {
	return &PGXSearchRepository{pool: pool}
}

const qualificationColumns = `q.id, q.client_id, q.project_id, q.qualified_by, q.status, q.notes, q.qualified_at`

const pageColumns = `
        SELECT
            w.id,
            w.external_id,
            w.domain,
            w.domain_rating,
            w.total_traffic,
            w.guest_post_cost,
            w.link_insert_cost,
            w.categories,
            w.website_type,
            w.niche,
            w.has_guest_post,
            w.has_link_insert,
            w.status,
            w.overall_quality,
            w.external_created_at,
            w.external_updated_at,
            w.last_synced_at,
            w.created_at,
            w.updated_at,
            COALESCE(
                json_agg(json_build_object(
                    'id', c.id,
                    'website_id', c.website_id,
                    'email', c.email,
                    'position', c.position,
                    'is_primary', c.is_primary,
                    'has_paid_guest_post', c.has_paid_guest_post,
                    'has_swap_option', c.has_swap_option,
                    'guest_post_cost', c.guest_post_cost,
                    'link_insert_cost', c.link_insert_cost,
                    'requirement', c.requirement,
                    'status', c.status,
                    'created_at', c.created_at
                ) ORDER BY c.position) FILTER (WHERE c.id IS NOT NULL),
                '[]'::json
            ) AS contacts,`

const qualificationObject = `
            CASE WHEN q.id IS NULL THEN NULL ELSE json_build_object(
                'id', q.id,
                'website_id', w.id,
                'client_id', q.client_id,
                'project_id', q.project_id,
                'qualified_by', q.qualified_by,
                'status', q.status,
                'notes', q.notes,
                'qualified_at', q.qualified_at
            ) END AS qualification,`

const noQualificationObject = `
            NULL::json AS qualification,`

const activeOfferingsColumn = `
            (SELECT COUNT(*) FROM publisher_offerings o WHERE o.website_id = w.id AND o.is_active) AS active_offerings
        FROM catalog_entries w`

// searchQuery is the parsed filter: the optional qualification join plus the WHERE predicates.
type searchQuery struct {
	join       fragment
	predicates predicateSet
	qualified  bool
}

func buildSearchQuery(filter dto.SearchFilter) searchQuery {
	var q searchQuery

	if filter.ClientID != nil {
		q.qualified = true
		latest := fragment{
			sql: `(
            SELECT qm.id, qm.client_id, qm.project_id, qm.qualified_by, qm.status, qm.notes, qm.qualified_at
            FROM qualification_marks qm
            WHERE qm.website_id = w.id AND qm.client_id = ?`,
			args: []any{*filter.ClientID},
		}
		if filter.ProjectID != nil {
			latest.sql += ` AND qm.project_id = ?`
			latest.args = append(latest.args, *filter.ProjectID)
		}
		latest.sql += `
            ORDER BY qm.qualified_at DESC
            LIMIT 1
        ) q ON TRUE`

		joinKind := "LEFT JOIN LATERAL "
		if filter.OnlyQualified {
			joinKind = "JOIN LATERAL "
		}
		q.join = fragment{sql: joinKind + latest.sql, args: latest.args}

		if filter.OnlyUnqualified {
			cond := `NOT EXISTS (SELECT 1 FROM qualification_marks qx WHERE qx.website_id = w.id AND qx.client_id = ?`
			args := []any{*filter.ClientID}
			if filter.ProjectID != nil {
				cond += ` AND qx.project_id = ?`
				args = append(args, *filter.ProjectID)
			}
			q.predicates.add(cond+`)`, args...)
		}
	}

	p := &q.predicates
	if filter.MinDomainRating != nil {
		p.add("w.domain_rating >= ?", *filter.MinDomainRating)
	}
	if filter.MaxDomainRating != nil {
		p.add("w.domain_rating <= ?", *filter.MaxDomainRating)
	}
	if filter.MinTraffic != nil {
		p.add("w.total_traffic >= ?", *filter.MinTraffic)
	}
	if filter.MaxTraffic != nil {
		p.add("w.total_traffic <= ?", *filter.MaxTraffic)
	}
	if filter.MinCost != nil {
		p.add("w.guest_post_cost >= ?", *filter.MinCost)
	}
	if filter.MaxCost != nil {
		p.add("w.guest_post_cost <= ?", *filter.MaxCost)
	}
	if filter.Status != nil {
		p.add("w.status = ?", *filter.Status)
	}
	if filter.HasGuestPost != nil {
		p.add("w.has_guest_post = ?", *filter.HasGuestPost)
	}
	if filter.HasLinkInsert != nil {
		p.add("w.has_link_insert = ?", *filter.HasLinkInsert)
	}
	if term := filter.SearchTerm; term != "" {
		pattern := likeContains(term)
		p.add(`(w.domain ILIKE '%' || ? || '%'
            OR EXISTS (SELECT 1 FROM unnest(w.categories) AS cat(v) WHERE cat.v ILIKE '%' || ? || '%')
            OR EXISTS (SELECT 1 FROM unnest(w.niche) AS nic(v) WHERE nic.v ILIKE '%' || ? || '%'))`,
			pattern, pattern, pattern)
	}
	if values := nonEmpty(filter.Categories); len(values) > 0 {
		p.add("w.categories && ?::text[]", values)
	}
	if values := nonEmpty(filter.WebsiteTypes); len(values) > 0 {
		p.add("w.website_type && ?::text[]", values)
	}
	if values := nonEmpty(filter.Niches); len(values) > 0 {
		p.add("w.niche && ?::text[]", values)
	}
	if filter.HasActiveOfferings != nil {
		exists := "EXISTS (SELECT 1 FROM publisher_offerings o WHERE o.website_id = w.id AND o.is_active)"
		if !*filter.HasActiveOfferings {
			exists = "NOT " + exists
		}
		p.add(exists)
	}
	if filter.ExternalCreatedFrom != nil {
		p.add("w.external_created_at >= ?", *filter.ExternalCreatedFrom)
	}
	if filter.ExternalCreatedTo != nil {
		p.add("w.external_created_at <= ?", *filter.ExternalCreatedTo)
	}
	if filter.ExternalUpdatedFrom != nil {
		p.add("w.external_updated_at >= ?", *filter.ExternalUpdatedFrom)
	}
	if filter.ExternalUpdatedTo != nil {
		p.add("w.external_updated_at <= ?", *filter.ExternalUpdatedTo)
	}
	if filter.LastSyncedFrom != nil {
		p.add("w.last_synced_at >= ?", *filter.LastSyncedFrom)
	}
	if filter.LastSyncedTo != nil {
		p.add("w.last_synced_at <= ?", *filter.LastSyncedTo)
	}

	return q
}

func (q searchQuery) countSQL() (string, []any, error) {
	return compile(
		fragment{sql: "SELECT COUNT(DISTINCT w.id) FROM catalog_entries w"},
		q.join,
		q.predicates.where(),
	)
}

func (q searchQuery) pageSQL(limit, offset int) (string, []any, error) {
	columns := pageColumns + noQualificationObject + activeOfferingsColumn
	groupBy := "GROUP BY w.id"
	if q.qualified {
		columns = pageColumns + qualificationObject + activeOfferingsColumn
		groupBy += ", " + qualificationColumns
	}

	return compile(
		fragment{sql: columns},
		q.join,
		fragment{sql: "LEFT JOIN contact_records c ON c.website_id = w.id"},
		q.predicates.where(),
		fragment{sql: groupBy},
		fragment{sql: "ORDER BY w.domain_rating DESC NULLS LAST, w.id"},
		fragment{sql: "LIMIT ? OFFSET ?", args: []any{limit, offset}},
	)
}

// Count returns the number of distinct websites matching filter.
func (r *PGXSearchRepository) Count(ctx context.Context, filter dto.SearchFilter) (int, error) {
	sql, args, err := buildSearchQuery(filter).countSQL()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count catalog entries: %w", err)
	}
	return total, nil
}

// Page returns one page of matching websites ordered best-rated first. filter.Limit and
// filter.Offset are used as given.
func (r *PGXSearchRepository) Page(ctx context.Context, filter dto.SearchFilter) ([]entity.CatalogEntryWithContacts, error) {
	sql, args, err := buildSearchQuery(filter).pageSQL(filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("build page query: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search catalog entries: %w", err)
	}
	defer rows.Close()

	results := make([]entity.CatalogEntryWithContacts, 0, filter.Limit)
	for rows.Next() {
		var (
			row               entity.CatalogEntryWithContacts
			contactsJSON      []byte
			qualificationJSON []byte
		)
		if err := rows.Scan(
			&row.ID,
			&row.ExternalID,
			&row.Domain,
			&row.DomainRating,
			&row.TotalTraffic,
			&row.GuestPostCost,
			&row.LinkInsertCost,
			&row.Categories,
			&row.WebsiteType,
			&row.Niche,
			&row.HasGuestPost,
			&row.HasLinkInsert,
			&row.Status,
			&row.OverallQuality,
			&row.ExternalCreatedAt,
			&row.ExternalUpdatedAt,
			&row.LastSyncedAt,
			&row.CreatedAt,
			&row.UpdatedAt,
			&contactsJSON,
			&qualificationJSON,
			&row.ActiveOfferings,
		); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}

		row.Contacts = []entity.ContactRecord{}
		if len(contactsJSON) > 0 {
			if err := json.Unmarshal(contactsJSON, &row.Contacts); err != nil {
				return nil, fmt.Errorf("decode contacts for %s: %w", row.ID, err)
			}
		}
		if len(qualificationJSON) > 0 && string(qualificationJSON) != "null" {
			var mark entity.QualificationMark
			if err := json.Unmarshal(qualificationJSON, &mark); err != nil {
				return nil, fmt.Errorf("decode qualification for %s: %w", row.ID, err)
			}
			row.Qualification = &mark
		}

		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}

	return results, nil
}
