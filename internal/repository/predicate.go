package repository

import (
	"fmt"
	"strconv"
	"strings"
)

// fragment is a piece of SQL using ? placeholders plus the values bound to them, in order.
type fragment struct {
	sql  string
	args []any
}

// predicateSet collects WHERE conditions. Every value is bound, never interpolated.
type predicateSet struct {
	items []fragment
}

func (p *predicateSet) add(cond string, args ...any) {
	p.items = append(p.items, fragment{sql: cond, args: args})
}

func (p *predicateSet) empty() bool {
	return len(p.items) == 0
}

// where renders "WHERE a AND b ..." or "" when no condition is present.
func (p *predicateSet) where() fragment {
	if p.empty() {
		return fragment{}
	}
	parts := make([]string, 0, len(p.items))
	var args []any
	for _, item := range p.items {
		parts = append(parts, item.sql)
		args = append(args, item.args...)
	}
	return fragment{sql: "WHERE " + strings.Join(parts, " AND "), args: args}
}

// compile joins fragments with newlines and rewrites each ? into $1, $2, ... in order.
func compile(parts ...fragment) (string, []any, error) {
	var (
		sb   strings.Builder
		args []any
		idx  = 1
	)
	for _, part := range parts {
		if part.sql == "" {
			continue
		}
		placeholders := strings.Count(part.sql, "?")
		if placeholders != len(part.args) {
			return "", nil, fmt.Errorf("fragment %q has %d placeholders for %d args", part.sql, placeholders, len(part.args))
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		for _, r := range part.sql {
			if r == '?' {
				sb.WriteByte('$')
				sb.WriteString(strconv.Itoa(idx))
				idx++
				continue
			}
			sb.WriteRune(r)
		}
		args = append(args, part.args...)
	}
	return sb.String(), args, nil
}

// likeContains escapes LIKE wildcards so free text matches literally.
func likeContains(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
