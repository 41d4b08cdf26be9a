package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// queryReader parses optional query parameters, keeping the first failure.
type queryReader struct {
	c   echo.Context
	err error
}

func (q *queryReader) raw(key string) string {
	return strings.TrimSpace(q.c.QueryParam(key))
}

func (q *queryReader) fail(key, hint string) {
	if q.err == nil {
		q.err = fmt.Errorf("invalid %s%s", key, hint)
	}
}

func (q *queryReader) optFloat(key string) *float64 {
	value := q.raw(key)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		q.fail(key, "")
		return nil
	}
	return &f
}

func (q *queryReader) optInt64(key string) *int64 {
	value := q.raw(key)
	if value == "" {
		return nil
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		q.fail(key, "")
		return nil
	}
	return &i
}

func (q *queryReader) intOr(key string, fallback int) int {
	value := q.raw(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		q.fail(key, "")
		return fallback
	}
	return i
}

func (q *queryReader) optBool(key string) *bool {
	value := q.raw(key)
	if value == "" {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		q.fail(key, " (use true or false)")
		return nil
	}
	return &b
}

func (q *queryReader) flag(key string) bool {
	if b := q.optBool(key); b != nil {
		return *b
	}
	return false
}

func (q *queryReader) optString(key string) *string {
	if value := q.raw(key); value != "" {
		return &value
	}
	return nil
}

func (q *queryReader) optTime(key string) *time.Time {
	value := q.raw(key)
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		q.fail(key, " (use RFC3339)")
		return nil
	}
	return &t
}

func (q *queryReader) optUUID(key string) *uuid.UUID {
	value := q.raw(key)
	if value == "" {
		return nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		q.fail(key, "")
		return nil
	}
	return &id
}

// list accepts repeated keys, comma separated values, or both.
func (q *queryReader) list(key string) []string {
	var out []string
	for _, value := range q.c.QueryParams()[key] {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
