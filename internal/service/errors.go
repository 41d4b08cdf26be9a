package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSyncInProgress is returned when a full sync is requested while another one runs.
	ErrSyncInProgress = errors.New("catalog sync already in progress")
	// ErrInvalidEntry marks a normalized record that cannot be stored.
	ErrInvalidEntry = errors.New("invalid catalog entry")
)

// ValidationError indicates that a request was rejected before touching storage.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", key, e.Fields[key]))
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, "; "))
}

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
