package task

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates no task visible to the principal has the given id.
	ErrNotFound = errors.New("task not found")
	// ErrForbidden indicates the task is visible but the action is not allowed.
	ErrForbidden = errors.New("action not allowed for this principal")
	// ErrConflict indicates the task is not in a state the action applies to.
	ErrConflict = errors.New("task state conflict")
	// ErrUnauthenticated indicates the action requires an authenticated principal.
	ErrUnauthenticated = errors.New("authentication required")
)

// ValidationError reports every invalid field of a request at once.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

// NewValidationError creates an empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a problem with field. The first message per field wins.
func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field was rejected.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil returns e when it carries field errors, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// CapacityError is returned when a batch exceeds the configured size cap.
type CapacityError struct {
	Size  int `json:"size"`
	Limit int `json:"limit"`
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("batch of %d items exceeds the limit of %d", e.Size, e.Limit)
}
