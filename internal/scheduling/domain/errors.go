package domain

import (
	"sort"
	"strings"

	"github.com/go-faster/errors"

	sharedDomain "github.com/iworkr/iworkr-stack-sub004/internal/shared/domain"
)

var (
	ErrUnauthorized       = sharedDomain.ErrUnauthorized
	ErrNotFound           = sharedDomain.ErrNotFound
	ErrValidationFailed   = sharedDomain.ErrValidationFailed
	ErrBackendUnavailable = sharedDomain.ErrBackendUnavailable
)

var (
	ErrBlockNotFound      = errors.Wrap(ErrNotFound, "schedule block")
	ErrEventNotFound      = errors.Wrap(ErrNotFound, "schedule event")
	ErrJobNotFound        = errors.Wrap(ErrNotFound, "job")
	ErrTechnicianNotFound = errors.Wrap(ErrNotFound, "technician")

	ErrInvalidTimeRange = errors.Wrap(ErrValidationFailed, "end time must be after start time")
	ErrJobNotInBacklog  = errors.Wrap(ErrValidationFailed, "job is not in the backlog")
)

// ValidationError reports invalid input per field.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
