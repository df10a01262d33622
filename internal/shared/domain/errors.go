package domain

import "github.com/go-faster/errors"

// Failure categories shared by every bounded context. Context-specific
// errors wrap one of these so adapters can map them without knowing the details.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrValidationFailed   = errors.New("validation failed")
	ErrBackendUnavailable = errors.New("backend unavailable")
)
