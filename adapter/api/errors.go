package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	"github.com/iworkr/iworkr-stack-sub004/pkg/observability"
)

// APIError is the JSON error body.
type APIError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, &APIError{Status: status, Code: code, Message: message})
}

// toAPIError maps the error taxonomy onto HTTP statuses.
func toAPIError(err error) *APIError {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "validation_failed", Message: "validation failed", Fields: verr.Fields}
	case errors.Is(err, domain.ErrValidationFailed):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "validation_failed", Message: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return &APIError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "authentication required"}
	case errors.Is(err, domain.ErrNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "not_found", Message: err.Error()}
	case errors.Is(err, domain.ErrBackendUnavailable):
		return &APIError{Status: http.StatusServiceUnavailable, Code: "backend_unavailable", Message: "scheduling backend unavailable, retry shortly"}
	default:
		return &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal error, retry the request"}
	}
}

// writeDomainError logs unexpected failures and writes the mapped error.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, operation string, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			observability.OperationKey, operation,
			"error", err,
		)
	}
	writeJSON(w, apiErr.Status, apiErr)
}
