package postgres

import (
	"context"
	"net"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the scheduling layer cares about.
const (
	CodeUndefinedFunction = "42883"
	CodeNoDataFound       = "P0002"
	CodeRaiseException    = "P0001"
	CodeInvalidParameter  = "22023"
	CodeNotInPrerequisite = "55000"
)

// PgError returns the server error carried by err, if any.
func PgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsUnavailable reports whether err means the server or one of its stored
// functions could not be reached, as opposed to a data-level rejection.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if pgErr, ok := PgError(err); ok {
		switch pgErr.Code {
		case CodeUndefinedFunction:
			return true
		}
		// Class 08: connection exception. Class 57: operator intervention.
		return len(pgErr.Code) == 5 && (pgErr.Code[:2] == "08" || pgErr.Code[:2] == "57")
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
