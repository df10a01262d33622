// Package identity resolves the caller on whose behalf a scheduling operation runs.
package identity

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	sharedDomain "github.com/iworkr/iworkr-stack-sub004/internal/shared/domain"
)

// Identity is an authenticated caller.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// Resolver returns the caller for the current request.
type Resolver interface {
	Resolve(ctx context.Context) (Identity, error)
}

type identityKey struct{}

// WithIdentity stores the caller in the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the caller stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == uuid.Nil {
		return Identity{}, false
	}
	return id, true
}

// ContextResolver resolves the caller from the request context. The HTTP
// adapter populates it after verifying the bearer token.
type ContextResolver struct{}

func (ContextResolver) Resolve(ctx context.Context) (Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return Identity{}, errors.Wrap(sharedDomain.ErrUnauthorized, "no caller identity in context")
	}
	return id, nil
}

// StaticResolver always resolves to one configured user unless the context
// already carries a caller. The CLI and MCP server run as a single user.
type StaticResolver struct {
	UserID uuid.UUID
}

func (r StaticResolver) Resolve(ctx context.Context) (Identity, error) {
	if id, ok := FromContext(ctx); ok {
		return id, nil
	}
	if r.UserID == uuid.Nil {
		return Identity{}, errors.Wrap(sharedDomain.ErrUnauthorized, "IWORKR_USER_ID is not configured")
	}
	return Identity{UserID: r.UserID}, nil
}
