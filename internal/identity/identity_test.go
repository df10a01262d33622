package identity

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/iworkr/iworkr-stack-sub004/internal/shared/domain"
)

func TestContextResolver(t *testing.T) {
	_, err := ContextResolver{}.Resolve(context.Background())
	assert.True(t, errors.Is(err, sharedDomain.ErrUnauthorized))

	want := Identity{UserID: uuid.New(), Email: "dispatch@example.com"}
	got, err := ContextResolver{}.Resolve(WithIdentity(context.Background(), want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStaticResolver(t *testing.T) {
	_, err := StaticResolver{}.Resolve(context.Background())
	assert.True(t, errors.Is(err, sharedDomain.ErrUnauthorized))

	userID := uuid.New()
	got, err := StaticResolver{UserID: userID}.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)

	override := Identity{UserID: uuid.New()}
	got, err = StaticResolver{UserID: userID}.Resolve(WithIdentity(context.Background(), override))
	require.NoError(t, err)
	assert.Equal(t, override.UserID, got.UserID)
}

func TestTokenVerifier(t *testing.T) {
	verifier := NewTokenVerifier("test-secret")
	userID := uuid.New()

	token, err := verifier.Issue(userID, "tech@example.com", time.Hour)
	require.NoError(t, err)

	id, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, id.UserID)
	assert.Equal(t, "tech@example.com", id.Email)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenVerifier("other").Verify(token)
		assert.True(t, errors.Is(err, sharedDomain.ErrUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		expired, err := verifier.Issue(userID, "", -time.Minute)
		require.NoError(t, err)
		_, err = verifier.Verify(expired)
		assert.True(t, errors.Is(err, sharedDomain.ErrUnauthorized))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.Verify("not-a-token")
		assert.True(t, errors.Is(err, sharedDomain.ErrUnauthorized))
	})

	t.Run("unconfigured", func(t *testing.T) {
		_, err := NewTokenVerifier("").Verify(token)
		assert.True(t, errors.Is(err, sharedDomain.ErrUnauthorized))
	})
}
