package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEntity(t *testing.T) {
	before := time.Now().UTC()
	entity := domain.NewBaseEntity()
	after := time.Now().UTC()

	assert.NotEqual(t, uuid.Nil, entity.ID())
	require.False(t, entity.CreatedAt().Before(before))
	require.False(t, entity.CreatedAt().After(after))
	assert.Equal(t, entity.CreatedAt(), entity.UpdatedAt())
}

func TestRehydrateBaseEntity(t *testing.T) {
	id := uuid.New()
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	entity := domain.RehydrateBaseEntity(id, created, updated)

	assert.Equal(t, id, entity.ID())
	assert.Equal(t, created, entity.CreatedAt())
	assert.Equal(t, updated, entity.UpdatedAt())
}

func TestBaseEntity_Touch(t *testing.T) {
	entity := domain.RehydrateBaseEntity(uuid.New(), time.Unix(0, 0).UTC(), time.Unix(0, 0).UTC())

	entity.Touch()

	assert.True(t, entity.UpdatedAt().After(entity.CreatedAt()))
}
