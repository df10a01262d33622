package services

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

func TestConflictDetector_Check(t *testing.T) {
	ctx := context.Background()
	org := uuid.New()
	tech := uuid.New()

	t.Run("overlapping block is a conflict", func(t *testing.T) {
		repo := new(mockBlockRepo)
		existing := newBlock(t, org, &tech, 9, 11)
		proposed := span(t, 10, 12)
		repo.On("ListForTechnician", ctx, org, tech, proposed).Return([]*domain.ScheduleBlock{existing}, nil)

		conflict, err := NewConflictDetector(repo).Check(ctx, domain.ConflictQuery{
			OrganizationID: org,
			TechnicianID:   &tech,
			Range:          proposed,
		})

		require.NoError(t, err)
		assert.True(t, conflict)
		assert.False(t, existing.IsConflict(), "existing block is never re-flagged")
		repo.AssertExpectations(t)
	})

	t.Run("excluded block does not conflict with itself", func(t *testing.T) {
		repo := new(mockBlockRepo)
		existing := newBlock(t, org, &tech, 9, 11)
		proposed := span(t, 9, 12)
		repo.On("ListForTechnician", ctx, org, tech, proposed).Return([]*domain.ScheduleBlock{existing}, nil)

		id := existing.ID()
		conflict, err := NewConflictDetector(repo).Check(ctx, domain.ConflictQuery{
			OrganizationID: org,
			TechnicianID:   &tech,
			Range:          proposed,
			ExcludeBlockID: &id,
		})

		require.NoError(t, err)
		assert.False(t, conflict)
	})

	t.Run("unassigned placement never reads", func(t *testing.T) {
		repo := new(mockBlockRepo)

		conflict, err := NewConflictDetector(repo).Check(ctx, domain.ConflictQuery{
			OrganizationID: org,
			Range:          span(t, 9, 10),
		})

		require.NoError(t, err)
		assert.False(t, conflict)
		repo.AssertNotCalled(t, "ListForTechnician", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("repository failure is returned", func(t *testing.T) {
		repo := new(mockBlockRepo)
		boom := errors.New("connection reset")
		proposed := span(t, 9, 10)
		repo.On("ListForTechnician", ctx, org, tech, proposed).Return(nil, boom)

		_, err := NewConflictDetector(repo).Check(ctx, domain.ConflictQuery{
			OrganizationID: org,
			TechnicianID:   &tech,
			Range:          proposed,
		})

		assert.ErrorIs(t, err, boom)
	})
}
