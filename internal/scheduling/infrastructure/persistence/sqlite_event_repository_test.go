package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

func newTestEvent(t *testing.T, orgID uuid.UUID, eventType domain.EventType, sh, eh int) *domain.ScheduleEvent {
	t.Helper()
	event, err := domain.NewScheduleEvent(domain.EventParams{
		OrganizationID: orgID,
		UserID:         uuid.New(),
		Type:           eventType,
		Title:          string(eventType),
		StartTime:      at(sh, 0),
		EndTime:        at(eh, 0),
	})
	require.NoError(t, err)
	return event
}

func TestSQLiteEventRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteEventRepository(setupSQLite(t))
	orgID := uuid.New()

	event, err := domain.NewScheduleEvent(domain.EventParams{
		OrganizationID: orgID,
		UserID:         uuid.New(),
		Type:           domain.EventTypeMeeting,
		Title:          "Toolbox talk",
		StartTime:      at(8, 0),
		EndTime:        at(8, 30),
		Notes:          ptr("Depot"),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, event))

	found, err := repo.FindByID(ctx, event.ID())
	require.NoError(t, err)
	assert.Equal(t, event.UserID(), found.UserID())
	assert.Equal(t, domain.EventTypeMeeting, found.Type())
	assert.Equal(t, "Toolbox talk", found.Title())
	assert.Equal(t, "Depot", *found.Notes())
	assert.True(t, at(8, 30).Equal(found.EndTime()))

	require.NoError(t, repo.Delete(ctx, event.ID()))
	_, err = repo.FindByID(ctx, event.ID())
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, event.ID()), domain.ErrEventNotFound)
}

func TestSQLiteEventRepository_ListByDay(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteEventRepository(setupSQLite(t))
	orgID := uuid.New()

	lunch := newTestEvent(t, orgID, domain.EventTypeBreak, 12, 13)
	standup := newTestEvent(t, orgID, domain.EventTypeMeeting, 8, 9)
	tomorrow := newTestEvent(t, orgID, domain.EventTypePersonal, 30, 31)
	elsewhere := newTestEvent(t, uuid.New(), domain.EventTypeUnavailable, 10, 11)
	for _, e := range []*domain.ScheduleEvent{lunch, standup, tomorrow, elsewhere} {
		require.NoError(t, repo.Create(ctx, e))
	}

	dayStart, dayEnd := domain.DayBounds(testDay)
	events, err := repo.ListByDay(ctx, orgID, dayStart, dayEnd)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, standup.ID(), events[0].ID())
	assert.Equal(t, lunch.ID(), events[1].ID())
}
