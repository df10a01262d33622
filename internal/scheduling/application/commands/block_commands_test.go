package commands

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	sharedDomain "github.com/iworkr/iworkr-stack-sub004/internal/shared/domain"
	"github.com/iworkr/iworkr-stack-sub004/pkg/observability"
)

func TestCreateBlockHandler_FlagsOverlapOnNewBlockOnly(t *testing.T) {
	f := newFixture()
	org := uuid.New()
	tech := uuid.New()
	existing := newBlock(t, org, &tech, 9, 11)

	f.technicians.On("FindTechnician", f.ctx, org, tech).Return(domain.Technician{ID: tech, DisplayName: "Sam Reyes"}, nil)
	f.blocks.On("ListForTechnician", f.ctx, org, tech, mock.Anything).Return([]*domain.ScheduleBlock{existing}, nil)
	f.blocks.On("Create", f.ctx, mock.AnythingOfType("*domain.ScheduleBlock")).Return(nil)

	handler := NewCreateBlockHandler(f.blocks, f.technicians, f.detector, f.support)
	block, err := handler.Handle(f.ctx, CreateBlockCommand{
		OrganizationID: org,
		TechnicianID:   &tech,
		Title:          "Leak inspection",
		StartTime:      at(10, 0),
		EndTime:        at(12, 0),
	})

	require.NoError(t, err)
	assert.True(t, block.IsConflict())
	assert.False(t, existing.IsConflict())
	assert.Equal(t, "Sam Reyes", block.TechnicianName())
	assert.Equal(t, domain.BlockStatusScheduled, block.Status())
	assert.Equal(t, 1, f.uow.commits)
	assert.Equal(t, []string{domain.RoutingKeyBlockCreated}, f.outbox.routingKeys())
	assert.Equal(t, []time.Time{at(10, 0)}, f.cache.invalidated)
	assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricConflictsFlagged, observability.T("operation", "create_block")))

	var meta sharedDomain.EventMetadata
	require.NoError(t, json.Unmarshal(f.outbox.msgs[0].Metadata, &meta))
	assert.Equal(t, f.userID, meta.UserID)
}

func TestCreateBlockHandler_BackToBackBlocksConflict(t *testing.T) {
	org := uuid.New()
	tech := uuid.New()

	tests := []struct {
		name         string
		start, end   time.Time
		wantConflict bool
	}{
		{name: "starts when the existing block ends", start: at(11, 0), end: at(12, 0), wantConflict: true},
		{name: "ends when the existing block starts", start: at(8, 0), end: at(9, 0), wantConflict: true},
		{name: "one minute gap", start: at(11, 1), end: at(12, 0), wantConflict: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			existing := newBlock(t, org, &tech, 9, 11)
			f.technicians.On("FindTechnician", f.ctx, org, tech).Return(domain.Technician{ID: tech}, nil)
			f.blocks.On("ListForTechnician", f.ctx, org, tech, mock.Anything).Return([]*domain.ScheduleBlock{existing}, nil)
			f.blocks.On("Create", f.ctx, mock.AnythingOfType("*domain.ScheduleBlock")).Return(nil)

			block, err := NewCreateBlockHandler(f.blocks, f.technicians, f.detector, f.support).Handle(f.ctx, CreateBlockCommand{
				OrganizationID: org,
				TechnicianID:   &tech,
				Title:          "Follow-up visit",
				StartTime:      tt.start,
				EndTime:        tt.end,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.wantConflict, block.IsConflict())
			assert.False(t, existing.IsConflict())
		})
	}
}

func TestCreateBlockHandler_Unassigned(t *testing.T) {
	f := newFixture()
	org := uuid.New()
	f.blocks.On("Create", f.ctx, mock.AnythingOfType("*domain.ScheduleBlock")).Return(nil)

	block, err := NewCreateBlockHandler(f.blocks, f.technicians, f.detector, f.support).Handle(f.ctx, CreateBlockCommand{
		OrganizationID: org,
		Title:          "Quote visit",
		StartTime:      at(8, 0),
		EndTime:        at(9, 0),
	})

	require.NoError(t, err)
	assert.False(t, block.IsConflict())
	assert.Equal(t, domain.UnassignedKey, block.GroupKey())
	f.blocks.AssertNotCalled(t, "ListForTechnician", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.technicians.AssertNotCalled(t, "FindTechnician", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateBlockHandler_Rejections(t *testing.T) {
	org := uuid.New()
	negative := -5

	tests := []struct {
		name    string
		ctx     func(f *fixture) context.Context
		cmd     CreateBlockCommand
		wantErr error
		field   string
	}{
		{
			name:    "no caller identity",
			ctx:     func(*fixture) context.Context { return context.Background() },
			cmd:     CreateBlockCommand{OrganizationID: org, Title: "x", StartTime: at(8, 0), EndTime: at(9, 0)},
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "missing title",
			cmd:     CreateBlockCommand{OrganizationID: org, StartTime: at(8, 0), EndTime: at(9, 0)},
			wantErr: domain.ErrValidationFailed,
			field:   "title",
		},
		{
			name:    "negative travel",
			cmd:     CreateBlockCommand{OrganizationID: org, Title: "x", StartTime: at(8, 0), EndTime: at(9, 0), TravelMinutes: &negative},
			wantErr: domain.ErrValidationFailed,
			field:   "travel_minutes",
		},
		{
			name:    "unknown status",
			cmd:     CreateBlockCommand{OrganizationID: org, Title: "x", StartTime: at(8, 0), EndTime: at(9, 0), Status: "paused"},
			wantErr: domain.ErrValidationFailed,
			field:   "status",
		},
		{
			name:    "end before start",
			cmd:     CreateBlockCommand{OrganizationID: org, Title: "x", StartTime: at(9, 0), EndTime: at(8, 0)},
			wantErr: domain.ErrInvalidTimeRange,
		},
		{
			name:    "end equals start",
			cmd:     CreateBlockCommand{OrganizationID: org, Title: "x", StartTime: at(9, 0), EndTime: at(9, 0)},
			wantErr: domain.ErrValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ctx := f.ctx
			if tt.ctx != nil {
				ctx = tt.ctx(f)
			}

			_, err := NewCreateBlockHandler(f.blocks, f.technicians, f.detector, f.support).Handle(ctx, tt.cmd)

			require.ErrorIs(t, err, tt.wantErr)
			if tt.field != "" {
				var verr *domain.ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Contains(t, verr.Fields, tt.field)
			}
			assert.Zero(t, f.uow.begins)
			assert.Empty(t, f.outbox.msgs)
		})
	}
}

func TestCreateBlockHandler_UnknownTechnician(t *testing.T) {
	f := newFixture()
	org := uuid.New()
	tech := uuid.New()
	f.technicians.On("FindTechnician", f.ctx, org, tech).Return(domain.Technician{}, domain.ErrTechnicianNotFound)

	_, err := NewCreateBlockHandler(f.blocks, f.technicians, f.detector, f.support).Handle(f.ctx, CreateBlockCommand{
		OrganizationID: org,
		TechnicianID:   &tech,
		Title:          "x",
		StartTime:      at(8, 0),
		EndTime:        at(9, 0),
	})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateBlockHandler(t *testing.T) {
	org := uuid.New()
	tech := uuid.New()

	t.Run("status change skips the detector", func(t *testing.T) {
		f := newFixture()
		block := newBlock(t, org, &tech, 9, 10)
		f.blocks.On("FindByID", f.ctx, block.ID()).Return(block, nil)
		f.blocks.On("Update", f.ctx, block).Return(nil)

		updated, err := NewUpdateBlockHandler(f.blocks, f.technicians, f.detector, f.support).Handle(f.ctx, UpdateBlockCommand{
			BlockID: block.ID(),
			Patch:   domain.BlockPatch{Status: domain.Some(domain.BlockStatusEnRoute)},
		})

		require.NoError(t, err)
		assert.Equal(t, domain.BlockStatusEnRoute, updated.Status())
		f.blocks.AssertNotCalled(t, "ListForTechnician", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, []string{domain.RoutingKeyBlockUpdated}, f.outbox.routingKeys())
	})

	t.Run("time change re-runs the detector excluding itself", func(t *testing.T) {
		f := newFixture()
		block := newBlock(t, org, &tech, 9, 10)
		other := newBlock(t, org, &tech, 13, 14)
		f.blocks.On("FindByID", f.ctx, block.ID()).Return(block, nil)
		f.blocks.On("ListForTechnician", f.ctx, org, tech, mock.Anything).Return([]*domain.ScheduleBlock{block, other}, nil)
		f.blocks.On("Update", f.ctx, block).Return(nil)

		updated, err := NewUpdateBlockHandler(f.blocks, f.technicians, f.detector, f.support).Handle(f.ctx, UpdateBlockCommand{
			BlockID: block.ID(),
			Patch:   domain.BlockPatch{EndTime: domain.Some(at(13, 30))},
		})

		require.NoError(t, err)
		assert.True(t, updated.IsConflict())
		assert.Equal(t, at(9, 0), updated.StartTime(), "unchanged start is merged in")
		assert.False(t, other.IsConflict())
	})

	t.Run("inverted merged range fails validation", func(t *testing.T) {
		f := newFixture()
		block := newBlock(t, org, &tech, 9, 10)
		f.blocks.On("FindByID", f.ctx, block.ID()).Return(block, nil)

		_, err := NewUpdateBlockHandler(f.blocks, f.technicians, f.detector, f.support).Handle(f.ctx, UpdateBlockCommand{
			BlockID: block.ID(),
			Patch:   domain.BlockPatch{StartTime: domain.Some(at(11, 0))},
		})

		assert.ErrorIs(t, err, domain.ErrValidationFailed)
		assert.Equal(t, 1, f.uow.rollbacks)
		f.blocks.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("missing block", func(t *testing.T) {
		f := newFixture()
		id := uuid.New()
		f.blocks.On("FindByID", f.ctx, id).Return(nil, domain.ErrBlockNotFound)

		_, err := NewUpdateBlockHandler(f.blocks, f.technicians, f.detector, f.support).Handle(f.ctx, UpdateBlockCommand{
			BlockID: id,
			Patch:   domain.BlockPatch{Title: domain.Some("Renamed")},
		})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty patch writes nothing", func(t *testing.T) {
		f := newFixture()
		block := newBlock(t, org, nil, 9, 10)
		f.blocks.On("FindByID", f.ctx, block.ID()).Return(block, nil)

		got, err := NewUpdateBlockHandler(f.blocks, f.technicians, f.detector, f.support).Handle(f.ctx, UpdateBlockCommand{BlockID: block.ID()})

		require.NoError(t, err)
		assert.Equal(t, block, got)
		assert.Empty(t, f.outbox.msgs)
		assert.Empty(t, f.cache.invalidated)
	})
}

func TestDeleteBlockHandler(t *testing.T) {
	f := newFixture()
	block := newBlock(t, uuid.New(), nil, 9, 10)
	f.blocks.On("FindByID", f.ctx, block.ID()).Return(block, nil)
	f.blocks.On("Delete", f.ctx, block.ID()).Return(nil)

	err := NewDeleteBlockHandler(f.blocks, f.support).Handle(f.ctx, DeleteBlockCommand{BlockID: block.ID()})

	require.NoError(t, err)
	assert.Equal(t, []string{domain.RoutingKeyBlockDeleted}, f.outbox.routingKeys())
	assert.Len(t, f.cache.invalidated, 1)

	missing := uuid.New()
	f.blocks.On("FindByID", f.ctx, missing).Return(nil, domain.ErrBlockNotFound)
	err = NewDeleteBlockHandler(f.blocks, f.support).Handle(f.ctx, DeleteBlockCommand{BlockID: missing})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSupport_CacheFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture()
	f.cache.err = errors.New("redis down")
	block := newBlock(t, uuid.New(), nil, 9, 10)
	f.blocks.On("FindByID", f.ctx, block.ID()).Return(block, nil)
	f.blocks.On("Delete", f.ctx, block.ID()).Return(nil)

	err := NewDeleteBlockHandler(f.blocks, f.support).Handle(f.ctx, DeleteBlockCommand{BlockID: block.ID()})

	require.NoError(t, err)
	assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricCacheErrors, observability.T("operation", "invalidate")))
}
