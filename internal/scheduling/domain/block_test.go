package domain_test

import (
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

var day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func ptr[T any](v T) *T { return &v }

func newBlock(t *testing.T, orgID uuid.UUID, tech *uuid.UUID, start, end time.Time) *domain.ScheduleBlock {
	t.Helper()
	b, err := domain.NewScheduleBlock(domain.BlockParams{
		OrganizationID: orgID,
		TechnicianID:   tech,
		Title:          "Boiler service",
		StartTime:      start,
		EndTime:        end,
	})
	require.NoError(t, err)
	return b
}

func TestNewScheduleBlock(t *testing.T) {
	orgID := uuid.New()
	tech := uuid.New()

	b, err := domain.NewScheduleBlock(domain.BlockParams{
		OrganizationID: orgID,
		TechnicianID:   &tech,
		Title:          "  Install heat pump ",
		ClientName:     ptr("Acme Ltd"),
		StartTime:      at(9, 0),
		EndTime:        at(11, 0),
		TravelMinutes:  ptr(15),
		Metadata:       map[string]any{"source": "dispatch"},
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, b.ID())
	assert.Equal(t, "Install heat pump", b.Title())
	assert.Equal(t, domain.BlockStatusScheduled, b.Status())
	assert.False(t, b.IsConflict())
	assert.Equal(t, tech.String(), b.GroupKey())
	assert.Equal(t, 15, *b.TravelMinutes())
	assert.Equal(t, "dispatch", b.Metadata()["source"])
}

func TestNewScheduleBlock_Validation(t *testing.T) {
	orgID := uuid.New()
	tests := []struct {
		name   string
		params domain.BlockParams
		field  string
	}{
		{
			name:   "end before start",
			params: domain.BlockParams{OrganizationID: orgID, Title: "x", StartTime: at(11, 0), EndTime: at(9, 0)},
		},
		{
			name:   "zero length",
			params: domain.BlockParams{OrganizationID: orgID, Title: "x", StartTime: at(9, 0), EndTime: at(9, 0)},
		},
		{
			name:   "missing title",
			params: domain.BlockParams{OrganizationID: orgID, Title: " ", StartTime: at(9, 0), EndTime: at(10, 0)},
			field:  "title",
		},
		{
			name:   "missing organization",
			params: domain.BlockParams{Title: "x", StartTime: at(9, 0), EndTime: at(10, 0)},
			field:  "organization_id",
		},
		{
			name:   "unknown status",
			params: domain.BlockParams{OrganizationID: orgID, Title: "x", StartTime: at(9, 0), EndTime: at(10, 0), Status: "paused"},
			field:  "status",
		},
		{
			name:   "negative travel",
			params: domain.BlockParams{OrganizationID: orgID, Title: "x", StartTime: at(9, 0), EndTime: at(10, 0), TravelMinutes: ptr(-5)},
			field:  "travel_minutes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewScheduleBlock(tt.params)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidationFailed))

			if tt.field != "" {
				var verr *domain.ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Contains(t, verr.Fields, tt.field)
			}
		})
	}
}

func TestScheduleBlock_MarkConflict_UnassignedNeverConflicts(t *testing.T) {
	b := newBlock(t, uuid.New(), nil, at(9, 0), at(10, 0))

	b.MarkConflict(true)

	assert.False(t, b.IsConflict())
	assert.Equal(t, domain.UnassignedKey, b.GroupKey())
}

func TestScheduleBlock_Resize(t *testing.T) {
	b := newBlock(t, uuid.New(), ptr(uuid.New()), at(9, 0), at(10, 0))

	require.NoError(t, b.Resize(at(12, 0)))
	assert.Equal(t, at(9, 0), b.StartTime())
	assert.Equal(t, at(12, 0), b.EndTime())

	err := b.Resize(at(8, 0))
	assert.True(t, errors.Is(err, domain.ErrInvalidTimeRange))
	assert.Equal(t, at(12, 0), b.EndTime())
}

func TestScheduleBlock_Apply(t *testing.T) {
	tech := uuid.New()

	t.Run("non-placement fields do not require a conflict check", func(t *testing.T) {
		b := newBlock(t, uuid.New(), &tech, at(9, 0), at(10, 0))

		changed, err := b.Apply(domain.BlockPatch{
			Title:  domain.Some("Annual inspection"),
			Status: domain.Some(domain.BlockStatusEnRoute),
			Notes:  domain.Some(ptr("gate code 1234")),
		})
		require.NoError(t, err)

		assert.False(t, changed)
		assert.Equal(t, "Annual inspection", b.Title())
		assert.Equal(t, domain.BlockStatusEnRoute, b.Status())
		assert.Equal(t, "gate code 1234", *b.Notes())
	})

	t.Run("setting the same time is not a change", func(t *testing.T) {
		b := newBlock(t, uuid.New(), &tech, at(9, 0), at(10, 0))

		changed, err := b.Apply(domain.BlockPatch{StartTime: domain.Some(at(9, 0)), TechnicianID: domain.Some(ptr(tech))})
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("start change merges with stored end", func(t *testing.T) {
		b := newBlock(t, uuid.New(), &tech, at(9, 0), at(10, 0))

		changed, err := b.Apply(domain.BlockPatch{StartTime: domain.Some(at(9, 30))})
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, at(9, 30), b.StartTime())
		assert.Equal(t, at(10, 0), b.EndTime())
	})

	t.Run("effective range is validated", func(t *testing.T) {
		b := newBlock(t, uuid.New(), &tech, at(9, 0), at(10, 0))

		_, err := b.Apply(domain.BlockPatch{StartTime: domain.Some(at(10, 30)), Title: domain.Some("changed")})
		assert.True(t, errors.Is(err, domain.ErrInvalidTimeRange))
		assert.Equal(t, "Boiler service", b.Title(), "invalid patch leaves block untouched")
	})

	t.Run("clearing the technician clears the conflict flag", func(t *testing.T) {
		b := newBlock(t, uuid.New(), &tech, at(9, 0), at(10, 0))
		b.MarkConflict(true)

		changed, err := b.Apply(domain.BlockPatch{TechnicianID: domain.Some[*uuid.UUID](nil)})
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Nil(t, b.TechnicianID())
		assert.False(t, b.IsConflict())
	})

	t.Run("any status may be written", func(t *testing.T) {
		b := newBlock(t, uuid.New(), &tech, at(9, 0), at(10, 0))
		_, err := b.Apply(domain.BlockPatch{Status: domain.Some(domain.BlockStatusComplete)})
		require.NoError(t, err)
		_, err = b.Apply(domain.BlockPatch{Status: domain.Some(domain.BlockStatusScheduled)})
		require.NoError(t, err)
		assert.Equal(t, domain.BlockStatusScheduled, b.Status())
	})
}

func TestScheduleBlock_SnapshotRoundTrip(t *testing.T) {
	tech := uuid.New()
	b := newBlock(t, uuid.New(), &tech, at(9, 0), at(10, 0))
	b.MarkConflict(true)
	b.SetTechnicianName("Avery Jones")

	restored := domain.RehydrateScheduleBlock(b.Snapshot())

	assert.Equal(t, b.Snapshot(), restored.Snapshot())
}
