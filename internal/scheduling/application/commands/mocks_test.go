package commands

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iworkr/iworkr-stack-sub004/internal/identity"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/services"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/outbox"
	"github.com/iworkr/iworkr-stack-sub004/pkg/observability"
)

type mockBlockRepo struct {
	mock.Mock
}

func (m *mockBlockRepo) Create(ctx context.Context, block *domain.ScheduleBlock) error {
	return m.Called(ctx, block).Error(0)
}

func (m *mockBlockRepo) Update(ctx context.Context, block *domain.ScheduleBlock) error {
	return m.Called(ctx, block).Error(0)
}

func (m *mockBlockRepo) UpdatePlacement(ctx context.Context, id uuid.UUID, technicianID *uuid.UUID, tr domain.TimeRange) error {
	return m.Called(ctx, id, technicianID, tr).Error(0)
}

func (m *mockBlockRepo) UpdateEndTime(ctx context.Context, id uuid.UUID, end time.Time) error {
	return m.Called(ctx, id, end).Error(0)
}

func (m *mockBlockRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.ScheduleBlock, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleBlock), args.Error(1)
}

func (m *mockBlockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBlockRepo) ListByDay(ctx context.Context, organizationID uuid.UUID, dayStart, dayEnd time.Time) ([]*domain.ScheduleBlock, error) {
	args := m.Called(ctx, organizationID, dayStart, dayEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduleBlock), args.Error(1)
}

func (m *mockBlockRepo) ListForTechnician(ctx context.Context, organizationID, technicianID uuid.UUID, window domain.TimeRange) ([]*domain.ScheduleBlock, error) {
	args := m.Called(ctx, organizationID, technicianID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduleBlock), args.Error(1)
}

func (m *mockBlockRepo) ListConflicting(ctx context.Context, organizationID uuid.UUID) ([]*domain.ScheduleBlock, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduleBlock), args.Error(1)
}

type mockEventRepo struct {
	mock.Mock
}

func (m *mockEventRepo) Create(ctx context.Context, event *domain.ScheduleEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockEventRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.ScheduleEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleEvent), args.Error(1)
}

func (m *mockEventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockEventRepo) ListByDay(ctx context.Context, organizationID uuid.UUID, dayStart, dayEnd time.Time) ([]*domain.ScheduleEvent, error) {
	args := m.Called(ctx, organizationID, dayStart, dayEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduleEvent), args.Error(1)
}

type mockBacklogRepo struct {
	mock.Mock
}

func (m *mockBacklogRepo) ListBacklog(ctx context.Context, organizationID uuid.UUID) ([]domain.BacklogJob, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BacklogJob), args.Error(1)
}

type mockTechnicianDirectory struct {
	mock.Mock
}

func (m *mockTechnicianDirectory) ListTechnicians(ctx context.Context, organizationID uuid.UUID) ([]domain.Technician, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Technician), args.Error(1)
}

func (m *mockTechnicianDirectory) FindTechnician(ctx context.Context, organizationID, technicianID uuid.UUID) (domain.Technician, error) {
	args := m.Called(ctx, organizationID, technicianID)
	return args.Get(0).(domain.Technician), args.Error(1)
}

type mockProcedures struct {
	mock.Mock
}

func (m *mockProcedures) MoveBlock(ctx context.Context, blockID uuid.UUID, technicianID *uuid.UUID, tr domain.TimeRange) (domain.MoveResult, error) {
	args := m.Called(ctx, blockID, technicianID, tr)
	return args.Get(0).(domain.MoveResult), args.Error(1)
}

func (m *mockProcedures) AssignJob(ctx context.Context, params domain.AssignJobParams) (domain.AssignResult, error) {
	args := m.Called(ctx, params)
	if fn, ok := args.Get(0).(func(domain.AssignJobParams) domain.AssignResult); ok {
		return fn(params), args.Error(1)
	}
	return args.Get(0).(domain.AssignResult), args.Error(1)
}

func (m *mockProcedures) DayView(ctx context.Context, organizationID uuid.UUID, dayStart, dayEnd time.Time) (*domain.DayView, error) {
	args := m.Called(ctx, organizationID, dayStart, dayEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DayView), args.Error(1)
}

// fakeUnitOfWork counts transaction boundaries.
type fakeUnitOfWork struct {
	begins    int
	commits   int
	rollbacks int
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	u.begins++
	return ctx, nil
}

func (u *fakeUnitOfWork) Commit(context.Context) error {
	u.commits++
	return nil
}

func (u *fakeUnitOfWork) Rollback(context.Context) error {
	u.rollbacks++
	return nil
}

// fakeOutbox keeps saved messages in memory. Messages saved inside a unit
// of work that later rolls back stay recorded, so tests assert on commits.
type fakeOutbox struct {
	mu   sync.Mutex
	msgs []*outbox.Message
	err  error
}

func (o *fakeOutbox) Save(ctx context.Context, msg *outbox.Message) error {
	return o.SaveBatch(ctx, []*outbox.Message{msg})
}

func (o *fakeOutbox) SaveBatch(_ context.Context, msgs []*outbox.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.msgs = append(o.msgs, msgs...)
	return nil
}

func (o *fakeOutbox) GetUnpublished(context.Context, int) ([]*outbox.Message, error) {
	return nil, nil
}

func (o *fakeOutbox) MarkPublished(context.Context, int64) error { return nil }

func (o *fakeOutbox) MarkFailed(context.Context, int64, string, time.Time) error { return nil }

func (o *fakeOutbox) MarkDead(context.Context, int64, string) error { return nil }

func (o *fakeOutbox) DeleteOld(context.Context, int) (int64, error) { return 0, nil }

func (o *fakeOutbox) routingKeys() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	keys := make([]string, 0, len(o.msgs))
	for _, m := range o.msgs {
		keys = append(keys, m.RoutingKey)
	}
	return keys
}

// fakeCache records invalidated dates.
type fakeCache struct {
	invalidated []time.Time
	err         error
}

func (c *fakeCache) Get(context.Context, uuid.UUID, time.Time) ([]byte, bool, error) {
	return nil, false, nil
}

func (c *fakeCache) Set(context.Context, uuid.UUID, time.Time, []byte) error { return nil }

func (c *fakeCache) Invalidate(_ context.Context, _ uuid.UUID, dates ...time.Time) error {
	c.invalidated = append(c.invalidated, dates...)
	return c.err
}

type fixture struct {
	blocks      *mockBlockRepo
	events      *mockEventRepo
	technicians *mockTechnicianDirectory
	procs       *mockProcedures
	uow         *fakeUnitOfWork
	outbox      *fakeOutbox
	cache       *fakeCache
	metrics     *observability.InMemoryMetrics
	support     *Support
	detector    *services.ConflictDetector
	orch        *services.PlacementOrchestrator
	userID      uuid.UUID
	ctx         context.Context
}

func newFixture() *fixture {
	f := &fixture{
		blocks:      new(mockBlockRepo),
		events:      new(mockEventRepo),
		technicians: new(mockTechnicianDirectory),
		procs:       new(mockProcedures),
		uow:         &fakeUnitOfWork{},
		outbox:      &fakeOutbox{},
		cache:       &fakeCache{},
		metrics:     observability.NewInMemoryMetrics(),
		userID:      uuid.New(),
	}
	f.ctx = identity.WithIdentity(context.Background(), identity.Identity{UserID: f.userID})
	f.support = NewSupport(identity.ContextResolver{}, f.uow, outbox.NewRecorder(f.outbox), f.cache, nil, f.metrics)
	f.detector = services.NewConflictDetector(f.blocks)
	f.orch = services.NewPlacementOrchestrator(
		services.NewAtomicPlacementExecutor(f.procs, services.DefaultBreakerConfig(), nil),
		services.NewDegradedPlacementExecutor(f.blocks),
		f.blocks,
		f.uow,
		nil,
		f.metrics,
	)
	return f
}

var day = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func newBlock(t *testing.T, org uuid.UUID, tech *uuid.UUID, startHour, endHour int) *domain.ScheduleBlock {
	t.Helper()
	b, err := domain.NewScheduleBlock(domain.BlockParams{
		OrganizationID: org,
		TechnicianID:   tech,
		Title:          "Boiler service",
		StartTime:      at(startHour, 0),
		EndTime:        at(endHour, 0),
	})
	require.NoError(t, err)
	return b
}
