package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	"github.com/iworkr/iworkr-stack-sub004/pkg/observability"
)

// Day view sources.
const (
	SourceAggregate = "aggregate"
	SourceFallback  = "fallback"
	SourceCache     = "cache"
)

// Day view sections, used to report which parts of a fallback failed.
const (
	SectionTechnicians = "technicians"
	SectionBlocks      = "blocks"
	SectionEvents      = "events"
	SectionBacklog     = "backlog"
)

// DayViewResult is a composed day view and how it was produced.
type DayViewResult struct {
	View   *domain.DayView
	Source string
	// MissingSections lists fallback sections that could not be loaded and
	// are present but empty in View.
	MissingSections []string
}

// Degraded reports whether any section is missing.
func (r DayViewResult) Degraded() bool {
	return len(r.MissingSections) > 0
}

// DayViewAggregator composes technicians, blocks, events and backlog for
// one organization and day.
type DayViewAggregator struct {
	procs       domain.ScheduleProcedures
	blocks      domain.BlockRepository
	events      domain.EventRepository
	backlog     domain.BacklogRepository
	technicians domain.TechnicianDirectory
	logger      *slog.Logger
	metrics     observability.Metrics
}

// NewDayViewAggregator creates an aggregator. procs may be nil, in which
// case every call uses the four-way fetch.
func NewDayViewAggregator(
	procs domain.ScheduleProcedures,
	blocks domain.BlockRepository,
	events domain.EventRepository,
	backlog domain.BacklogRepository,
	technicians domain.TechnicianDirectory,
	logger *slog.Logger,
	metrics observability.Metrics,
) *DayViewAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &DayViewAggregator{
		procs:       procs,
		blocks:      blocks,
		events:      events,
		backlog:     backlog,
		technicians: technicians,
		logger:      logger,
		metrics:     metrics,
	}
}

// Aggregate returns the day view, preferring the single aggregated fetch.
// When it fails, the four sections are fetched concurrently and a section
// that fails is returned empty and listed in MissingSections. Only context
// cancellation is returned as an error.
func (a *DayViewAggregator) Aggregate(ctx context.Context, organizationID uuid.UUID, date time.Time) (DayViewResult, error) {
	dayStart, dayEnd := domain.DayBounds(date)

	if a.procs != nil {
		view, err := a.procs.DayView(ctx, organizationID, dayStart, dayEnd)
		if err == nil {
			view.Date = dayStart
			normalize(view)
			return DayViewResult{View: view, Source: SourceAggregate}, nil
		}
		if ctx.Err() != nil {
			return DayViewResult{}, ctx.Err()
		}
		a.logger.WarnContext(ctx, "aggregated day view failed, fetching sections",
			observability.OperationKey, "get_day_view",
			"organization_id", organizationID,
			"error", err,
		)
	}

	return a.fallback(ctx, organizationID, dayStart, dayEnd)
}

func (a *DayViewAggregator) fallback(ctx context.Context, organizationID uuid.UUID, dayStart, dayEnd time.Time) (DayViewResult, error) {
	view := &domain.DayView{Date: dayStart}
	sections := []struct {
		name string
		load func() error
		err  error
	}{
		{name: SectionTechnicians, load: func() (err error) {
			view.Technicians, err = a.technicians.ListTechnicians(ctx, organizationID)
			return err
		}},
		{name: SectionBlocks, load: func() (err error) {
			view.Blocks, err = a.blocks.ListByDay(ctx, organizationID, dayStart, dayEnd)
			return err
		}},
		{name: SectionEvents, load: func() (err error) {
			view.Events, err = a.events.ListByDay(ctx, organizationID, dayStart, dayEnd)
			return err
		}},
		{name: SectionBacklog, load: func() (err error) {
			view.Backlog, err = a.backlog.ListBacklog(ctx, organizationID)
			return err
		}},
	}

	// A failed section is kept in its own err slot instead of being returned
	// to the group, so one failure never hides or cancels the others.
	var g errgroup.Group
	for i := range sections {
		section := &sections[i]
		g.Go(func() error {
			section.err = section.load()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return DayViewResult{}, err
	}
	if ctx.Err() != nil {
		return DayViewResult{}, ctx.Err()
	}

	result := DayViewResult{View: view, Source: SourceFallback}
	for _, section := range sections {
		if section.err == nil {
			continue
		}
		result.MissingSections = append(result.MissingSections, section.name)
		a.logger.WarnContext(ctx, "day view section unavailable",
			observability.OperationKey, "get_day_view",
			"organization_id", organizationID,
			"section", section.name,
			"error", section.err,
		)
		a.metrics.Counter(observability.MetricReadsDegraded, 1,
			observability.T("operation", "get_day_view"),
			observability.T("section", section.name),
		)
	}

	normalize(view)
	return result, nil
}

// normalize replaces nil sections with empty ones so both paths produce
// the same shape.
func normalize(view *domain.DayView) {
	if view.Technicians == nil {
		view.Technicians = []domain.Technician{}
	}
	if view.Blocks == nil {
		view.Blocks = []*domain.ScheduleBlock{}
	}
	if view.Events == nil {
		view.Events = []*domain.ScheduleEvent{}
	}
	if view.Backlog == nil {
		view.Backlog = []domain.BacklogJob{}
	}
}
