package queries

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/services"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	"github.com/iworkr/iworkr-stack-sub004/pkg/observability"
)

// GetDayViewQuery requests the composed view of one organization's day.
type GetDayViewQuery struct {
	OrganizationID uuid.UUID
	Date           time.Time
}

// GetDayViewHandler handles the GetDayViewQuery.
type GetDayViewHandler struct {
	aggregator *services.DayViewAggregator
	backlog    domain.BacklogRepository
	cache      domain.DayViewCache
	logger     *slog.Logger
	metrics    observability.Metrics
}

// NewGetDayViewHandler creates a new GetDayViewHandler. cache may be nil.
func NewGetDayViewHandler(
	aggregator *services.DayViewAggregator,
	backlog domain.BacklogRepository,
	cache domain.DayViewCache,
	logger *slog.Logger,
	metrics observability.Metrics,
) *GetDayViewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &GetDayViewHandler{aggregator: aggregator, backlog: backlog, cache: cache, logger: logger, metrics: metrics}
}

// Handle serves from the cache when possible. Complete views are cached;
// partial fallback views are not. The backlog is organization-wide, so it
// is never cached and is read fresh on every cache hit.
func (h *GetDayViewHandler) Handle(ctx context.Context, query GetDayViewQuery) (*DayViewDTO, error) {
	if view, ok := h.fromCache(ctx, query); ok {
		h.loadBacklog(ctx, query.OrganizationID, view)
		h.served(services.SourceCache)
		return view, nil
	}

	result, err := h.aggregator.Aggregate(ctx, query.OrganizationID, query.Date)
	if err != nil {
		return nil, err
	}
	view := toDayViewDTO(result.View, result.Source, result.MissingSections)
	h.served(result.Source)

	if h.cache != nil && !result.Degraded() {
		cached := *view
		cached.Backlog = nil
		payload, err := json.Marshal(cached)
		if err == nil {
			err = h.cache.Set(ctx, query.OrganizationID, query.Date, payload)
		}
		if err != nil {
			h.cacheError(ctx, "set", err)
		}
	}
	return view, nil
}

func (h *GetDayViewHandler) fromCache(ctx context.Context, query GetDayViewQuery) (*DayViewDTO, bool) {
	if h.cache == nil {
		return nil, false
	}
	payload, ok, err := h.cache.Get(ctx, query.OrganizationID, query.Date)
	if err != nil {
		h.cacheError(ctx, "get", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var view DayViewDTO
	if err := json.Unmarshal(payload, &view); err != nil {
		h.cacheError(ctx, "decode", err)
		return nil, false
	}
	view.Source = services.SourceCache
	return &view, true
}

func (h *GetDayViewHandler) loadBacklog(ctx context.Context, organizationID uuid.UUID, view *DayViewDTO) {
	jobs, err := h.backlog.ListBacklog(ctx, organizationID)
	if err != nil {
		h.logger.WarnContext(ctx, "day view section unavailable",
			observability.OperationKey, "get_day_view",
			"organization_id", organizationID,
			"section", services.SectionBacklog,
			"error", err,
		)
		h.metrics.Counter(observability.MetricReadsDegraded, 1,
			observability.T("operation", "get_day_view"),
			observability.T("section", services.SectionBacklog),
		)
		view.Backlog = []BacklogJobDTO{}
		view.MissingSections = append(view.MissingSections, services.SectionBacklog)
		return
	}
	view.Backlog = toBacklogDTOs(jobs)
}

func (h *GetDayViewHandler) served(source string) {
	h.metrics.Counter(observability.MetricDayViewServed, 1, observability.T("source", source))
}

func (h *GetDayViewHandler) cacheError(ctx context.Context, operation string, err error) {
	h.logger.WarnContext(ctx, "day view cache error",
		observability.OperationKey, "get_day_view",
		"cache_operation", operation,
		"error", err,
	)
	h.metrics.Counter(observability.MetricCacheErrors, 1, observability.T("operation", operation))
}
