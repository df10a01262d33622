package queries

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	"github.com/iworkr/iworkr-stack-sub004/pkg/observability"
)

// CheckConflictsQuery lists an organization's flagged blocks.
type CheckConflictsQuery struct {
	OrganizationID uuid.UUID
}

// CheckConflictsHandler handles the CheckConflictsQuery.
type CheckConflictsHandler struct {
	blocks  domain.BlockRepository
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewCheckConflictsHandler creates a new CheckConflictsHandler.
func NewCheckConflictsHandler(blocks domain.BlockRepository, logger *slog.Logger, metrics observability.Metrics) *CheckConflictsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &CheckConflictsHandler{blocks: blocks, logger: logger, metrics: metrics}
}

// Handle returns the blocks whose conflict flag is set. Backend failures
// are logged and produce an empty list so dashboards keep rendering.
func (h *CheckConflictsHandler) Handle(ctx context.Context, query CheckConflictsQuery) []BlockDTO {
	blocks, err := h.blocks.ListConflicting(ctx, query.OrganizationID)
	if err != nil {
		h.logger.WarnContext(ctx, "conflict scan failed, reporting none",
			observability.OperationKey, "check_conflicts",
			"organization_id", query.OrganizationID,
			"error", err,
		)
		h.metrics.Counter(observability.MetricReadsDegraded, 1, observability.T("operation", "check_conflicts"))
		return []BlockDTO{}
	}
	return ToBlockDTOs(blocks)
}
