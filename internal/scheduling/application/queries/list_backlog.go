package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

// ListBacklogQuery lists jobs waiting to be scheduled.
type ListBacklogQuery struct {
	OrganizationID uuid.UUID
}

// ListBacklogHandler handles the ListBacklogQuery.
type ListBacklogHandler struct {
	backlog domain.BacklogRepository
}

// NewListBacklogHandler creates a new ListBacklogHandler.
func NewListBacklogHandler(backlog domain.BacklogRepository) *ListBacklogHandler {
	return &ListBacklogHandler{backlog: backlog}
}

func (h *ListBacklogHandler) Handle(ctx context.Context, query ListBacklogQuery) ([]BacklogJobDTO, error) {
	jobs, err := h.backlog.ListBacklog(ctx, query.OrganizationID)
	if err != nil {
		return nil, err
	}
	return toBacklogDTOs(jobs), nil
}
