package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

// ListBlocksQuery lists one organization's blocks for a day.
type ListBlocksQuery struct {
	OrganizationID uuid.UUID
	Date           time.Time
}

// ListBlocksHandler handles the ListBlocksQuery.
type ListBlocksHandler struct {
	blocks domain.BlockRepository
}

// NewListBlocksHandler creates a new ListBlocksHandler.
func NewListBlocksHandler(blocks domain.BlockRepository) *ListBlocksHandler {
	return &ListBlocksHandler{blocks: blocks}
}

// Handle returns blocks starting within the UTC day, keyed by technician
// id. Unassigned blocks are keyed by domain.UnassignedKey.
func (h *ListBlocksHandler) Handle(ctx context.Context, query ListBlocksQuery) (map[string][]BlockDTO, error) {
	dayStart, dayEnd := domain.DayBounds(query.Date)
	blocks, err := h.blocks.ListByDay(ctx, query.OrganizationID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]BlockDTO)
	for _, b := range blocks {
		key := b.GroupKey()
		grouped[key] = append(grouped[key], ToBlockDTO(b))
	}
	return grouped, nil
}
