package services

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

// ConflictDetector answers whether a proposed placement overlaps a
// technician's existing commitments. The verdict is advisory; callers store
// it on the block being written and never reject the write.
type ConflictDetector struct {
	blocks domain.BlockRepository
}

// NewConflictDetector creates a detector reading from blocks.
func NewConflictDetector(blocks domain.BlockRepository) *ConflictDetector {
	return &ConflictDetector{blocks: blocks}
}

// Check loads the technician's blocks around the proposed range and applies
// domain.HasConflict. Unassigned placements return false without a read.
func (d *ConflictDetector) Check(ctx context.Context, q domain.ConflictQuery) (bool, error) {
	if q.TechnicianID == nil {
		return false, nil
	}

	existing, err := d.blocks.ListForTechnician(ctx, q.OrganizationID, *q.TechnicianID, q.Range)
	if err != nil {
		return false, errors.Wrap(err, "load technician blocks")
	}

	return domain.HasConflict(existing, q), nil
}
