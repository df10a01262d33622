package domain

import "github.com/google/uuid"

// ConflictQuery describes a proposed placement to check.
type ConflictQuery struct {
	OrganizationID uuid.UUID
	TechnicianID   *uuid.UUID
	Range          TimeRange
	// ExcludeBlockID keeps a block from conflicting with itself on update and move.
	ExcludeBlockID *uuid.UUID
}

// HasConflict reports whether the proposed placement overlaps any active
// block of the same technician in the same organization. Unassigned
// placements never conflict.
func HasConflict(existing []*ScheduleBlock, q ConflictQuery) bool {
	if q.TechnicianID == nil {
		return false
	}
	for _, b := range existing {
		if b.OrganizationID() != q.OrganizationID {
			continue
		}
		if !sameID(b.TechnicianID(), q.TechnicianID) {
			continue
		}
		if !b.Status().IsActive() {
			continue
		}
		if q.ExcludeBlockID != nil && b.ID() == *q.ExcludeBlockID {
			continue
		}
		if b.TimeRange().Overlaps(q.Range) {
			return true
		}
	}
	return false
}
