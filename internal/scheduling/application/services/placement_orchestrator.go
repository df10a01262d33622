package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	sharedApplication "github.com/iworkr/iworkr-stack-sub004/internal/shared/application"
	"github.com/iworkr/iworkr-stack-sub004/pkg/observability"
)

// MoveOutcome reports how a move was served.
type MoveOutcome struct {
	domain.MoveResult
	Tier Tier
}

// ConflictChecked reports whether the conflict flag was recomputed. The
// degraded tier leaves it as it was.
func (o MoveOutcome) ConflictChecked() bool {
	return o.Tier == TierAtomic
}

// MoveHook runs inside the unit of work that performed the move, after the write.
type MoveHook func(ctx context.Context, outcome MoveOutcome) error

// AssignHook runs inside the unit of work that performed the assignment.
type AssignHook func(ctx context.Context, result domain.AssignResult) error

// ResizeHook runs inside the unit of work that performed the resize.
type ResizeHook func(ctx context.Context, block *domain.ScheduleBlock, oldEnd time.Time) error

// PlacementOrchestrator selects the placement tier for each write. Moves
// try the atomic tier first and fall back to the degraded tier when the
// backend is unavailable; the fallback is logged but not returned to the
// caller. Assignment never falls back. Resize is always a direct write
// without conflict detection.
type PlacementOrchestrator struct {
	atomic   PlacementExecutor
	degraded PlacementExecutor
	blocks   domain.BlockRepository
	uow      sharedApplication.UnitOfWork
	logger   *slog.Logger
	metrics  observability.Metrics
}

// NewPlacementOrchestrator creates an orchestrator over the two tiers.
func NewPlacementOrchestrator(
	atomic PlacementExecutor,
	degraded PlacementExecutor,
	blocks domain.BlockRepository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
	metrics observability.Metrics,
) *PlacementOrchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &PlacementOrchestrator{
		atomic:   atomic,
		degraded: degraded,
		blocks:   blocks,
		uow:      uow,
		logger:   logger,
		metrics:  metrics,
	}
}

// Move reassigns technician and time range. Each tier runs in its own unit
// of work: a failed procedure call can poison the surrounding transaction,
// so the degraded attempt starts fresh.
func (o *PlacementOrchestrator) Move(ctx context.Context, blockID uuid.UUID, technicianID *uuid.UUID, tr domain.TimeRange, hook MoveHook) (MoveOutcome, error) {
	outcome, err := o.moveWith(ctx, o.atomic, blockID, technicianID, tr, hook)
	if err == nil {
		return outcome, nil
	}
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		return MoveOutcome{}, err
	}

	o.logger.WarnContext(ctx, "atomic move unavailable, using degraded path",
		observability.OperationKey, "move_block",
		"block_id", blockID,
		"error", err,
	)
	o.metrics.Counter(observability.MetricDegradedFallbacks, 1, observability.T("operation", "move_block"))

	return o.moveWith(ctx, o.degraded, blockID, technicianID, tr, hook)
}

func (o *PlacementOrchestrator) moveWith(ctx context.Context, executor PlacementExecutor, blockID uuid.UUID, technicianID *uuid.UUID, tr domain.TimeRange, hook MoveHook) (MoveOutcome, error) {
	outcome, err := sharedApplication.InUnitOfWork(ctx, o.uow, func(txCtx context.Context) (MoveOutcome, error) {
		result, err := executor.MoveBlock(txCtx, blockID, technicianID, tr)
		if err != nil {
			return MoveOutcome{}, err
		}
		if !result.Success {
			return MoveOutcome{}, domain.ErrBlockNotFound
		}

		out := MoveOutcome{MoveResult: result, Tier: executor.Tier()}
		if hook != nil {
			if err := hook(txCtx, out); err != nil {
				return MoveOutcome{}, err
			}
		}
		return out, nil
	})
	o.recordAttempt("move_block", executor.Tier(), err)
	if err != nil {
		return MoveOutcome{}, err
	}
	if outcome.Conflict {
		o.metrics.Counter(observability.MetricConflictsFlagged, 1, observability.T("operation", "move_block"))
	}
	return outcome, nil
}

// Assign promotes a backlog job into a block through the atomic procedure.
// Any failure, including an unavailable backend, leaves nothing persisted.
func (o *PlacementOrchestrator) Assign(ctx context.Context, params domain.AssignJobParams, hook AssignHook) (domain.AssignResult, error) {
	result, err := sharedApplication.InUnitOfWork(ctx, o.uow, func(txCtx context.Context) (domain.AssignResult, error) {
		result, err := o.atomic.AssignJob(txCtx, params)
		if err != nil {
			return domain.AssignResult{}, err
		}
		if hook != nil {
			if err := hook(txCtx, result); err != nil {
				return domain.AssignResult{}, err
			}
		}
		return result, nil
	})
	o.recordAttempt("assign_job", o.atomic.Tier(), err)
	if err != nil {
		return domain.AssignResult{}, err
	}
	if result.Conflict {
		o.metrics.Counter(observability.MetricConflictsFlagged, 1, observability.T("operation", "assign_job"))
	}
	return result, nil
}

// Resize changes only the end time. No conflict detection runs, so a
// resize can create an overlap that stays unflagged.
func (o *PlacementOrchestrator) Resize(ctx context.Context, blockID uuid.UUID, end time.Time, hook ResizeHook) (*domain.ScheduleBlock, error) {
	block, err := sharedApplication.InUnitOfWork(ctx, o.uow, func(txCtx context.Context) (*domain.ScheduleBlock, error) {
		block, err := o.blocks.FindByID(txCtx, blockID)
		if err != nil {
			return nil, err
		}
		oldEnd := block.EndTime()
		if err := block.Resize(end); err != nil {
			return nil, err
		}
		if err := o.blocks.UpdateEndTime(txCtx, blockID, block.EndTime()); err != nil {
			return nil, err
		}
		if hook != nil {
			if err := hook(txCtx, block, oldEnd); err != nil {
				return nil, err
			}
		}
		return block, nil
	})
	o.recordAttempt("resize_block", TierDegraded, err)
	return block, err
}

func (o *PlacementOrchestrator) recordAttempt(operation string, tier Tier, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrBackendUnavailable):
		result = "unavailable"
	default:
		result = "error"
	}
	o.metrics.Counter(observability.MetricPlacementAttempts, 1,
		observability.T("operation", operation),
		observability.T("tier", string(tier)),
		observability.T("result", result),
	)
}
