package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

// Tier identifies which placement path served a write.
type Tier string

const (
	// TierAtomic runs check and write inside one backend procedure.
	TierAtomic Tier = "atomic"
	// TierDegraded writes fields directly without a conflict re-check.
	TierDegraded Tier = "degraded"
)

// PlacementExecutor performs placement writes for one tier.
type PlacementExecutor interface {
	Tier() Tier
	MoveBlock(ctx context.Context, blockID uuid.UUID, technicianID *uuid.UUID, tr domain.TimeRange) (domain.MoveResult, error)
	AssignJob(ctx context.Context, params domain.AssignJobParams) (domain.AssignResult, error)
}

// BreakerConfig tunes the breaker guarding the atomic procedures.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive unavailable errors that open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// DefaultBreakerConfig returns the production breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{MaxFailures: 3, OpenTimeout: 30 * time.Second}
}

// AtomicPlacementExecutor calls the backend's atomic procedures behind a
// circuit breaker. Only ErrBackendUnavailable counts against the breaker;
// not-found and validation errors are ordinary answers. While the breaker
// is open every call fails fast with ErrBackendUnavailable.
type AtomicPlacementExecutor struct {
	procs   domain.ScheduleProcedures
	breaker *gobreaker.CircuitBreaker[any]
}

// NewAtomicPlacementExecutor wraps procs with a breaker configured by cfg.
func NewAtomicPlacementExecutor(procs domain.ScheduleProcedures, cfg BreakerConfig, logger *slog.Logger) *AtomicPlacementExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = DefaultBreakerConfig().MaxFailures
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "schedule-procedures",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return !errors.Is(err, domain.ErrBackendUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &AtomicPlacementExecutor{procs: procs, breaker: breaker}
}

func (e *AtomicPlacementExecutor) Tier() Tier { return TierAtomic }

// State exposes the breaker state for health reporting.
func (e *AtomicPlacementExecutor) State() gobreaker.State {
	return e.breaker.State()
}

func (e *AtomicPlacementExecutor) MoveBlock(ctx context.Context, blockID uuid.UUID, technicianID *uuid.UUID, tr domain.TimeRange) (domain.MoveResult, error) {
	out, err := e.execute(func() (any, error) {
		return e.procs.MoveBlock(ctx, blockID, technicianID, tr)
	})
	if err != nil {
		return domain.MoveResult{}, err
	}
	return out.(domain.MoveResult), nil
}

func (e *AtomicPlacementExecutor) AssignJob(ctx context.Context, params domain.AssignJobParams) (domain.AssignResult, error) {
	out, err := e.execute(func() (any, error) {
		return e.procs.AssignJob(ctx, params)
	})
	if err != nil {
		return domain.AssignResult{}, err
	}
	return out.(domain.AssignResult), nil
}

func (e *AtomicPlacementExecutor) execute(fn func() (any, error)) (any, error) {
	out, err := e.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.Wrap(domain.ErrBackendUnavailable, "schedule procedures circuit open")
	}
	return out, err
}

// DegradedPlacementExecutor writes placement fields directly. Moves skip
// the conflict re-check, so a degraded move can leave an overlap unflagged
// and races with concurrent writers. Assignment has no degraded form.
type DegradedPlacementExecutor struct {
	blocks domain.BlockRepository
}

// NewDegradedPlacementExecutor creates the fallback tier over blocks.
func NewDegradedPlacementExecutor(blocks domain.BlockRepository) *DegradedPlacementExecutor {
	return &DegradedPlacementExecutor{blocks: blocks}
}

func (e *DegradedPlacementExecutor) Tier() Tier { return TierDegraded }

func (e *DegradedPlacementExecutor) MoveBlock(ctx context.Context, blockID uuid.UUID, technicianID *uuid.UUID, tr domain.TimeRange) (domain.MoveResult, error) {
	if err := e.blocks.UpdatePlacement(ctx, blockID, technicianID, tr); err != nil {
		return domain.MoveResult{}, err
	}
	return domain.MoveResult{Success: true, BlockID: blockID}, nil
}

func (e *DegradedPlacementExecutor) AssignJob(context.Context, domain.AssignJobParams) (domain.AssignResult, error) {
	return domain.AssignResult{}, errors.Wrap(domain.ErrBackendUnavailable, "job assignment requires the atomic procedure")
}
