package outbox

import (
	"context"
	"time"

	"github.com/iworkr/iworkr-stack-sub004/internal/shared/domain"
)

// Repository defines the interface for outbox persistence. Save and
// SaveBatch join the transaction carried by ctx, if any.
type Repository interface {
	Save(ctx context.Context, msg *Message) error
	SaveBatch(ctx context.Context, msgs []*Message) error
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string) error
	// DeleteOld removes published messages older than the retention period.
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}

// Recorder turns domain events into outbox rows.
type Recorder struct {
	repo Repository
}

// NewRecorder creates a Recorder backed by repo.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record stores the events in the outbox using the transaction in ctx.
func (r *Recorder) Record(ctx context.Context, events ...domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]*Message, 0, len(events))
	for _, event := range events {
		msg, err := NewMessage(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return r.repo.SaveBatch(ctx, msgs)
}
