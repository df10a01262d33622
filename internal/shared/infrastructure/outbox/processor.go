package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/shared/domain"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/eventbus"
	"github.com/iworkr/iworkr-stack-sub004/pkg/observability"
)

// ProcessorConfig holds configuration for the outbox relay.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
	// RetentionDays > 0 enables pruning of published rows every PruneInterval.
	RetentionDays int
	PruneInterval time.Duration
}

// DefaultProcessorConfig returns the relay defaults used by the worker.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     500 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		RetentionDays:    7,
		PruneInterval:    time.Hour,
	}
}

// Stats is a snapshot of relay progress, reported by the worker.
type Stats struct {
	IsRunning       bool
	PublishedCount  uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

type delivery int

const (
	delivered delivery = iota
	retrying
	deadLettered
)

// Processor relays unpublished scheduling events from the outbox to the
// broker. Failed messages are retried with exponential backoff until
// MaxRetries, then dead-lettered.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	stats  Stats
}

// NewProcessor creates a new outbox relay.
func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger,
	}
}

// Start runs the relay loop in the background until ctx ends or Stop is
// called. Starting a running relay is a no-op.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(loopCtx, p.done)

	p.logger.Info("outbox relay started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
	)
	return nil
}

// Stop ends the relay loop and waits for the in-flight batch.
func (p *Processor) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Info("outbox relay stopped")
}

// IsRunning reports whether the relay loop is active.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// ProcessOnce relays a single batch synchronously.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	messages, err := p.repo.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.observeError(err)
		return err
	}
	p.observeBatch(messages)

	for _, msg := range messages {
		p.observe(p.deliver(ctx, msg))
	}
	return nil
}

// GetStats returns a snapshot of relay statistics.
func (p *Processor) GetStats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	stats := p.stats
	stats.IsRunning = p.cancel != nil
	return stats
}

func (p *Processor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	poll := time.NewTicker(p.config.PollInterval)
	defer poll.Stop()

	var prune <-chan time.Time
	if p.config.RetentionDays > 0 && p.config.PruneInterval > 0 {
		t := time.NewTicker(p.config.PruneInterval)
		defer t.Stop()
		prune = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			if err := p.ProcessOnce(ctx); err != nil {
				p.logger.Error("outbox batch failed", "error", err)
			}
		case <-prune:
			p.prune(ctx)
		}
	}
}

// deliver publishes one message and records the result on its row.
func (p *Processor) deliver(ctx context.Context, msg *Message) (delivery, error) {
	ctx = withEventCorrelation(ctx, msg)

	err := p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload)
	if err == nil {
		if markErr := p.repo.MarkPublished(ctx, msg.ID); markErr != nil {
			p.logger.ErrorContext(ctx, "mark outbox message published",
				"id", msg.ID,
				"error", markErr,
			)
		}
		return delivered, nil
	}

	p.logger.WarnContext(ctx, "publish scheduling event",
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"aggregate_id", msg.AggregateID,
		"retry_count", msg.RetryCount,
		"error", err,
	)

	if p.config.MaxRetries <= 0 || msg.RetryCount+1 >= p.config.MaxRetries {
		if markErr := p.repo.MarkDead(ctx, msg.ID, err.Error()); markErr != nil {
			p.logger.ErrorContext(ctx, "dead-letter outbox message", "id", msg.ID, "error", markErr)
		}
		return deadLettered, err
	}

	next := time.Now().Add(p.backoff(msg.RetryCount + 1))
	if markErr := p.repo.MarkFailed(ctx, msg.ID, err.Error(), next); markErr != nil {
		p.logger.ErrorContext(ctx, "schedule outbox retry", "id", msg.ID, "error", markErr)
	}
	return retrying, err
}

// backoff doubles the base delay per attempt, capped at RetryBackoffMax.
func (p *Processor) backoff(attempt int) time.Duration {
	delay, limit := p.config.RetryBackoffBase, p.config.RetryBackoffMax
	if delay <= 0 {
		delay = time.Second
	}
	if limit <= 0 {
		limit = time.Minute
	}
	for i := 1; i < attempt && delay < limit; i++ {
		delay *= 2
	}
	return min(delay, limit)
}

func (p *Processor) prune(ctx context.Context) {
	deleted, err := p.repo.DeleteOld(ctx, p.config.RetentionDays)
	if err != nil {
		p.logger.Error("prune outbox", "error", err)
		return
	}
	if deleted > 0 {
		p.logger.Info("pruned published outbox messages", "count", deleted)
	}
}

// withEventCorrelation carries the correlation id of the write that
// produced msg into the relay logs.
func withEventCorrelation(ctx context.Context, msg *Message) context.Context {
	if len(msg.Metadata) == 0 {
		return ctx
	}
	var meta domain.EventMetadata
	if err := json.Unmarshal(msg.Metadata, &meta); err != nil || meta.CorrelationID == uuid.Nil {
		return ctx
	}
	return observability.WithCorrelationID(ctx, meta.CorrelationID.String())
}

func (p *Processor) observe(result delivery, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch result {
	case delivered:
		p.stats.PublishedCount++
		return
	case retrying:
		p.stats.FailedCount++
	case deadLettered:
		p.stats.DeadCount++
	}
	p.setError(err)
}

func (p *Processor) observeError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setError(err)
}

func (p *Processor) setError(err error) {
	now := time.Now()
	p.stats.LastError = err.Error()
	p.stats.LastErrorAt = &now
}

func (p *Processor) observeBatch(messages []*Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.stats.LastProcessedAt = &now
	p.stats.OldestMessageAt = nil
	p.stats.LagSeconds = 0

	for _, msg := range messages {
		if p.stats.OldestMessageAt == nil || msg.CreatedAt.Before(*p.stats.OldestMessageAt) {
			created := msg.CreatedAt
			p.stats.OldestMessageAt = &created
		}
	}
	if p.stats.OldestMessageAt != nil {
		p.stats.LagSeconds = now.Sub(*p.stats.OldestMessageAt).Seconds()
	}
}
