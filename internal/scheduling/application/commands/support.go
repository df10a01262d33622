package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/identity"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	sharedApplication "github.com/iworkr/iworkr-stack-sub004/internal/shared/application"
	sharedDomain "github.com/iworkr/iworkr-stack-sub004/internal/shared/domain"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/outbox"
	"github.com/iworkr/iworkr-stack-sub004/pkg/observability"
)

var validate = validator.New()

// Support bundles the collaborators every write handler needs.
type Support struct {
	identity identity.Resolver
	uow      sharedApplication.UnitOfWork
	outbox   *outbox.Recorder
	cache    domain.DayViewCache
	logger   *slog.Logger
	metrics  observability.Metrics
}

// NewSupport creates the shared handler dependencies. cache may be nil.
func NewSupport(
	resolver identity.Resolver,
	uow sharedApplication.UnitOfWork,
	recorder *outbox.Recorder,
	cache domain.DayViewCache,
	logger *slog.Logger,
	metrics observability.Metrics,
) *Support {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Support{
		identity: resolver,
		uow:      uow,
		outbox:   recorder,
		cache:    cache,
		logger:   logger,
		metrics:  metrics,
	}
}

func (s *Support) caller(ctx context.Context) (identity.Identity, error) {
	caller, err := s.identity.Resolve(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return identity.Identity{}, err
		}
		return identity.Identity{}, errors.Wrap(domain.ErrUnauthorized, err.Error())
	}
	return caller, nil
}

// record writes events to the outbox in the transaction carried by ctx.
func (s *Support) record(ctx context.Context, caller identity.Identity, events ...sharedDomain.DomainEvent) error {
	sharedApplication.ApplyEventMetadata(events,
		sharedApplication.NewEventMetadata(caller.UserID, observability.CorrelationIDFromContext(ctx)))
	if err := s.outbox.Record(ctx, events...); err != nil {
		return errors.Wrap(err, "record domain events")
	}
	return nil
}

// invalidate drops cached day views after a committed write. A cache
// failure never fails the write; the entry expires on its own.
func (s *Support) invalidate(ctx context.Context, organizationID uuid.UUID, dates ...time.Time) {
	if s.cache == nil || len(dates) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, organizationID, dates...); err != nil {
		s.logger.WarnContext(ctx, "day view cache invalidation failed",
			"organization_id", organizationID,
			"error", err,
		)
		s.metrics.Counter(observability.MetricCacheErrors, 1, observability.T("operation", "invalidate"))
	}
}

func (s *Support) flagged(operation string, conflict bool) {
	if conflict {
		s.metrics.Counter(observability.MetricConflictsFlagged, 1, observability.T("operation", operation))
	}
}

// checkTechnician confirms the technician belongs to the organization.
func checkTechnician(ctx context.Context, directory domain.TechnicianDirectory, organizationID uuid.UUID, technicianID *uuid.UUID) (string, error) {
	if technicianID == nil {
		return "", nil
	}
	tech, err := directory.FindTechnician(ctx, organizationID, *technicianID)
	if err != nil {
		return "", err
	}
	return tech.DisplayName, nil
}

// validateCommand runs struct tag validation and reports failures per field.
func validateCommand(cmd any) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(domain.ErrValidationFailed, err.Error())
	}

	verr := &domain.ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields[snakeCase(fe.Field())] = describe(fe)
	}
	return verr
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed " + fe.Tag()
	}
}

func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
