// Package app wires the scheduling context to its storage, cache, broker and
// observability backends.
package app

import (
	"context"
	"log/slog"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/iworkr/iworkr-stack-sub004/internal/identity"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/commands"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/queries"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/services"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/infrastructure/cache"
	sharedApplication "github.com/iworkr/iworkr-stack-sub004/internal/shared/application"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database"
	_ "github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database/postgres"
	_ "github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database/sqlite"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/eventbus"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/migrations"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/outbox"
	"github.com/iworkr/iworkr-stack-sub004/pkg/config"
	"github.com/iworkr/iworkr-stack-sub004/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Repositories
	BlockRepo      domain.BlockRepository
	EventRepo      domain.EventRepository
	BacklogRepo    domain.BacklogRepository
	TechnicianDir  domain.TechnicianDirectory
	ScheduleProcs  domain.ScheduleProcedures
	OutboxRepo     outbox.Repository
	OutboxRecorder *outbox.Recorder

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	DayViewCache domain.DayViewCache
	Identity     identity.Resolver

	// Observability
	MetricsRegistry *prometheus.Registry
	Metrics         observability.Metrics
	Health          *observability.HealthRegistry

	// Publishers
	EventPublisher  eventbus.Publisher
	OutboxProcessor *outbox.Processor

	// Services
	ConflictDetector *services.ConflictDetector
	Orchestrator     *services.PlacementOrchestrator
	Aggregator       *services.DayViewAggregator

	// Command Handlers
	CreateBlockHandler *commands.CreateBlockHandler
	UpdateBlockHandler *commands.UpdateBlockHandler
	DeleteBlockHandler *commands.DeleteBlockHandler
	MoveBlockHandler   *commands.MoveBlockHandler
	ResizeBlockHandler *commands.ResizeBlockHandler
	AssignJobHandler   *commands.AssignJobHandler
	CreateEventHandler *commands.CreateEventHandler
	DeleteEventHandler *commands.DeleteEventHandler

	// Query Handlers
	ListBlocksHandler     *queries.ListBlocksHandler
	ListBacklogHandler    *queries.ListBacklogHandler
	ListEventsHandler     *queries.ListEventsHandler
	GetDayViewHandler     *queries.GetDayViewHandler
	CheckConflictsHandler *queries.CheckConflictsHandler
}

// NewContainer creates a container for the configured backends. An empty
// DATABASE_URL selects the local SQLite file, which is migrated on start-up.
// Redis and RabbitMQ are optional in development and fall back to the
// in-memory cache and the noop publisher.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
		MaxConns:   int(cfg.DatabaseMaxConns),
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()
	logger.Info("connected to database", "driver", c.DBDriver)

	if c.DBDriver == database.DriverSQLite {
		if err := migrations.Up(ctx, conn, logger); err != nil {
			c.Close()
			return nil, errors.Wrap(err, "migrate local database")
		}
	}

	repos, err := NewRepositoryFactory(conn).Build()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.BlockRepo = repos.Blocks
	c.EventRepo = repos.Events
	c.BacklogRepo = repos.Backlog
	c.TechnicianDir = repos.Technicians
	c.ScheduleProcs = repos.Procedures
	c.OutboxRepo = repos.Outbox
	c.OutboxRecorder = outbox.NewRecorder(repos.Outbox)
	c.UnitOfWork = database.NewUnitOfWork(conn)

	if err := c.initCache(ctx); err != nil {
		c.Close()
		return nil, err
	}

	c.initObservability()

	resolver, err := newResolver(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Identity = resolver

	if err := c.initPublisher(); err != nil {
		c.Close()
		return nil, err
	}
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     cfg.OutboxPollInterval,
		BatchSize:        cfg.OutboxBatchSize,
		MaxRetries:       cfg.OutboxMaxRetries,
		RetryBackoffBase: outbox.DefaultProcessorConfig().RetryBackoffBase,
		RetryBackoffMax:  outbox.DefaultProcessorConfig().RetryBackoffMax,
		RetentionDays:    cfg.OutboxRetentionDays,
		PruneInterval:    cfg.OutboxPruneInterval,
	}, logger)

	c.initHandlers()

	logger.Info("container initialized",
		"driver", c.DBDriver,
		"redis", c.RedisClient != nil,
		"local_mode", cfg.LocalMode(),
	)
	return c, nil
}

func (c *Container) initCache(ctx context.Context) error {
	cfg := c.Config
	if cfg.RedisURL == "" {
		c.DayViewCache = cache.NewMemoryDayViewCache(cfg.DayViewCacheTTL)
		return nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		if !cfg.IsDevelopment() {
			return errors.Wrap(err, "parse Redis URL")
		}
		c.Logger.Warn("invalid Redis URL, day views will use in-memory cache", "error", err)
		c.DayViewCache = cache.NewMemoryDayViewCache(cfg.DayViewCacheTTL)
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !cfg.IsDevelopment() {
			return errors.Wrap(err, "connect to Redis")
		}
		c.Logger.Warn("Redis not available, day views will use in-memory cache", "error", err)
		c.DayViewCache = cache.NewMemoryDayViewCache(cfg.DayViewCacheTTL)
		return nil
	}

	c.RedisClient = client
	c.DayViewCache = cache.NewRedisDayViewCache(client, cfg.DayViewCacheTTL)
	c.Logger.Info("connected to Redis")
	return nil
}

func (c *Container) initObservability() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.MetricsRegistry = reg
	c.Metrics = observability.NewPrometheusMetrics(reg)

	c.Health = observability.NewHealthRegistry()
	c.Health.Register("database", observability.DatabaseHealthChecker(c.DBConn.Ping))
	if c.RedisClient != nil {
		client := c.RedisClient
		c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))
	}
}

func (c *Container) initPublisher() error {
	cfg := c.Config
	if cfg.RabbitMQURL == "" {
		c.EventPublisher = eventbus.NewNoopPublisher(c.Logger)
		return nil
	}

	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, c.Logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			return errors.Wrap(err, "connect to RabbitMQ")
		}
		c.Logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
		c.EventPublisher = eventbus.NewNoopPublisher(c.Logger)
		return nil
	}
	c.EventPublisher = publisher
	return nil
}

func (c *Container) initHandlers() {
	cfg := c.Config

	c.ConflictDetector = services.NewConflictDetector(c.BlockRepo)
	atomic := services.NewAtomicPlacementExecutor(c.ScheduleProcs, services.BreakerConfig{
		MaxFailures: cfg.ProcedureBreakerFailures,
		OpenTimeout: cfg.ProcedureBreakerTimeout,
	}, c.Logger)
	degraded := services.NewDegradedPlacementExecutor(c.BlockRepo)
	c.Orchestrator = services.NewPlacementOrchestrator(atomic, degraded, c.BlockRepo, c.UnitOfWork, c.Logger, c.Metrics)
	c.Aggregator = services.NewDayViewAggregator(
		c.ScheduleProcs, c.BlockRepo, c.EventRepo, c.BacklogRepo, c.TechnicianDir, c.Logger, c.Metrics,
	)

	support := commands.NewSupport(c.Identity, c.UnitOfWork, c.OutboxRecorder, c.DayViewCache, c.Logger, c.Metrics)
	c.CreateBlockHandler = commands.NewCreateBlockHandler(c.BlockRepo, c.TechnicianDir, c.ConflictDetector, support)
	c.UpdateBlockHandler = commands.NewUpdateBlockHandler(c.BlockRepo, c.TechnicianDir, c.ConflictDetector, support)
	c.DeleteBlockHandler = commands.NewDeleteBlockHandler(c.BlockRepo, support)
	c.MoveBlockHandler = commands.NewMoveBlockHandler(c.BlockRepo, c.TechnicianDir, c.Orchestrator, support)
	c.ResizeBlockHandler = commands.NewResizeBlockHandler(c.Orchestrator, support)
	c.AssignJobHandler = commands.NewAssignJobHandler(c.BlockRepo, c.TechnicianDir, c.Orchestrator, support)
	c.CreateEventHandler = commands.NewCreateEventHandler(c.EventRepo, support)
	c.DeleteEventHandler = commands.NewDeleteEventHandler(c.EventRepo, support)

	c.ListBlocksHandler = queries.NewListBlocksHandler(c.BlockRepo)
	c.ListBacklogHandler = queries.NewListBacklogHandler(c.BacklogRepo)
	c.ListEventsHandler = queries.NewListEventsHandler(c.EventRepo)
	c.GetDayViewHandler = queries.NewGetDayViewHandler(c.Aggregator, c.BacklogRepo, c.DayViewCache, c.Logger, c.Metrics)
	c.CheckConflictsHandler = queries.NewCheckConflictsHandler(c.BlockRepo, c.Logger, c.Metrics)
}

// newResolver runs as the configured user when IWORKR_USER_ID is set. A
// caller already on the context, such as a verified bearer token, wins.
func newResolver(cfg *config.Config) (identity.Resolver, error) {
	if cfg.UserID == "" {
		return identity.ContextResolver{}, nil
	}
	userID, err := uuid.Parse(cfg.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "parse IWORKR_USER_ID")
	}
	return identity.StaticResolver{UserID: userID}, nil
}

// DefaultOrganizationID returns IWORKR_ORGANIZATION_ID, or uuid.Nil when unset.
func (c *Container) DefaultOrganizationID() uuid.UUID {
	if c.Config == nil || c.Config.OrganizationID == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(c.Config.OrganizationID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// Close releases all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil && c.OutboxProcessor.IsRunning() {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err, "driver", c.DBDriver)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver)
		}
	}
}
