package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT"`
	Version   string `env:"IWORKR_VERSION" envDefault:"dev"`

	// Local operator identity used by the CLI and MCP server.
	UserID         string `env:"IWORKR_USER_ID"`
	OrganizationID string `env:"IWORKR_ORGANIZATION_ID"`

	// Database
	DatabaseDriver   string `env:"DATABASE_DRIVER" envDefault:"auto"`
	DatabaseURL      string `env:"DATABASE_URL"`
	SQLitePath       string `env:"SQLITE_PATH"`
	DatabaseMaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"10"`

	// Redis
	RedisURL        string        `env:"REDIS_URL"`
	DayViewCacheTTL time.Duration `env:"DAY_VIEW_CACHE_TTL" envDefault:"30s"`

	// RabbitMQ
	RabbitMQURL string `env:"RABBITMQ_URL"`

	// Outbox
	OutboxPollInterval     time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"500ms"`
	OutboxBatchSize        int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	OutboxMaxRetries       int           `env:"OUTBOX_MAX_RETRIES" envDefault:"5"`
	OutboxRetentionDays    int           `env:"OUTBOX_RETENTION_DAYS" envDefault:"7"`
	OutboxPruneInterval    time.Duration `env:"OUTBOX_PRUNE_INTERVAL" envDefault:"1h"`
	OutboxProcessorEnabled bool          `env:"OUTBOX_PROCESSOR_ENABLED" envDefault:"true"`

	// HTTP
	HTTPAddr           string   `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	JWTSecret          string   `env:"JWT_SECRET"`

	// Atomic placement procedures
	ProcedureBreakerFailures uint32        `env:"PROCEDURE_BREAKER_FAILURES" envDefault:"3"`
	ProcedureBreakerTimeout  time.Duration `env:"PROCEDURE_BREAKER_TIMEOUT" envDefault:"30s"`

	// Worker
	WorkerHealthAddr string `env:"WORKER_HEALTH_ADDR" envDefault:"0.0.0.0:8081"`

	// MCP
	MCPAddr      string `env:"MCP_ADDR" envDefault:"0.0.0.0:8082"`
	MCPAuthToken string `env:"MCP_AUTH_TOKEN"`
}

// Load loads configuration from environment variables, reading .env first
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.UserID != "" {
		if _, err := uuid.Parse(c.UserID); err != nil {
			return errors.Wrap(err, "IWORKR_USER_ID")
		}
	}
	if c.OrganizationID != "" {
		if _, err := uuid.Parse(c.OrganizationID); err != nil {
			return errors.Wrap(err, "IWORKR_ORGANIZATION_ID")
		}
	}
	if c.OutboxBatchSize <= 0 {
		return errors.New("OUTBOX_BATCH_SIZE must be positive")
	}
	if c.ProcedureBreakerFailures == 0 {
		return errors.New("PROCEDURE_BREAKER_FAILURES must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LocalMode reports whether storage falls back to the local SQLite file.
func (c *Config) LocalMode() bool {
	return c.DatabaseURL == "" && c.DatabaseDriver != "postgres"
}
