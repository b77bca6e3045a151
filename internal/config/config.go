package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// SchedulerConfig holds the tunable parts of the review scheduler.
type SchedulerConfig struct {
	// DefaultQueueLimit applies when a caller passes a non-positive limit.
	DefaultQueueLimit int `mapstructure:"default_queue_limit" validate:"gt=0"`
	// MaxQueueLimit caps any caller-supplied limit.
	MaxQueueLimit int `mapstructure:"max_queue_limit" validate:"gtefield=DefaultQueueLimit"`
	// MinQueueSize is the due-item count below which new items are backfilled.
	MinQueueSize int `mapstructure:"min_queue_size" validate:"gte=0"`

	MinEasinessFactor     float64 `mapstructure:"min_easiness_factor" validate:"gte=1.3"`
	InitialEasinessFactor float64 `mapstructure:"initial_easiness_factor" validate:"gtefield=MinEasinessFactor"`

	// Timezone names the IANA zone used to bucket reviews into calendar days.
	Timezone string `mapstructure:"timezone" validate:"required"`
}

// CacheConfig selects and tunes the read-through cache for queues and stats.
type CacheConfig struct {
	// Backend is one of "none", "memory" or "redis".
	Backend  string        `mapstructure:"backend" validate:"oneof=none memory redis"`
	RedisURL string        `mapstructure:"redis_url" validate:"required_if=Backend redis"`
	QueueTTL time.Duration `mapstructure:"queue_ttl" validate:"gte=0"`
	StatsTTL time.Duration `mapstructure:"stats_ttl" validate:"gte=0"`
}

// TracingConfig controls OpenTelemetry span export.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name" validate:"required_if=Enabled true"`
}

// Location resolves the scheduler timezone, falling back to UTC.
func (c SchedulerConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
