// Package config holds the settings shared by the API server, the worker
// and the CLI, loaded from YAML with YUMZOOM_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig configures PostgreSQL, which stores ratings, members,
// API applications and, with the postgres backend, rate limit buckets.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig configures the Redis bucket store and the purge lock.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig configures the usage event stream.  Disabled means no
// events are published and the worker does not consume.
type KafkaConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Brokers         []string      `mapstructure:"brokers"`
	UsageTopic      string        `mapstructure:"usage_topic"`
	ConsumerGroup   string        `mapstructure:"consumer_group"`
	ProducerRetries int           `mapstructure:"producer_retries"`
	BatchSize       int           `mapstructure:"batch_size"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// MinIOConfig configures the export bucket.
type MinIOConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	Region        string        `mapstructure:"region"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// AuthConfig configures session token verification.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	Audience  string        `mapstructure:"audience"`
	ClockSkew time.Duration `mapstructure:"clock_skew"`
}

// RateLimitConfig controls the public API limiter.
type RateLimitConfig struct {
	// Backend selects the bucket store: "redis" or "postgres".
	Backend string `mapstructure:"backend"`
	// DefaultPerHour / DefaultPerDay apply to applications whose record
	// carries a non-positive limit.
	DefaultPerHour int `mapstructure:"default_per_hour"`
	DefaultPerDay  int `mapstructure:"default_per_day"`
	// Retention is how long closed buckets are kept before purging.
	Retention time.Duration `mapstructure:"retention"`
}

// AnalyticsConfig controls the family analytics pipeline.
type AnalyticsConfig struct {
	PopularLimit      int           `mapstructure:"popular_limit"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	MemberConcurrency int           `mapstructure:"member_concurrency"`
	// CompareToPrevious enables the period-over-period trend computation.
	CompareToPrevious bool `mapstructure:"compare_to_previous"`
}

// WorkerConfig schedules bucket retention.
type WorkerConfig struct {
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
	PurgeTimeout  time.Duration `mapstructure:"purge_timeout"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// LogConfig mirrors logging.LogConfig.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// Config is the root of config.yaml.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

// Validate reports every problem found in a fully populated Config.
func (c *Config) Validate() error {
	var p problems

	p.check(c.Server.Port >= 1 && c.Server.Port <= 65535, "server.port %d is out of range [1, 65535]", c.Server.Port)
	p.oneOf("server.mode", c.Server.Mode, "debug", "release", "test")
	if c.Server.Mode == "release" {
		p.check(len(c.Auth.JWTSecret) >= 32, "auth.jwt_secret must be at least 32 bytes in release mode")
	}

	db := c.Database
	p.check(db.Host != "", "database.host is required")
	p.check(db.Port >= 1 && db.Port <= 65535, "database.port %d is out of range [1, 65535]", db.Port)
	p.check(db.User != "", "database.user is required")
	p.check(db.DBName != "", "database.db_name is required")
	p.check(db.MaxConns >= 1, "database.max_conns must be >= 1, got %d", db.MaxConns)

	rl := c.RateLimit
	if p.oneOf("rate_limit.backend", rl.Backend, "redis", "postgres") && rl.Backend == "redis" {
		p.check(c.Redis.Addr != "", "redis.addr is required when rate_limit.backend is redis")
	}
	p.check(c.Redis.DB >= 0, "redis.db must be >= 0, got %d", c.Redis.DB)
	p.check(rl.DefaultPerHour >= 1 && rl.DefaultPerDay >= 1, "rate_limit defaults must be >= 1")
	p.check(rl.DefaultPerDay >= rl.DefaultPerHour,
		"rate_limit.default_per_day (%d) must be >= default_per_hour (%d)", rl.DefaultPerDay, rl.DefaultPerHour)
	p.check(rl.Retention >= 24*time.Hour, "rate_limit.retention must cover at least one day, got %s", rl.Retention)

	if c.Kafka.Enabled {
		p.check(len(c.Kafka.Brokers) > 0, "kafka.brokers must contain at least one broker address")
	}
	if c.MinIO.Enabled {
		p.check(c.MinIO.Bucket != "", "minio.bucket is required when minio is enabled")
	}
	p.check(c.Analytics.PopularLimit >= 1, "analytics.popular_limit must be >= 1, got %d", c.Analytics.PopularLimit)

	p.oneOf("log.level", c.Log.Level, "debug", "info", "warn", "error")
	p.oneOf("log.format", c.Log.Format, "json", "console")

	return p.err()
}

type problems []error

func (p *problems) check(ok bool, format string, args ...interface{}) bool {
	if !ok {
		*p = append(*p, fmt.Errorf(format, args...))
	}
	return ok
}

func (p *problems) oneOf(key, val string, allowed ...string) bool {
	for _, a := range allowed {
		if val == a {
			return true
		}
	}
	return p.check(false, "%s %q is invalid; expected %s", key, val, strings.Join(allowed, "|"))
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(p...))
}

//Personal.AI order the ending
