package config

import "time"

const (
	DefaultServerPort            = 8080
	DefaultServerMode            = "debug"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Second
	DefaultServerShutdownTimeout = 20 * time.Second
	DefaultServerMaxBodySize     = 1 << 20

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBUser     = "yumzoom"
	DefaultDBName     = "yumzoom"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "yumzoom:"

	DefaultKafkaBroker     = "localhost:9092"
	DefaultKafkaUsageTopic = "yumzoom.api.usage"
	DefaultKafkaGroup      = "yumzoom-worker"

	DefaultMinIOEndpoint      = "localhost:9000"
	DefaultMinIOBucket        = "yumzoom-exports"
	DefaultMinIOPresignExpiry = 15 * time.Minute

	DefaultAuthIssuer    = "yumzoom"
	DefaultAuthClockSkew = 30 * time.Second

	DefaultRateLimitBackend   = "redis"
	DefaultRateLimitPerHour   = 1000
	DefaultRateLimitPerDay    = 10000
	DefaultRateLimitRetention = 7 * 24 * time.Hour

	DefaultAnalyticsPopularLimit      = 10
	DefaultAnalyticsFetchTimeout      = 10 * time.Second
	DefaultAnalyticsMemberConcurrency = 4

	DefaultWorkerPurgeInterval = time.Hour
	DefaultWorkerPurgeTimeout  = 2 * time.Minute

	DefaultMetricsNamespace = "yumzoom"
	DefaultMetricsPath      = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the default.  Fields
// that were set explicitly are left unchanged.  Must run after unmarshalling
// and before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultServerMaxBodySize
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = DefaultDBUser
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "file://migrations"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	// DB 0 is both the default and a valid explicit value, so it is left alone.
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.UsageTopic == "" {
		cfg.Kafka.UsageTopic = DefaultKafkaUsageTopic
	}
	if cfg.Kafka.ConsumerGroup == "" {
		cfg.Kafka.ConsumerGroup = DefaultKafkaGroup
	}
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.PresignExpiry == 0 {
		cfg.MinIO.PresignExpiry = DefaultMinIOPresignExpiry
	}

	// ── Auth ──────────────────────────────────────────────────────────────────
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = DefaultAuthIssuer
	}
	if cfg.Auth.ClockSkew == 0 {
		cfg.Auth.ClockSkew = DefaultAuthClockSkew
	}

	// ── Rate limit ────────────────────────────────────────────────────────────
	if cfg.RateLimit.Backend == "" {
		cfg.RateLimit.Backend = DefaultRateLimitBackend
	}
	if cfg.RateLimit.DefaultPerHour == 0 {
		cfg.RateLimit.DefaultPerHour = DefaultRateLimitPerHour
	}
	if cfg.RateLimit.DefaultPerDay == 0 {
		cfg.RateLimit.DefaultPerDay = DefaultRateLimitPerDay
	}
	if cfg.RateLimit.Retention == 0 {
		cfg.RateLimit.Retention = DefaultRateLimitRetention
	}

	// ── Analytics ─────────────────────────────────────────────────────────────
	if cfg.Analytics.PopularLimit == 0 {
		cfg.Analytics.PopularLimit = DefaultAnalyticsPopularLimit
	}
	if cfg.Analytics.FetchTimeout == 0 {
		cfg.Analytics.FetchTimeout = DefaultAnalyticsFetchTimeout
	}
	if cfg.Analytics.MemberConcurrency == 0 {
		cfg.Analytics.MemberConcurrency = DefaultAnalyticsMemberConcurrency
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.PurgeInterval == 0 {
		cfg.Worker.PurgeInterval = DefaultWorkerPurgeInterval
	}
	if cfg.Worker.PurgeTimeout == 0 {
		cfg.Worker.PurgeTimeout = DefaultWorkerPurgeTimeout
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

//Personal.AI order the ending
