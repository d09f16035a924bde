// Package bootstrap assembles the backend from configuration.  The API
// server, the worker and the CLI all open their infrastructure here so that
// the three binaries agree on how each component is built.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yumzoom/yumzoom/internal/config"
	"github.com/yumzoom/yumzoom/internal/infrastructure/database/postgres"
	"github.com/yumzoom/yumzoom/internal/infrastructure/database/redis"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/prometheus"
	"github.com/yumzoom/yumzoom/internal/interfaces/http/handlers"
)

// NewLogger builds the process logger from cfg.
func NewLogger(cfg config.LogConfig) (logging.Logger, error) {
	return logging.NewLogger(logging.LogConfig{
		Level:       cfg.Level,
		Format:      cfg.Format,
		OutputPaths: cfg.OutputPaths,
	})
}

// NewMetrics returns the collector and metric families for cfg.  With
// metrics disabled both are no-ops.
func NewMetrics(cfg config.MetricsConfig, logger logging.Logger) (prometheus.MetricsCollector, *prometheus.AppMetrics, error) {
	if !cfg.Enabled {
		return prometheus.NewNoopCollector(), prometheus.NewNoopAppMetrics(), nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace: cfg.Namespace,
		Runtime:   true,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics: %w", err)
	}
	return collector, prometheus.NewAppMetrics(collector), nil
}

// Infra holds the shared clients of one process.
type Infra struct {
	Config    *config.Config
	Logger    logging.Logger
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	// DB serves the rate limiter tables, Pool the analytics read path.
	DB   *postgres.Connection
	Pool *pgxpool.Pool
	// Redis is nil unless rate_limit.backend is redis.
	Redis *redis.Client

	checkers []handlers.HealthChecker
	closers  []func()
}

// Open connects to every store cfg requires.  On failure everything opened
// so far is closed again.
func Open(ctx context.Context, cfg *config.Config, logger logging.Logger, collector prometheus.MetricsCollector, metrics *prometheus.AppMetrics) (*Infra, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if collector == nil {
		collector = prometheus.NewNoopCollector()
	}
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	infra := &Infra{Config: cfg, Logger: logger, Collector: collector, Metrics: metrics}

	db, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	infra.DB = db
	infra.addCloser(func() { _ = db.Close() })
	infra.AddChecker(postgresChecker{conn: db})

	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	infra.Pool = pool
	infra.addCloser(pool.Close)

	if cfg.RateLimit.Backend == "redis" {
		rc, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		infra.Redis = rc
		infra.addCloser(func() { _ = rc.Close() })
		infra.AddChecker(rc)
	}

	logger.Info("infrastructure initialized",
		logging.String("rate_limit_backend", cfg.RateLimit.Backend),
		logging.Bool("kafka", cfg.Kafka.Enabled),
		logging.Bool("minio", cfg.MinIO.Enabled))
	return infra, nil
}

// AddChecker registers a component for the readiness checks.
func (i *Infra) AddChecker(c handlers.HealthChecker) {
	i.checkers = append(i.checkers, c)
}

// Checkers returns the registered health checkers.
func (i *Infra) Checkers() []handlers.HealthChecker {
	return append([]handlers.HealthChecker(nil), i.checkers...)
}

func (i *Infra) addCloser(fn func()) {
	i.closers = append(i.closers, fn)
}

// OnClose registers fn to run on Close, before the stores opened by Open.
func (i *Infra) OnClose(fn func()) {
	i.addCloser(fn)
}

// Close releases everything in reverse order of opening.  Safe to call more
// than once.
func (i *Infra) Close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		i.closers[n]()
	}
	i.closers = nil
}

type postgresChecker struct {
	conn *postgres.Connection
}

func (postgresChecker) Name() string { return "postgres" }

func (c postgresChecker) Check(ctx context.Context) error { return c.conn.HealthCheck(ctx) }

//Personal.AI order the ending
