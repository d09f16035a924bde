package bootstrap

import (
	"context"
	"fmt"

	"github.com/yumzoom/yumzoom/internal/application/analytics"
	"github.com/yumzoom/yumzoom/internal/application/ratelimit"
	"github.com/yumzoom/yumzoom/internal/domain/apiapp"
	"github.com/yumzoom/yumzoom/internal/infrastructure/database/postgres"
	"github.com/yumzoom/yumzoom/internal/infrastructure/database/postgres/repositories"
	"github.com/yumzoom/yumzoom/internal/infrastructure/database/redis"
	"github.com/yumzoom/yumzoom/internal/infrastructure/storage/minio"
	"github.com/yumzoom/yumzoom/internal/interfaces/http/handlers"
)

// AnalyticsService builds the analytics service over the pgx pool.
func (i *Infra) AnalyticsService() analytics.Service {
	cfg := i.Config.Analytics
	return analytics.NewService(
		repositories.NewPostgresRatingRepo(i.Pool, i.Logger, i.Metrics),
		repositories.NewPostgresFamilyRepo(i.Pool, i.Logger, i.Metrics),
		i.Logger,
		analytics.WithPopularLimit(cfg.PopularLimit),
		analytics.WithFetchTimeout(cfg.FetchTimeout),
		analytics.WithMemberConcurrency(cfg.MemberConcurrency),
		analytics.WithTrendComparison(cfg.CompareToPrevious),
		analytics.WithMetrics(i.Metrics),
	)
}

// OpenExportStore connects to MinIO when it is enabled.  It returns nil
// without error otherwise, and exports are then served inline.
func (i *Infra) OpenExportStore(ctx context.Context) (analytics.ExportStore, error) {
	if !i.Config.MinIO.Enabled {
		return nil, nil
	}
	mc, err := minio.NewClient(ctx, i.Config.MinIO, i.Logger)
	if err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}
	i.OnClose(func() { _ = mc.Close() })
	i.AddChecker(handlers.Optional(mc))
	return mc, nil
}

// Exporter builds the dashboard exporter.  store may be nil.
func (i *Infra) Exporter(svc analytics.Service, store analytics.ExportStore) *analytics.Exporter {
	return analytics.NewExporter(svc, store, i.Config.MinIO.PresignExpiry, i.Logger, i.Metrics)
}

// Applications resolves API keys from Postgres, through the Redis cache
// when Redis is available.
func (i *Infra) Applications() apiapp.Repository {
	repo := repositories.NewPostgresApplicationRepo(i.DB, i.Logger)
	if i.Redis == nil {
		return repo
	}
	return redis.NewApplicationCache(repo, i.Redis, i.Logger)
}

// BucketStore returns the store selected by rate_limit.backend.  The purger
// is nil for Redis, whose buckets expire on their own.
func (i *Infra) BucketStore() (apiapp.BucketStore, apiapp.BucketPurger) {
	if i.Redis != nil {
		return redis.NewBucketStore(i.Redis, i.Logger), nil
	}
	store := repositories.NewPostgresBucketStore(i.DB, i.Logger)
	return store, store
}

// Limiter builds the rate limiter.  publisher may be nil.
func (i *Infra) Limiter(publisher ratelimit.EventPublisher) ratelimit.Service {
	cfg := i.Config.RateLimit
	store, purger := i.BucketStore()
	opts := []ratelimit.Option{
		ratelimit.WithDefaults(cfg.DefaultPerHour, cfg.DefaultPerDay),
		ratelimit.WithRetention(cfg.Retention),
		ratelimit.WithMetrics(i.Metrics, cfg.Backend),
	}
	if purger != nil {
		opts = append(opts, ratelimit.WithPurger(purger))
	}
	if publisher != nil {
		opts = append(opts, ratelimit.WithPublisher(publisher))
	}
	return ratelimit.NewService(i.Applications(), store, i.Logger, opts...)
}

// UsageLedger builds the daily usage ledger.
func (i *Infra) UsageLedger() *ratelimit.UsageLedger {
	return ratelimit.NewUsageLedger(repositories.NewPostgresUsageRepo(i.DB, i.Logger, i.Metrics), i.Logger, nil)
}

// Migrator builds the schema migrator for the CLI.
func (i *Infra) Migrator() *postgres.Migrator {
	return postgres.NewMigrator(postgres.DSN(i.Config.Database), i.Config.Database.MigrationPath)
}

// Migrate applies pending migrations over the open connection.
func (i *Infra) Migrate() error {
	return i.DB.RunMigrations(i.Config.Database.MigrationPath)
}

//Personal.AI order the ending
