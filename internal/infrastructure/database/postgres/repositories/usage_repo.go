package repositories

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/yumzoom/yumzoom/internal/domain/apiapp"
	"github.com/yumzoom/yumzoom/internal/infrastructure/database/postgres"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/prometheus"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

type postgresUsageRepo struct {
	executor queryExecutor
	log      logging.Logger
	metrics  *prometheus.AppMetrics
}

// NewPostgresUsageRepo creates an apiapp.UsageRepository over api_usage_daily.
func NewPostgresUsageRepo(conn *postgres.Connection, log logging.Logger, metrics *prometheus.AppMetrics) apiapp.UsageRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresUsageRepo{executor: conn.DB(), log: log, metrics: metricsOrNoop(metrics)}
}

func (r *postgresUsageRepo) Increment(ctx context.Context, applicationID string, at time.Time, allowed bool) (err error) {
	start := time.Now()
	defer func() { observe(r.metrics, "usage_increment", start, err) }()

	allowedInc, rejectedInc := 0, 1
	if allowed {
		allowedInc, rejectedInc = 1, 0
	}
	day := apiapp.PeriodDay.Start(at.UTC())

	query, args, err := psql.Insert("api_usage_daily").
		Columns("api_application_id", "day", "allowed_count", "rejected_count", "last_seen_at").
		Values(applicationID, day, allowedInc, rejectedInc, at.UTC()).
		Suffix(`ON CONFLICT (api_application_id, day) DO UPDATE SET
			allowed_count = api_usage_daily.allowed_count + EXCLUDED.allowed_count,
			rejected_count = api_usage_daily.rejected_count + EXCLUDED.rejected_count,
			last_seen_at = GREATEST(api_usage_daily.last_seen_at, EXCLUDED.last_seen_at)`).
		ToSql()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to build usage upsert")
	}
	if _, err = r.executor.ExecContext(ctx, query, args...); err != nil {
		r.log.Error("usage increment failed", logging.String("application_id", applicationID), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to record usage")
	}
	return nil
}

func (r *postgresUsageRepo) ListDaily(ctx context.Context, applicationID string, from, to time.Time) (out []apiapp.DailyUsage, err error) {
	start := time.Now()
	defer func() { observe(r.metrics, "usage_list", start, err) }()

	query, args, err := psql.
		Select("api_application_id::text", "day", "allowed_count", "rejected_count", "last_seen_at").
		From("api_usage_daily").
		Where(sq.Eq{"api_application_id": applicationID}).
		Where(sq.GtOrEq{"day": apiapp.PeriodDay.Start(from.UTC())}).
		Where(sq.Lt{"day": to.UTC()}).
		OrderBy("day ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to build usage query")
	}

	rows, err := r.executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list usage")
	}
	defer rows.Close()

	out = []apiapp.DailyUsage{}
	for rows.Next() {
		var u apiapp.DailyUsage
		if err = rows.Scan(&u.ApplicationID, &u.Day, &u.Allowed, &u.Rejected, &u.LastSeenAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan usage")
		}
		out = append(out, u)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list usage")
	}
	return out, nil
}

//Personal.AI order the ending
