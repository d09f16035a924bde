package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/yumzoom/yumzoom/internal/domain/apiapp"
	"github.com/yumzoom/yumzoom/internal/infrastructure/database/postgres"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

// Both buckets are always touched day first so that concurrent
// transactions lock rows in the same order.
const (
	ensureBucketsSQL = `
		INSERT INTO api_rate_limits (api_application_id, period_type, period_start, request_count)
		VALUES ($1, 'day', $3, 0), ($1, 'hour', $2, 0)
		ON CONFLICT (api_application_id, period_type, period_start) DO NOTHING`

	lockBucketsSQL = `
		SELECT period_type, request_count FROM api_rate_limits
		WHERE api_application_id = $1
		  AND ((period_type = 'hour' AND period_start = $2) OR (period_type = 'day' AND period_start = $3))
		ORDER BY period_type
		FOR UPDATE`

	incrementBucketsSQL = `
		UPDATE api_rate_limits SET request_count = request_count + 1, updated_at = NOW()
		WHERE api_application_id = $1
		  AND ((period_type = 'hour' AND period_start = $2) OR (period_type = 'day' AND period_start = $3))`

	peekBucketsSQL = `
		SELECT period_type, request_count FROM api_rate_limits
		WHERE api_application_id = $1
		  AND ((period_type = 'hour' AND period_start = $2) OR (period_type = 'day' AND period_start = $3))`

	purgeBucketsSQL = `DELETE FROM api_rate_limits WHERE period_start < $1`
)

// PostgresBucketStore keeps rate-limit buckets in api_rate_limits.  Acquire
// runs in one transaction holding row locks on both buckets, so the check
// and the increment cannot interleave with another request.
type PostgresBucketStore struct {
	db  *sql.DB
	log logging.Logger
}

// NewPostgresBucketStore creates the store.
func NewPostgresBucketStore(conn *postgres.Connection, log logging.Logger) *PostgresBucketStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &PostgresBucketStore{db: conn.DB(), log: log}
}

var (
	_ apiapp.BucketStore  = (*PostgresBucketStore)(nil)
	_ apiapp.BucketPurger = (*PostgresBucketStore)(nil)
)

func (s *PostgresBucketStore) Acquire(ctx context.Context, appID string, p apiapp.Periods, hourLimit, dayLimit int) (usage apiapp.Usage, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return usage, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, ensureBucketsSQL, appID, p.Hour, p.Day); err != nil {
		return usage, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create rate limit buckets")
	}

	usage, err = readCounts(ctx, tx, lockBucketsSQL, appID, p)
	if err != nil {
		return usage, err
	}

	if usage.HourCount < int64(hourLimit) && usage.DayCount < int64(dayLimit) {
		if _, err = tx.ExecContext(ctx, incrementBucketsSQL, appID, p.Hour, p.Day); err != nil {
			return apiapp.Usage{}, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to increment rate limit buckets")
		}
		usage.Allowed = true
		usage.HourCount++
		usage.DayCount++
	}

	if err = tx.Commit(); err != nil {
		return apiapp.Usage{}, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit rate limit buckets")
	}
	return usage, nil
}

func (s *PostgresBucketStore) Peek(ctx context.Context, appID string, p apiapp.Periods) (apiapp.Usage, error) {
	return readCounts(ctx, s.db, peekBucketsSQL, appID, p)
}

func (s *PostgresBucketStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, purgeBucketsSQL, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to purge rate limit buckets")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count purged buckets")
	}
	s.log.Debug("purged rate limit buckets", logging.Int64("deleted", n), logging.Time("cutoff", cutoff))
	return n, nil
}

func readCounts(ctx context.Context, q queryExecutor, query, appID string, p apiapp.Periods) (apiapp.Usage, error) {
	var u apiapp.Usage
	rows, err := q.QueryContext(ctx, query, appID, p.Hour, p.Day)
	if err != nil {
		return u, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read rate limit buckets")
	}
	defer rows.Close()

	for rows.Next() {
		var period string
		var count int64
		if err := rows.Scan(&period, &count); err != nil {
			return u, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan rate limit bucket")
		}
		switch apiapp.PeriodType(period) {
		case apiapp.PeriodHour:
			u.HourCount = count
		case apiapp.PeriodDay:
			u.DayCount = count
		}
	}
	if err := rows.Err(); err != nil {
		return u, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read rate limit buckets")
	}
	return u, nil
}

//Personal.AI order the ending
