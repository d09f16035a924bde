// Package repositories implements the domain repositories on PostgreSQL.
// Read-heavy analytics repositories run on the pgx pool and build their SQL
// with squirrel; the rate-limit tables use database/sql so that the bucket
// store can hold row locks inside one transaction.
package repositories

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/prometheus"
)

// psql builds PostgreSQL-flavoured statements.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// queryExecutor abstracts sql.DB and sql.Tx.
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func metricsOrNoop(m *prometheus.AppMetrics) *prometheus.AppMetrics {
	if m == nil {
		return prometheus.NewNoopAppMetrics()
	}
	return m
}

// observe records one query against the postgres db label.
func observe(m *prometheus.AppMetrics, operation string, start time.Time, err error) {
	prometheus.RecordDBQuery(m, "postgres", operation, time.Since(start), err)
}

//Personal.AI order the ending
