package repositories

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/yumzoom/yumzoom/internal/domain/family"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/prometheus"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

type memberRow struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	Name         string    `db:"name"`
	Relationship string    `db:"relationship"`
	CreatedAt    time.Time `db:"created_at"`
}

type postgresFamilyRepo struct {
	db      pgxscan.Querier
	log     logging.Logger
	metrics *prometheus.AppMetrics
}

// NewPostgresFamilyRepo creates a family.Repository on db.
func NewPostgresFamilyRepo(db pgxscan.Querier, log logging.Logger, metrics *prometheus.AppMetrics) family.Repository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresFamilyRepo{db: db, log: log, metrics: metricsOrNoop(metrics)}
}

func (r *postgresFamilyRepo) ListByUser(ctx context.Context, userID string) ([]family.Member, error) {
	query, args, err := psql.
		Select("id::text AS id", "user_id", "name", "relationship", "created_at").
		From("family_members").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build member query")
	}

	start := time.Now()
	var rows []memberRow
	err = pgxscan.Select(ctx, r.db, &rows, query, args...)
	observe(r.metrics, "list_family_members", start, err)
	if err != nil {
		r.log.Error("family member query failed", logging.String("user_id", userID), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list family members")
	}

	out := make([]family.Member, len(rows))
	for i, row := range rows {
		out[i] = family.Member{
			ID:           row.ID,
			UserID:       row.UserID,
			Name:         row.Name,
			Relationship: family.ParseRelationship(row.Relationship),
			CreatedAt:    row.CreatedAt,
		}
	}
	return out, nil
}

func (r *postgresFamilyRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("family_members").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to build member count query")
	}

	start := time.Now()
	var n int
	err = pgxscan.Get(ctx, r.db, &n, query, args...)
	observe(r.metrics, "count_family_members", start, err)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count family members")
	}
	return n, nil
}

//Personal.AI order the ending
