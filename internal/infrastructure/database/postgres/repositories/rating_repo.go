package repositories

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/yumzoom/yumzoom/internal/domain/rating"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/prometheus"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

// ratingRow is one joined rating as selected by recordColumns.
type ratingRow struct {
	ID             string    `db:"id"`
	Value          int       `db:"rating"`
	CreatedAt      time.Time `db:"created_at"`
	MenuItemID     string    `db:"menu_item_id"`
	FamilyMemberID string    `db:"family_member_id"`
	UserID         string    `db:"user_id"`
	MenuItemName   string    `db:"menu_item_name"`
	Price          float64   `db:"price"`
	RestaurantID   string    `db:"restaurant_id"`
	RestaurantName string    `db:"restaurant_name"`
	CuisineType    string    `db:"cuisine_type"`
}

func (r ratingRow) toRecord() rating.Record {
	return rating.Record{
		Rating: rating.Rating{
			ID:             r.ID,
			Value:          r.Value,
			CreatedAt:      r.CreatedAt,
			MenuItemID:     r.MenuItemID,
			FamilyMemberID: r.FamilyMemberID,
			UserID:         r.UserID,
		},
		MenuItemName:   r.MenuItemName,
		Price:          r.Price,
		RestaurantID:   r.RestaurantID,
		RestaurantName: r.RestaurantName,
		CuisineType:    r.CuisineType,
	}
}

var recordColumns = []string{
	"r.id::text AS id",
	"r.rating",
	"r.created_at",
	"r.menu_item_id::text AS menu_item_id",
	"COALESCE(r.family_member_id::text, '') AS family_member_id",
	"r.user_id",
	"mi.name AS menu_item_name",
	"mi.price::float8 AS price",
	"rs.id::text AS restaurant_id",
	"rs.name AS restaurant_name",
	"COALESCE(rs.cuisine_type, '') AS cuisine_type",
}

type postgresRatingRepo struct {
	db      pgxscan.Querier
	log     logging.Logger
	metrics *prometheus.AppMetrics
}

// NewPostgresRatingRepo creates a rating.Repository on db, normally a
// *pgxpool.Pool.
func NewPostgresRatingRepo(db pgxscan.Querier, log logging.Logger, metrics *prometheus.AppMetrics) rating.Repository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresRatingRepo{db: db, log: log, metrics: metricsOrNoop(metrics)}
}

func (r *postgresRatingRepo) baseQuery(userID string, from, to time.Time) sq.SelectBuilder {
	return psql.Select(recordColumns...).
		From("ratings r").
		Join("menu_items mi ON mi.id = r.menu_item_id").
		Join("restaurants rs ON rs.id = mi.restaurant_id").
		Where(sq.Eq{"r.user_id": userID}).
		Where(sq.GtOrEq{"r.created_at": from}).
		Where(sq.Lt{"r.created_at": to}).
		OrderBy("r.created_at DESC", "r.id")
}

func (r *postgresRatingRepo) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]rating.Record, error) {
	return r.list(ctx, "list_ratings_by_user", r.baseQuery(userID, from, to))
}

func (r *postgresRatingRepo) ListByMember(ctx context.Context, userID, memberID string, from, to time.Time) ([]rating.Record, error) {
	q := r.baseQuery(userID, from, to).Where(sq.Eq{"r.family_member_id": memberID})
	return r.list(ctx, "list_ratings_by_member", q)
}

func (r *postgresRatingRepo) list(ctx context.Context, op string, q sq.SelectBuilder) ([]rating.Record, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build rating query")
	}

	start := time.Now()
	var rows []ratingRow
	err = pgxscan.Select(ctx, r.db, &rows, query, args...)
	observe(r.metrics, op, start, err)
	if err != nil {
		r.log.Error("rating query failed", logging.String("operation", op), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list ratings")
	}

	out := make([]rating.Record, len(rows))
	for i, row := range rows {
		out[i] = row.toRecord()
	}
	return out, nil
}

//Personal.AI order the ending
