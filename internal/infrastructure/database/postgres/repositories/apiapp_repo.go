package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/yumzoom/yumzoom/internal/domain/apiapp"
	"github.com/yumzoom/yumzoom/internal/infrastructure/database/postgres"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

const applicationColumns = `id::text, user_id, name, key_hash, key_prefix,
	rate_limit_per_hour, rate_limit_per_day, is_active, created_at, updated_at`

type postgresApplicationRepo struct {
	executor queryExecutor
	log      logging.Logger
}

// NewPostgresApplicationRepo creates an apiapp.Repository.
func NewPostgresApplicationRepo(conn *postgres.Connection, log logging.Logger) apiapp.Repository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresApplicationRepo{executor: conn.DB(), log: log}
}

func (r *postgresApplicationRepo) FindByKeyHash(ctx context.Context, keyHash string) (*apiapp.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM api_applications WHERE key_hash = $1`
	return r.scanOne(r.executor.QueryRowContext(ctx, query, keyHash))
}

func (r *postgresApplicationRepo) GetByID(ctx context.Context, id string) (*apiapp.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM api_applications WHERE id = $1`
	return r.scanOne(r.executor.QueryRowContext(ctx, query, id))
}

func (r *postgresApplicationRepo) scanOne(row scanner) (*apiapp.Application, error) {
	var a apiapp.Application
	err := row.Scan(
		&a.ID, &a.UserID, &a.Name, &a.KeyHash, &a.KeyPrefix,
		&a.RateLimitPerHour, &a.RateLimitPerDay, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeApplicationNotFound, "api application not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load api application")
	}
	return &a, nil
}

//Personal.AI order the ending
