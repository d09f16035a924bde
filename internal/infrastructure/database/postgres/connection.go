// Package postgres holds the PostgreSQL connections, migrations and the
// repositories built on them.  The database/sql connection (lib/pq) serves
// migrations and the rate-limit bucket store; the pgx pool serves the
// analytics read path.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/yumzoom/yumzoom/internal/config"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

// sqlOpen is swapped in tests.
var sqlOpen = sql.Open

// poolSaturation is the in-use share above which HealthCheck warns.
const poolSaturation = 0.8

// Connection is the lib/pq handle shared by the bucket store, the usage
// ledger and schema migrations.
type Connection struct {
	db     *sql.DB
	logger logging.Logger
	once   sync.Once
}

// NewConnection opens the database described by cfg and pings it within
// five seconds.
func NewConnection(cfg config.DatabaseConfig, log logging.Logger) (*Connection, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	db, err := sqlOpen("postgres", DSN(cfg))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to open database connection")
	}
	applyPoolLimits(db, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "database connection failed").
			WithDetail(cfg.Host + "/" + cfg.DBName)
	}

	log.Info("postgres connected",
		logging.String("host", cfg.Host),
		logging.Int("port", cfg.Port),
		logging.String("database", cfg.DBName))
	return &Connection{db: db, logger: log}, nil
}

// NewConnectionWithDB wraps an open handle, typically a sqlmock.
func NewConnectionWithDB(db *sql.DB, log logging.Logger) *Connection {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Connection{db: db, logger: log}
}

func applyPoolLimits(db *sql.DB, cfg config.DatabaseConfig) {
	db.SetMaxOpenConns(orDefault(cfg.MaxConns, 25))
	db.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, 10))
	db.SetConnMaxLifetime(orDefaultDuration(cfg.ConnMaxLifetime, 30*time.Minute))
	db.SetConnMaxIdleTime(orDefaultDuration(cfg.ConnMaxIdleTime, 5*time.Minute))
}

func (c *Connection) DB() *sql.DB { return c.db }

// HealthCheck pings the database.  A saturated pool is logged, not failed.
func (c *Connection) HealthCheck(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "database health check failed")
	}
	if st := c.db.Stats(); st.OpenConnections > 0 {
		if used := float64(st.InUse) / float64(st.OpenConnections); used > poolSaturation {
			c.logger.Warn("postgres pool saturated",
				logging.Int("in_use", st.InUse),
				logging.Int("open", st.OpenConnections),
				logging.Int64("wait_count", st.WaitCount))
		}
	}
	return nil
}

// Close closes the handle.  Later calls return nil.
func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		if err = c.db.Close(); err != nil {
			c.logger.Error("postgres close failed", logging.Err(err))
			return
		}
		c.logger.Info("postgres connection closed")
	})
	return err
}

// RunMigrations applies pending migrations from sourceURL, for example
// "file://migrations", over the open handle.
func (c *Connection) RunMigrations(sourceURL string) error {
	driver, err := migratepg.WithInstance(c.db, &migratepg.Config{})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migration driver")
	}
	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load migrations").WithDetail(sourceURL)
	}

	version, dirty, err := up(m)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError,
			fmt.Sprintf("migrations failed at version %d", version))
	}
	c.logger.Info("schema up to date",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty))
	return nil
}

// DSN builds the postgres:// URL for cfg.  SSL defaults to disabled.
func DSN(cfg config.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     cfg.DBName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orDefaultDuration(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}

//Personal.AI order the ending
