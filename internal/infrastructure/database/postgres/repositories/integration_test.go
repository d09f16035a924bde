//go:build integration

package repositories

import (
	"context"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/yumzoom/yumzoom/internal/config"
	"github.com/yumzoom/yumzoom/internal/domain/apiapp"
	"github.com/yumzoom/yumzoom/internal/infrastructure/database/postgres"
	pkgerrors "github.com/yumzoom/yumzoom/pkg/errors"
)

type integrationEnv struct {
	conn *postgres.Connection
	pool *pgxpool.Pool
}

func migrationsURL(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	dir, err := filepath.Abs(filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "..", "migrations"))
	require.NoError(t, err)
	return "file://" + dir
}

func startPostgres(t *testing.T) *integrationEnv {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "yumzoom_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "test",
		Password: "test",
		DBName:   "yumzoom_test",
		SSLMode:  "disable",
		MaxConns: 20,
	}
	conn, err := postgres.NewConnection(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.RunMigrations(migrationsURL(t)))

	pool, err := postgres.NewPool(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return &integrationEnv{conn: conn, pool: pool}
}

func (e *integrationEnv) exec(t *testing.T, query string, args ...interface{}) {
	t.Helper()
	_, err := e.conn.DB().ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
}

func (e *integrationEnv) insertID(t *testing.T, query string, args ...interface{}) string {
	t.Helper()
	var id string
	require.NoError(t, e.conn.DB().QueryRowContext(context.Background(), query, args...).Scan(&id))
	return id
}

func TestPostgresIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	env := startPostgres(t)
	ctx := context.Background()

	appID := env.insertID(t, `INSERT INTO api_applications (user_id, name, key_hash, key_prefix, rate_limit_per_hour, rate_limit_per_day)
		VALUES ('user-1', 'Menu widget', $1, $2, 5, 8) RETURNING id`,
		apiapp.HashKey("yz_live_integration"), apiapp.KeyPrefix("yz_live_integration"))

	t.Run("ApplicationLookup", func(t *testing.T) {
		repo := NewPostgresApplicationRepo(env.conn, nil)

		app, err := repo.FindByKeyHash(ctx, apiapp.HashKey("yz_live_integration"))
		require.NoError(t, err)
		assert.Equal(t, appID, app.ID)
		assert.Equal(t, 5, app.RateLimitPerHour)
		assert.True(t, app.IsActive)

		_, err = repo.FindByKeyHash(ctx, apiapp.HashKey("unknown"))
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("ConcurrentAcquireEnforcesLimit", func(t *testing.T) {
		store := NewPostgresBucketStore(env.conn, nil)
		periods := apiapp.PeriodsAt(time.Now())

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 12; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				u, err := store.Acquire(ctx, appID, periods, 5, 8)
				if !assert.NoError(t, err) {
					return
				}
				if u.Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 5, allowed)

		u, err := store.Peek(ctx, appID, periods)
		require.NoError(t, err)
		assert.Equal(t, int64(5), u.HourCount)
		assert.Equal(t, int64(5), u.DayCount)
	})

	t.Run("PurgeBefore", func(t *testing.T) {
		store := NewPostgresBucketStore(env.conn, nil)
		old := apiapp.PeriodsAt(time.Now().AddDate(0, 0, -30))
		_, err := store.Acquire(ctx, appID, old, 5, 8)
		require.NoError(t, err)

		n, err := store.PurgeBefore(ctx, apiapp.PeriodDay.Start(time.Now().AddDate(0, 0, -7)))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		u, err := store.Peek(ctx, appID, old)
		require.NoError(t, err)
		assert.Zero(t, u.DayCount)
	})

	t.Run("UsageLedger", func(t *testing.T) {
		repo := NewPostgresUsageRepo(env.conn, nil, nil)
		day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

		require.NoError(t, repo.Increment(ctx, appID, day.Add(9*time.Hour), true))
		require.NoError(t, repo.Increment(ctx, appID, day.Add(10*time.Hour), true))
		require.NoError(t, repo.Increment(ctx, appID, day.Add(11*time.Hour), false))
		require.NoError(t, repo.Increment(ctx, appID, day.AddDate(0, 0, 1), true))

		rows, err := repo.ListDaily(ctx, appID, day, day.AddDate(0, 0, 2))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.True(t, rows[0].Day.Equal(day))
		assert.Equal(t, int64(2), rows[0].Allowed)
		assert.Equal(t, int64(1), rows[0].Rejected)
		assert.Equal(t, int64(1), rows[1].Allowed)
	})

	t.Run("RatingsAndMembers", func(t *testing.T) {
		restaurantID := env.insertID(t, `INSERT INTO restaurants (name, cuisine_type) VALUES ('Casa Roja', 'Mexican') RETURNING id`)
		itemID := env.insertID(t, `INSERT INTO menu_items (restaurant_id, name, price) VALUES ($1, 'Tacos', 12.50) RETURNING id`, restaurantID)
		memberID := env.insertID(t, `INSERT INTO family_members (user_id, name, relationship) VALUES ('user-1', 'Ana', 'child') RETURNING id`)
		env.insertID(t, `INSERT INTO family_members (user_id, name) VALUES ('user-2', 'Someone else') RETURNING id`)

		now := time.Now().UTC()
		for i := 0; i < 3; i++ {
			env.exec(t, `INSERT INTO ratings (user_id, menu_item_id, family_member_id, rating, created_at)
				VALUES ('user-1', $1, $2, $3, $4)`, itemID, memberID, 6+i, now.Add(-time.Duration(i)*time.Hour))
		}
		env.exec(t, `INSERT INTO ratings (user_id, menu_item_id, rating, created_at) VALUES ('user-1', $1, 9, $2)`, itemID, now)
		env.exec(t, `INSERT INTO ratings (user_id, menu_item_id, rating, created_at) VALUES ('user-1', $1, 4, $2)`,
			itemID, now.AddDate(0, -3, 0))

		members := NewPostgresFamilyRepo(env.pool, nil, nil)
		list, err := members.ListByUser(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, memberID, list[0].ID)
		n, err := members.CountByUser(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		ratings := NewPostgresRatingRepo(env.pool, nil, nil)
		from, to := now.AddDate(0, 0, -7), now.Add(time.Minute)
		all, err := ratings.ListByUser(ctx, "user-1", from, to)
		require.NoError(t, err)
		require.Len(t, all, 4)
		for _, r := range all {
			assert.Equal(t, "Casa Roja", r.RestaurantName)
			assert.Equal(t, "Mexican", r.CuisineType)
			assert.InDelta(t, 12.5, r.Price, 0.001)
		}

		byMember, err := ratings.ListByMember(ctx, "user-1", memberID, from, to)
		require.NoError(t, err)
		require.Len(t, byMember, 3)
		values := make([]string, 0, len(byMember))
		for _, r := range byMember {
			assert.True(t, r.HasMember())
			values = append(values, strconv.Itoa(r.Value))
		}
		assert.ElementsMatch(t, []string{"6", "7", "8"}, values)
	})
}

//Personal.AI order the ending
