package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumzoom/yumzoom/internal/application/ratelimit"
	"github.com/yumzoom/yumzoom/internal/config"
	"github.com/yumzoom/yumzoom/internal/infrastructure/database/postgres"
	"github.com/yumzoom/yumzoom/internal/infrastructure/database/postgres/repositories"
	"github.com/yumzoom/yumzoom/internal/infrastructure/database/redis"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/prometheus"
)

func newTestInfra(t *testing.T, withRedis bool) (*Infra, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.RateLimit.Backend = "postgres"

	infra := &Infra{
		Config:    cfg,
		Logger:    logging.NewNopLogger(),
		Collector: prometheus.NewNoopCollector(),
		Metrics:   prometheus.NewNoopAppMetrics(),
		DB:        postgres.NewConnectionWithDB(db, logging.NewNopLogger()),
	}
	infra.OnClose(func() { _ = db.Close() })
	infra.AddChecker(postgresChecker{conn: infra.DB})

	if withRedis {
		mr := miniredis.RunT(t)
		infra.Config.RateLimit.Backend = "redis"
		infra.Redis = redis.NewClientFromUniversal(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), "test", infra.Logger)
		infra.AddChecker(infra.Redis)
	}
	t.Cleanup(infra.Close)
	return infra, mock
}

func TestInfra_BucketStoreFollowsBackend(t *testing.T) {
	pg, _ := newTestInfra(t, false)
	store, purger := pg.BucketStore()
	assert.IsType(t, &repositories.PostgresBucketStore{}, store)
	assert.NotNil(t, purger)

	rd, _ := newTestInfra(t, true)
	store, purger = rd.BucketStore()
	assert.IsType(t, &redis.BucketStore{}, store)
	assert.Nil(t, purger)
}

func TestInfra_ApplicationsCachedOnlyWithRedis(t *testing.T) {
	pg, _ := newTestInfra(t, false)
	_, cached := pg.Applications().(*redis.ApplicationCache)
	assert.False(t, cached)

	rd, _ := newTestInfra(t, true)
	_, cached = rd.Applications().(*redis.ApplicationCache)
	assert.True(t, cached)
}

func TestInfra_CheckersReportComponents(t *testing.T) {
	infra, mock := newTestInfra(t, true)
	mock.ExpectPing()

	names := make([]string, 0)
	for _, c := range infra.Checkers() {
		names = append(names, c.Name())
		assert.NoError(t, c.Check(context.Background()), c.Name())
	}
	assert.Equal(t, []string{"postgres", "redis"}, names)
}

func TestInfra_ExportStoreDisabled(t *testing.T) {
	infra, _ := newTestInfra(t, false)
	store, err := infra.OpenExportStore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, store)
	assert.NotNil(t, infra.Exporter(infra.AnalyticsService(), store))
}

func TestInfra_UsageSinkWithoutKafkaWritesLedger(t *testing.T) {
	infra, mock := newTestInfra(t, false)
	infra.Config.Kafka.Enabled = false

	sink, err := infra.UsageSink()
	require.NoError(t, err)
	assert.IsType(t, &ratelimit.UsageLedger{}, sink)

	at := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO api_usage_daily`).
		WithArgs("app-1", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), 1, 0, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	infra.Limiter(sink).RecordUsage(context.Background(), &ratelimit.UsageEvent{
		ApplicationID: "app-1", Allowed: true, StatusCode: http.StatusOK, OccurredAt: at,
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInfra_UsageSinkWithKafkaPublishes(t *testing.T) {
	infra, _ := newTestInfra(t, false)
	infra.Config.Kafka.Enabled = true
	infra.Config.Kafka.Brokers = []string{"kafka.test:9092"}

	sink, err := infra.UsageSink()
	require.NoError(t, err)
	assert.IsType(t, &UsagePublisher{}, sink)
}

func TestInfra_CloseRunsInReverseOrder(t *testing.T) {
	infra := &Infra{}
	var order []int
	infra.OnClose(func() { order = append(order, 1) })
	infra.OnClose(func() { order = append(order, 2) })

	infra.Close()
	infra.Close()
	assert.Equal(t, []int{2, 1}, order)
}

func TestNewMetrics_Disabled(t *testing.T) {
	collector, metrics, err := NewMetrics(config.MetricsConfig{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, metrics)

	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewMetrics_Enabled(t *testing.T) {
	collector, metrics, err := NewMetrics(config.MetricsConfig{Enabled: true, Namespace: "bootstrap"}, nil)
	require.NoError(t, err)
	prometheus.RecordError(metrics, "test", "X")
	assert.NotNil(t, collector.Handler())
}

//Personal.AI order the ending
