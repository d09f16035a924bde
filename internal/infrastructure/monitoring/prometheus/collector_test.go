package prometheus

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumzoom/yumzoom/internal/testutil"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "yz_test"}, nil)
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, c MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, nil)
	assert.Error(t, err)
}

func TestNewMetricsCollector_Runtime(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "yz_test", Runtime: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, scrapeMetrics(t, c), "go_goroutines")
}

func TestCollector_Families(t *testing.T) {
	c := newTestCollector(t)

	c.Counter("admissions_total", "Admissions", "result").WithLabelValues("allowed").Add(3)
	inflight := c.Gauge("inflight", "In flight").WithLabelValues()
	inflight.Set(4)
	inflight.Dec()
	c.Histogram("acquire_seconds", "Acquire latency", nil).WithLabelValues().Observe(0.02)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `yz_test_admissions_total{result="allowed"} 3`)
	assert.Contains(t, out, "yz_test_inflight 3")
	assert.Contains(t, out, `yz_test_acquire_seconds_bucket{le="0.025"} 1`)
}

func TestCollector_SameNameSharesFamily(t *testing.T) {
	c := newTestCollector(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Counter("purges_total", "Purges", "backend").WithLabelValues("postgres").Inc()
		}()
	}
	wg.Wait()

	assert.Contains(t, scrapeMetrics(t, c), `yz_test_purges_total{backend="postgres"} 20`)
}

func TestCollector_TypeClashFallsBackToNoop(t *testing.T) {
	log := testutil.NewMockLogger()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "yz_test"}, log)
	require.NoError(t, err)

	c.Counter("clash", "help").WithLabelValues().Inc()
	g := c.Gauge("clash", "help")
	assert.NotPanics(t, func() { g.WithLabelValues().Set(10) })

	assert.Contains(t, scrapeMetrics(t, c), "# TYPE yz_test_clash counter")
	assert.True(t, log.HasMessage("error", "metric family not registered"))
}

func TestNoopCollector(t *testing.T) {
	c := NewNoopCollector()
	assert.NotPanics(t, func() {
		c.Counter("a", "a").WithLabelValues("x").Inc()
		c.Gauge("b", "b").WithLabelValues().Set(1)
		c.Histogram("c", "c", nil).WithLabelValues().Observe(1)
	})

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

//Personal.AI order the ending
