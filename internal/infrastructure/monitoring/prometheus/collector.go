// Package prometheus keeps client_golang behind a small registration API so
// services depend on CounterVec and friends rather than the client library,
// and tests can swap in a private registry or the no-op collector.
package prometheus

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
)

// MetricsCollector creates metric families and serves them.  Asking twice
// for the same name returns the family registered first.
type MetricsCollector interface {
	Counter(name, help string, labels ...string) CounterVec
	Gauge(name, help string, labels ...string) GaugeVec
	Histogram(name, help string, buckets []float64, labels ...string) HistogramVec
	Handler() http.Handler
}

type CounterVec interface {
	WithLabelValues(lvs ...string) Counter
}

type Counter interface {
	Inc()
	Add(delta float64)
}

type GaugeVec interface {
	WithLabelValues(lvs ...string) Gauge
}

type Gauge interface {
	Set(value float64)
	Inc()
	Dec()
}

type HistogramVec interface {
	WithLabelValues(lvs ...string) Histogram
}

type Histogram interface {
	Observe(value float64)
}

// CollectorConfig configures NewMetricsCollector.
type CollectorConfig struct {
	Namespace string
	// Runtime adds the Go runtime and process collectors.
	Runtime bool
}

type registry struct {
	reg       *prometheus.Registry
	namespace string
	logger    logging.Logger
}

// NewMetricsCollector returns a collector over its own registry.
func NewMetricsCollector(cfg CollectorConfig, logger logging.Logger) (MetricsCollector, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("prometheus: namespace is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	reg := prometheus.NewRegistry()
	if cfg.Runtime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: cfg.Namespace}),
		)
	}
	return &registry{reg: reg, namespace: cfg.Namespace, logger: logger.Named("metrics")}, nil
}

func (r *registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// register adds v, or finds the family already registered under the same
// descriptor.  A family of another type under that name is reported and
// the caller falls back to a no-op.
func register[V prometheus.Collector](r *registry, name string, v V) (V, bool) {
	err := r.reg.Register(v)
	if err == nil {
		return v, true
	}
	var dup prometheus.AlreadyRegisteredError
	if errors.As(err, &dup) {
		if existing, ok := dup.ExistingCollector.(V); ok {
			return existing, true
		}
		err = fmt.Errorf("%s is registered with another metric type", name)
	}
	r.logger.Error("metric family not registered", logging.String("name", name), logging.Err(err))
	var zero V
	return zero, false
}

func (r *registry) Counter(name, help string, labels ...string) CounterVec {
	vec, ok := register(r, name, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Name: name, Help: help,
	}, labels))
	if !ok {
		return noopCounters{}
	}
	return counterVec{vec}
}

func (r *registry) Gauge(name, help string, labels ...string) GaugeVec {
	vec, ok := register(r, name, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: r.namespace, Name: name, Help: help,
	}, labels))
	if !ok {
		return noopGauges{}
	}
	return gaugeVec{vec}
}

// Histogram uses prometheus.DefBuckets when buckets is nil.
func (r *registry) Histogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	vec, ok := register(r, name, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Name: name, Help: help, Buckets: buckets,
	}, labels))
	if !ok {
		return noopHistograms{}
	}
	return histogramVec{vec}
}

type counterVec struct{ *prometheus.CounterVec }

func (v counterVec) WithLabelValues(lvs ...string) Counter { return v.CounterVec.WithLabelValues(lvs...) }

type gaugeVec struct{ *prometheus.GaugeVec }

func (v gaugeVec) WithLabelValues(lvs ...string) Gauge { return v.GaugeVec.WithLabelValues(lvs...) }

type histogramVec struct{ *prometheus.HistogramVec }

func (v histogramVec) WithLabelValues(lvs ...string) Histogram {
	return v.HistogramVec.WithLabelValues(lvs...)
}

// noopVec stands in for every metric when metrics are off.
type noopVec struct{}

func (noopVec) Inc()            {}
func (noopVec) Dec()            {}
func (noopVec) Add(float64)     {}
func (noopVec) Set(float64)     {}
func (noopVec) Observe(float64) {}

type (
	noopCounters   struct{}
	noopGauges     struct{}
	noopHistograms struct{}
)

func (noopCounters) WithLabelValues(...string) Counter     { return noopVec{} }
func (noopGauges) WithLabelValues(...string) Gauge         { return noopVec{} }
func (noopHistograms) WithLabelValues(...string) Histogram { return noopVec{} }

type noopCollector struct{}

// NewNoopCollector returns a collector that records nothing and serves 404.
func NewNoopCollector() MetricsCollector { return noopCollector{} }

func (noopCollector) Counter(string, string, ...string) CounterVec { return noopCounters{} }
func (noopCollector) Gauge(string, string, ...string) GaugeVec     { return noopGauges{} }
func (noopCollector) Histogram(string, string, []float64, ...string) HistogramVec {
	return noopHistograms{}
}
func (noopCollector) Handler() http.Handler { return http.NotFoundHandler() }

//Personal.AI order the ending
