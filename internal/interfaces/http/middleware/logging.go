package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/prometheus"
)

// LoggingConfig controls RequestLogging.
type LoggingConfig struct {
	SkipPaths     []string
	SlowThreshold time.Duration // successful requests slower than this log at warn
}

// DefaultLoggingConfig skips health checks and flags requests over three seconds.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 3 * time.Second,
	}
}

// requestTags collects fields that inner middleware learn about the caller,
// such as the resolved application, for the access log line.
type requestTags struct {
	mu     sync.Mutex
	fields []logging.Field
}

// annotate adds fields to the access log entry of the request carried by
// ctx.  It is a no-op outside RequestLogging.
func annotate(ctx context.Context, fields ...logging.Field) {
	t, ok := ctx.Value(tagsContextKey).(*requestTags)
	if !ok {
		return
	}
	t.mu.Lock()
	t.fields = append(t.fields, fields...)
	t.mu.Unlock()
}

// wrap returns w as a chi WrapResponseWriter, reusing it when an outer
// middleware already wrapped it.
func wrap(w http.ResponseWriter, r *http.Request) chimw.WrapResponseWriter {
	if ww, ok := w.(chimw.WrapResponseWriter); ok {
		return ww
	}
	return chimw.NewWrapResponseWriter(w, r.ProtoMajor)
}

// statusOf treats a handler that never wrote a header as 200.
func statusOf(ww chimw.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}

// RequestLogging writes one access log line per request: error for 5xx,
// warn for 4xx and slow requests, info otherwise.
func RequestLogging(logger logging.Logger, config LoggingConfig) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}
	logger = logger.Named("http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			tags := &requestTags{}
			ww := wrap(w, r)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), tagsContextKey, tags)))
			elapsed := time.Since(start)
			status := statusOf(ww)

			tags.mu.Lock()
			fields := append([]logging.Field{
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", status),
				logging.Duration("duration", elapsed),
				logging.Int("bytes", ww.BytesWritten()),
				logging.String("remote_addr", r.RemoteAddr),
				logging.String("request_id", chimw.GetReqID(r.Context())),
			}, tags.fields...)
			tags.mu.Unlock()

			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("request completed with server error", fields...)
			case status >= http.StatusBadRequest:
				logger.Warn("request completed with client error", fields...)
			case config.SlowThreshold > 0 && elapsed >= config.SlowThreshold:
				logger.Warn("slow request", fields...)
			default:
				logger.Info("request completed", fields...)
			}
		})
	}
}

// RequestMetrics labels request counts and latency with the chi route
// pattern, keeping path parameters out of the label set.
func RequestMetrics(m *prometheus.AppMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			active := m.HTTPActiveRequests.WithLabelValues(r.Method)
			active.Inc()
			defer active.Dec()

			ww := wrap(w, r)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			prometheus.RecordHTTPRequest(m, r.Method, route, statusOf(ww), time.Since(start))
		})
	}
}

//Personal.AI order the ending
