package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/yumzoom/yumzoom/internal/application/ratelimit"
	"github.com/yumzoom/yumzoom/internal/domain/apiapp"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/prometheus"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

// HeaderAPIKey carries the public API key.
const HeaderAPIKey = "X-API-Key"

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// APIKeyMiddleware authenticates public API requests by API key and charges
// them against the application's buckets.  Failures terminate the request
// with a bare {code, message} body.
type APIKeyMiddleware struct {
	limiter ratelimit.Service
	logger  logging.Logger
	metrics *prometheus.AppMetrics
	now     func() time.Time
}

// NewAPIKeyMiddleware creates the gate.
func NewAPIKeyMiddleware(limiter ratelimit.Service, logger logging.Logger, metrics *prometheus.AppMetrics) *APIKeyMiddleware {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	return &APIKeyMiddleware{limiter: limiter, logger: logger.Named("apikey"), metrics: metrics, now: time.Now}
}

// Handler wraps next.
func (m *APIKeyMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := m.now()
		key := r.Header.Get(HeaderAPIKey)

		d, err := m.limiter.Admit(r.Context(), key)
		if d != nil {
			setRateLimitHeaders(w, d, start)
		}
		if err != nil {
			code, status, message := errors.Public(err)
			switch code {
			case errors.ErrCodeMissingAPIKey, errors.ErrCodeInvalidAPIKey:
				m.metrics.APIKeyRejectionsTotal.WithLabelValues(string(code)).Inc()
			case errors.ErrCodeRateLimitExceeded:
				if d != nil {
					w.Header().Set(HeaderRetryAfter, strconv.Itoa(int(d.RetryAfter(start).Seconds())))
				}
			default:
				m.logger.Error("api key gate failed", logging.String("path", r.URL.Path), logging.Err(err))
			}
			writeGatewayError(w, status, string(code), message)
			m.record(r, d, key, status, string(code), start)
			return
		}

		ctx := context.WithValue(r.Context(), decisionContextKey, d)
		ctx = ContextWithUserID(ctx, d.Application.UserID)
		annotate(ctx, logging.String("application_id", d.Application.ID))
		ww := wrap(w, r)
		next.ServeHTTP(ww, r.WithContext(ctx))
		m.record(r, d, key, statusOf(ww), "", start)
	})
}

func (m *APIKeyMiddleware) record(r *http.Request, d *ratelimit.Decision, key string, status int, code string, start time.Time) {
	ev := &ratelimit.UsageEvent{
		EventID:    uuid.NewString(),
		KeyPrefix:  apiapp.KeyPrefix(key),
		Method:     r.Method,
		Path:       r.URL.Path,
		StatusCode: status,
		Allowed:    code == "",
		ErrorCode:  code,
		DurationMS: m.now().Sub(start).Milliseconds(),
		OccurredAt: start,
	}
	if d != nil {
		ev.ApplicationID = d.ApplicationID
		ev.HourUsed, ev.DayUsed = d.HourUsed, d.DayUsed
	}
	m.limiter.RecordUsage(context.WithoutCancel(r.Context()), ev)
}

// setRateLimitHeaders reports the tighter of the two buckets.
func setRateLimitHeaders(w http.ResponseWriter, d *ratelimit.Decision, now time.Time) {
	limit, remaining, reset := d.HourLimit, d.HourRemaining, d.ResetAt
	if d.DayRemaining < d.HourRemaining || d.ExceededPeriod == apiapp.PeriodDay {
		limit, remaining = d.DayLimit, d.DayRemaining
		reset = apiapp.PeriodDay.Start(now).AddDate(0, 0, 1)
	}
	if !reset.After(now) {
		reset = now
	}
	h := w.Header()
	h.Set(HeaderRateLimitLimit, strconv.Itoa(limit))
	h.Set(HeaderRateLimitRemaining, strconv.FormatInt(remaining, 10))
	h.Set(HeaderRateLimitReset, strconv.FormatInt(reset.Unix(), 10))
}

//Personal.AI order the ending
