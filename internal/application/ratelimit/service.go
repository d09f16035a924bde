// Package ratelimit admits public API requests.  It resolves the caller's
// application from its API key and charges the request against the
// application's hourly and daily buckets in one atomic step.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yumzoom/yumzoom/internal/domain/apiapp"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/prometheus"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

// Service is the public API admission gate.
type Service interface {
	// Admit authenticates apiKey and charges one request.  A missing key
	// fails with MISSING_API_KEY before any store is touched; an unknown or
	// inactive key fails with INVALID_API_KEY; an exhausted bucket fails
	// with RATE_LIMIT_EXCEEDED and still returns the Decision.
	Admit(ctx context.Context, apiKey string) (*Decision, error)

	// Usage reports the current bucket state for app without charging it.
	Usage(ctx context.Context, app *apiapp.Application) (*Decision, error)

	// PurgeExpired removes buckets older than the retention window.
	PurgeExpired(ctx context.Context) (int64, error)

	// RecordUsage publishes a usage event.  Failures are logged only.
	RecordUsage(ctx context.Context, ev *UsageEvent)

	// SetDefaults replaces the limits used for applications without their
	// own.  Safe for concurrent use.
	SetDefaults(perHour, perDay int)
}

// Decision is the outcome of one admission.
type Decision struct {
	Application    *apiapp.Application `json:"-"`
	ApplicationID  string              `json:"application_id"`
	Allowed        bool                `json:"allowed"`
	HourLimit      int                 `json:"hour_limit"`
	HourUsed       int64               `json:"hour_used"`
	HourRemaining  int64               `json:"hour_remaining"`
	DayLimit       int                 `json:"day_limit"`
	DayUsed        int64               `json:"day_used"`
	DayRemaining   int64               `json:"day_remaining"`
	ExceededPeriod apiapp.PeriodType   `json:"exceeded_period,omitempty"`
	ResetAt        time.Time           `json:"reset_at"`
}

// RetryAfter returns the time left until ResetAt, rounded up to a second.
func (d *Decision) RetryAfter(now time.Time) time.Duration {
	left := d.ResetAt.Sub(now)
	if left <= 0 {
		return 0
	}
	if rounded := left.Truncate(time.Second); rounded < left {
		return rounded + time.Second
	}
	return left
}

// UsageEvent describes one request seen by the gate.
type UsageEvent struct {
	EventID       string    `json:"event_id"`
	ApplicationID string    `json:"application_id,omitempty"`
	KeyPrefix     string    `json:"key_prefix,omitempty"`
	Method        string    `json:"method"`
	Path          string    `json:"path"`
	StatusCode    int       `json:"status_code"`
	Allowed       bool      `json:"allowed"`
	ErrorCode     string    `json:"error_code,omitempty"`
	HourUsed      int64     `json:"hour_used"`
	DayUsed       int64     `json:"day_used"`
	DurationMS    int64     `json:"duration_ms"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventPublisher ships usage events to the message bus.
type EventPublisher interface {
	PublishUsage(ctx context.Context, ev *UsageEvent) error
}

// Option configures the service.
type Option func(*service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithDefaults sets the fallback limits.
func WithDefaults(perHour, perDay int) Option {
	return func(s *service) { s.defaultHour, s.defaultDay = perHour, perDay }
}

// WithRetention sets how long buckets are kept by PurgeExpired.
func WithRetention(d time.Duration) Option {
	return func(s *service) { s.retention = d }
}

// WithPurger enables PurgeExpired against p.
func WithPurger(p apiapp.BucketPurger) Option {
	return func(s *service) { s.purger = p }
}

// WithPublisher enables usage events.
func WithPublisher(p EventPublisher) Option {
	return func(s *service) { s.publisher = p }
}

// WithMetrics records decisions and store latency.
func WithMetrics(m *prometheus.AppMetrics, backend string) Option {
	return func(s *service) { s.metrics, s.backend = m, backend }
}

type service struct {
	apps      apiapp.Repository
	store     apiapp.BucketStore
	purger    apiapp.BucketPurger
	publisher EventPublisher
	metrics   *prometheus.AppMetrics
	backend   string
	logger    logging.Logger
	now       func() time.Time
	retention time.Duration

	mu          sync.RWMutex
	defaultHour int
	defaultDay  int
}

// Defaults used when no WithDefaults option is given.
const (
	DefaultPerHour   = 1000
	DefaultPerDay    = 10000
	DefaultRetention = 7 * 24 * time.Hour
)

// NewService builds the admission gate.
func NewService(apps apiapp.Repository, store apiapp.BucketStore, logger logging.Logger, opts ...Option) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &service{
		apps:        apps,
		store:       store,
		logger:      logger.Named("ratelimit"),
		now:         time.Now,
		retention:   DefaultRetention,
		defaultHour: DefaultPerHour,
		defaultDay:  DefaultPerDay,
		metrics:     prometheus.NewNoopAppMetrics(),
		backend:     "unknown",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) SetDefaults(perHour, perDay int) {
	if perHour <= 0 || perDay <= 0 {
		return
	}
	s.mu.Lock()
	s.defaultHour, s.defaultDay = perHour, perDay
	s.mu.Unlock()
}

func (s *service) limitsFor(app *apiapp.Application) (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return app.Limits(s.defaultHour, s.defaultDay)
}

func (s *service) Admit(ctx context.Context, apiKey string) (*Decision, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingAPIKey, "API key is required")
	}

	app, err := s.apps.FindByKeyHash(ctx, apiapp.HashKey(apiKey))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.New(errors.ErrCodeInvalidAPIKey, "invalid API key").
				WithDetail("prefix=" + apiapp.KeyPrefix(apiKey))
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to resolve API key")
	}
	if !app.IsActive {
		return nil, errors.New(errors.ErrCodeInvalidAPIKey, "API application is inactive").
			WithDetail("application_id=" + app.ID)
	}

	now := s.now()
	periods := apiapp.PeriodsAt(now)
	hourLimit, dayLimit := s.limitsFor(app)

	start := time.Now()
	usage, err := s.store.Acquire(ctx, app.ID, periods, hourLimit, dayLimit)
	prometheus.RecordBucketStore(s.metrics, s.backend, "acquire", time.Since(start), err)
	if err != nil {
		s.logger.Error("bucket acquire failed",
			logging.String("application_id", app.ID), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "rate limiter unavailable")
	}

	d := s.decide(app, periods, hourLimit, dayLimit, usage)
	prometheus.RecordRateLimitDecision(s.metrics, d.Allowed, string(d.ExceededPeriod))
	if !d.Allowed {
		s.logger.Info("rate limit exceeded",
			logging.String("application_id", app.ID),
			logging.String("period", string(d.ExceededPeriod)),
			logging.Int64("hour_used", d.HourUsed),
			logging.Int64("day_used", d.DayUsed))
		limit := d.HourLimit
		if d.ExceededPeriod == apiapp.PeriodDay {
			limit = d.DayLimit
		}
		return d, errors.New(errors.ErrCodeRateLimitExceeded,
			fmt.Sprintf("rate limit exceeded: %d requests per %s", limit, d.ExceededPeriod))
	}
	return d, nil
}

func (s *service) Usage(ctx context.Context, app *apiapp.Application) (*Decision, error) {
	if app == nil {
		return nil, errors.InvalidParam("application is required")
	}
	periods := apiapp.PeriodsAt(s.now())
	hourLimit, dayLimit := s.limitsFor(app)

	start := time.Now()
	usage, err := s.store.Peek(ctx, app.ID, periods)
	prometheus.RecordBucketStore(s.metrics, s.backend, "peek", time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read rate limit usage")
	}
	usage.Allowed = usage.HourCount < int64(hourLimit) && usage.DayCount < int64(dayLimit)
	return s.decide(app, periods, hourLimit, dayLimit, usage), nil
}

func (s *service) decide(app *apiapp.Application, p apiapp.Periods, hourLimit, dayLimit int, u apiapp.Usage) *Decision {
	d := &Decision{
		Application:   app,
		ApplicationID: app.ID,
		Allowed:       u.Allowed,
		HourLimit:     hourLimit,
		HourUsed:      u.HourCount,
		HourRemaining: remaining(hourLimit, u.HourCount),
		DayLimit:      dayLimit,
		DayUsed:       u.DayCount,
		DayRemaining:  remaining(dayLimit, u.DayCount),
		ResetAt:       p.Hour.Add(time.Hour),
	}
	if !u.Allowed {
		// The hourly bucket is checked first; a request blocked by both
		// reports the day because that is the later reset.
		d.ExceededPeriod = apiapp.PeriodHour
		if u.DayCount >= int64(dayLimit) {
			d.ExceededPeriod = apiapp.PeriodDay
			d.ResetAt = p.Day.AddDate(0, 0, 1)
		}
	}
	return d
}

func remaining(limit int, used int64) int64 {
	if r := int64(limit) - used; r > 0 {
		return r
	}
	return 0
}

func (s *service) PurgeExpired(ctx context.Context) (int64, error) {
	if s.purger == nil {
		return 0, nil
	}
	cutoff := apiapp.PeriodDay.Start(s.now().Add(-s.retention))
	n, err := s.purger.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to purge rate limit buckets")
	}
	s.metrics.RateLimitBucketsPurged.WithLabelValues(s.backend).Add(float64(n))
	s.logger.Info("purged rate limit buckets",
		logging.Int64("deleted", n), logging.Time("cutoff", cutoff))
	return n, nil
}

func (s *service) RecordUsage(ctx context.Context, ev *UsageEvent) {
	if s.publisher == nil || ev == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = s.now()
	}
	if err := s.publisher.PublishUsage(ctx, ev); err != nil {
		s.logger.Warn("failed to publish usage event",
			logging.String("application_id", ev.ApplicationID), logging.Err(err))
	}
}

//Personal.AI order the ending
