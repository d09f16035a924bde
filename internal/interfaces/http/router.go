package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/prometheus"
	"github.com/yumzoom/yumzoom/internal/interfaces/http/handlers"
	"github.com/yumzoom/yumzoom/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	// Handlers
	AnalyticsHandler *handlers.AnalyticsHandler
	UsageHandler     *handlers.UsageHandler
	HealthHandler    *handlers.HealthHandler

	// Middleware
	TokenValidator   middleware.TokenValidator
	APIKeyMiddleware *middleware.APIKeyMiddleware
	CORS             *middleware.CORSConfig
	Logging          *middleware.LoggingConfig

	// Infrastructure
	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
}

// NewRouter constructs the complete HTTP route tree.  Session-authenticated
// routes live under /api/v1; API-key routes under /api/public/v1 share the
// same analytics handlers and additionally expose /usage.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	loggingCfg := middleware.DefaultLoggingConfig()
	if cfg.Logging != nil {
		loggingCfg = *cfg.Logging
	}
	r.Use(middleware.RequestLogging(cfg.Logger, loggingCfg))
	if cfg.Metrics != nil {
		r.Use(middleware.RequestMetrics(cfg.Metrics))
	}

	// Health and metrics endpoints are unauthenticated.
	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsCollector.Handler())
	}

	// --- API v1 (session token) ---
	if cfg.TokenValidator != nil {
		r.Route("/api/v1", func(api chi.Router) {
			api.Use(middleware.Authenticate(cfg.TokenValidator, cfg.Logger))
			registerAnalyticsRoutes(api, cfg.AnalyticsHandler)
		})
	}

	// --- Public API v1 (API key, rate limited) ---
	if cfg.APIKeyMiddleware != nil {
		r.Route("/api/public/v1", func(api chi.Router) {
			api.Use(cfg.APIKeyMiddleware.Handler)
			registerAnalyticsRoutes(api, cfg.AnalyticsHandler)
			registerUsageRoutes(api, cfg.UsageHandler)
		})
	}

	return r
}

func registerAnalyticsRoutes(r chi.Router, h *handlers.AnalyticsHandler) {
	if h == nil {
		return
	}
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/insights", h.GetInsights)
		r.Get("/popular-restaurants", h.GetPopularRestaurants)
		r.Get("/cuisine-preferences", h.GetCuisinePreferences)
		r.Get("/member-activity", h.GetMemberActivity)
		r.Get("/export", h.Export)
	})
}

func registerUsageRoutes(r chi.Router, h *handlers.UsageHandler) {
	if h == nil {
		return
	}
	r.Get("/usage", h.GetUsage)
}

//Personal.AI order the ending
