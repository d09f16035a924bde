// API server entry point for YumZoom.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yumzoom/yumzoom/internal/bootstrap"
	"github.com/yumzoom/yumzoom/internal/config"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	httpserver "github.com/yumzoom/yumzoom/internal/interfaces/http"
	"github.com/yumzoom/yumzoom/internal/interfaces/http/handlers"
	"github.com/yumzoom/yumzoom/internal/interfaces/http/middleware"
)

// Set at build time with -ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	skipMigrations := flag.Bool("skip-migrations", false, "do not apply database migrations at startup")
	flag.Parse()

	if err := run(*configPath, *httpPort, *skipMigrations); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, httpPort int, skipMigrations bool) error {
	cfg, err := config.LoadOrEnv(configPath)
	if err != nil {
		return err
	}
	if httpPort > 0 {
		cfg.Server.Port = httpPort
	}

	logger, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	logger.Info("starting YumZoom API server",
		logging.String("version", version),
		logging.Int("http_port", cfg.Server.Port),
		logging.String("mode", cfg.Server.Mode))

	collector, metrics, err := bootstrap.NewMetrics(cfg.Metrics, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.Open(ctx, cfg, logger, collector, metrics)
	if err != nil {
		return err
	}
	defer infra.Close()

	if !skipMigrations {
		if err := infra.Migrate(); err != nil {
			return err
		}
	}

	publisher, err := infra.UsageSink()
	if err != nil {
		return err
	}

	store, err := infra.OpenExportStore(ctx)
	if err != nil {
		return err
	}
	analyticsSvc := infra.AnalyticsService()
	limiter := infra.Limiter(publisher)

	validator, err := middleware.NewJWTValidator(cfg.Auth)
	if err != nil {
		return err
	}
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.Server.AllowedOrigins

	router := httpserver.NewRouter(httpserver.RouterConfig{
		AnalyticsHandler: handlers.NewAnalyticsHandler(analyticsSvc, infra.Exporter(analyticsSvc, store), logger),
		UsageHandler:     handlers.NewUsageHandler(limiter),
		HealthHandler:    handlers.NewHealthHandler(version, metrics, infra.Checkers()...),
		TokenValidator:   validator,
		APIKeyMiddleware: middleware.NewAPIKeyMiddleware(limiter, logger, metrics),
		CORS:             &cors,
		Logger:           logger,
		Metrics:          metrics,
		MetricsCollector: collector,
		MetricsPath:      cfg.Metrics.Path,
	})
	srv := httpserver.NewServer(cfg.Server, router, logger)

	if configPath != "" {
		err := config.Watch(configPath, func(next *config.Config) {
			logging.SetLevel(next.Log.Level)
			limiter.SetDefaults(next.RateLimit.DefaultPerHour, next.RateLimit.DefaultPerDay)
			logger.Info("configuration reloaded",
				logging.String("log_level", next.Log.Level),
				logging.Int("default_per_hour", next.RateLimit.DefaultPerHour),
				logging.Int("default_per_day", next.RateLimit.DefaultPerDay))
		}, func(err error) {
			logger.Warn("ignoring invalid configuration change", logging.Err(err))
		})
		if err != nil {
			logger.Warn("configuration reload disabled", logging.Err(err))
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down API server")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	logger.Info("API server stopped")
	return nil
}

//Personal.AI order the ending
