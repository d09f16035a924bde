// Background worker for YumZoom.  It purges expired rate limit buckets on a
// schedule and folds API usage events from Kafka into the daily usage table.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yumzoom/yumzoom/internal/application/ratelimit"
	"github.com/yumzoom/yumzoom/internal/bootstrap"
	"github.com/yumzoom/yumzoom/internal/config"
	"github.com/yumzoom/yumzoom/internal/infrastructure/database/redis"
	"github.com/yumzoom/yumzoom/internal/infrastructure/messaging/kafka"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/internal/interfaces/http/handlers"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

const (
	defaultHealthPort = 8081
	purgeLockName     = "worker:purge"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	healthPort := flag.Int("health-port", defaultHealthPort, "port for /healthz, /readyz and /metrics")
	purgeOnly := flag.Bool("purge-only", false, "run one purge pass and exit")
	flag.Parse()

	if err := run(*configPath, *healthPort, *purgeOnly); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, healthPort int, purgeOnly bool) error {
	cfg, err := config.LoadOrEnv(configPath)
	if err != nil {
		return err
	}
	logger, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	logger = logger.Named("worker")

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

	p := &purger{
		limiter:  infra.Limiter(nil),
		interval: cfg.Worker.PurgeInterval,
		timeout:  cfg.Worker.PurgeTimeout,
		logger:   logger,
	}
	if infra.Redis != nil {
		// Lease slightly longer than one pass so two replicas never overlap.
		p.lock = redis.NewLock(infra.Redis, purgeLockName, cfg.Worker.PurgeTimeout+30*time.Second, logger)
	}
	if purgeOnly {
		return p.runOnce(ctx)
	}

	logger.Info("starting YumZoom worker",
		logging.String("version", version),
		logging.Duration("purge_interval", cfg.Worker.PurgeInterval),
		logging.Bool("kafka", cfg.Kafka.Enabled))

	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		consumer, err = startUsageConsumer(ctx, cfg, infra, logger)
		if err != nil {
			return err
		}
	}

	healthSrv := startHealthServer(healthPort, infra, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.loop(ctx)
	}()

	<-ctx.Done()
	logger.Info("received shutdown signal")

	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Warn("kafka consumer close failed", logging.Err(err))
		}
	}
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}
	logger.Info("worker stopped")
	return nil
}

func startUsageConsumer(ctx context.Context, cfg *config.Config, infra *bootstrap.Infra, logger logging.Logger) (*kafka.Consumer, error) {
	topic := cfg.Kafka.UsageTopic
	if tm, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger); err == nil {
		if err := tm.EnsureTopics(ctx, kafka.DefaultTopics(topic)); err != nil {
			logger.Warn("could not ensure kafka topics", logging.Err(err))
		}
	}

	consumer, err := kafka.NewConsumer(cfg.Kafka, []string{topic}, logger, infra.Metrics)
	if err != nil {
		return nil, err
	}
	if err := consumer.Subscribe(topic, bootstrap.UsageEventHandler(infra.UsageLedger(), logger)); err != nil {
		_ = consumer.Close()
		return nil, err
	}
	if err := consumer.Start(ctx); err != nil {
		_ = consumer.Close()
		return nil, err
	}
	return consumer, nil
}

func startHealthServer(port int, infra *bootstrap.Infra, logger logging.Logger) *http.Server {
	h := handlers.NewHealthHandler(version, infra.Metrics, infra.Checkers()...)
	r := chi.NewRouter()
	r.Get("/healthz", h.Liveness)
	r.Get("/readyz", h.Readiness)
	r.Handle("/metrics", infra.Collector.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("health server listening", logging.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", logging.Err(err))
		}
	}()
	return srv
}

// purger runs ratelimit.Service.PurgeExpired on a fixed interval.
type purger struct {
	limiter  ratelimit.Service
	lock     *redis.Lock
	interval time.Duration
	timeout  time.Duration
	logger   logging.Logger
}

func (p *purger) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if err := p.runOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("purge pass failed", logging.Err(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *purger) runOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	pass := func(ctx context.Context) error {
		_, err := p.limiter.PurgeExpired(ctx)
		return err
	}
	if p.lock == nil {
		return pass(ctx)
	}
	err := p.lock.WithLock(ctx, pass)
	if errors.Is(err, redis.ErrLockNotAcquired) {
		p.logger.Debug("purge skipped, another worker holds the lock")
		return nil
	}
	return err
}

//Personal.AI order the ending
