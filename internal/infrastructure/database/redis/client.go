// Package redis backs the rate limiter with Redis: hour and day buckets
// updated by a Lua script, a read-through cache of API applications and
// the lock that keeps bucket retention to one worker.
package redis

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yumzoom/yumzoom/internal/config"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

var (
	ErrClientClosed     = errors.New(errors.ErrCodeInternal, "redis client is closed")
	ErrConnectionFailed = errors.New(errors.ErrCodeCacheError, "redis connection failed")
)

// DefaultKeyPrefix is used when the configured prefix is empty.
const DefaultKeyPrefix = "yumzoom:"

// Client is a go-redis client plus the key prefix every store writes under.
type Client struct {
	rdb    redis.UniversalClient
	prefix string
	logger logging.Logger
	closed atomic.Bool
}

// NewClient dials cfg.Addr, which may be host:port or a redis:// URL, and
// pings within the dial timeout.
func NewClient(cfg config.RedisConfig, log logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	opts, err := options(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "invalid redis address").WithDetail(cfg.Addr)
	}
	rdb := redis.NewClient(opts)
	c := NewClientFromUniversal(rdb, cfg.KeyPrefix, log)

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, ErrConnectionFailed.WithDetail(opts.Addr).WithCause(err)
	}
	c.logger.Info("redis connected", logging.String("addr", opts.Addr), logging.Int("db", opts.DB))
	return c, nil
}

// options maps cfg onto go-redis.  Zero durations and sizes keep the
// go-redis defaults except the dial timeout, which bounds the startup ping.
func options(cfg config.RedisConfig) (*redis.Options, error) {
	opts := &redis.Options{Addr: cfg.Addr}
	if strings.Contains(cfg.Addr, "://") {
		parsed, err := redis.ParseURL(cfg.Addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB > 0 {
		opts.DB = cfg.DB
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	opts.DialTimeout = cfg.DialTimeout
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return opts, nil
}

// NewClientFromUniversal wraps rdb, typically a miniredis-backed client or
// a redismock.
func NewClientFromUniversal(rdb redis.UniversalClient, prefix string, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNopLogger()
	}
	switch {
	case prefix == "":
		prefix = DefaultKeyPrefix
	case !strings.HasSuffix(prefix, ":"):
		prefix += ":"
	}
	return &Client{rdb: rdb, prefix: prefix, logger: log.Named("redis")}
}

// Key joins parts with ":" under the prefix.
func (c *Client) Key(parts ...string) string {
	return c.prefix + strings.Join(parts, ":")
}

func (c *Client) Ping(ctx context.Context) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Name() string                    { return "redis" }
func (c *Client) Check(ctx context.Context) error { return c.Ping(ctx) }

// Underlying exposes the go-redis client.
func (c *Client) Underlying() redis.UniversalClient { return c.rdb }

// Close is idempotent.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := c.rdb.Close(); err != nil {
		c.logger.Error("redis close failed", logging.Err(err))
		return err
	}
	c.logger.Info("redis connection closed")
	return nil
}

func (c *Client) isClosed() bool { return c.closed.Load() }

//Personal.AI order the ending
