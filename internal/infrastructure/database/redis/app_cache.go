package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/yumzoom/yumzoom/internal/domain/apiapp"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

// nullMarker is cached for keys that resolve to no application so that
// repeated lookups with a bad key do not reach the database.
const nullMarker = "null"

// cachedApplication mirrors apiapp.Application including the fields that
// are hidden from API responses.
type cachedApplication struct {
	apiapp.Application
	KeyHash string `json:"key_hash"`
}

// ApplicationCache decorates an apiapp.Repository with a read-through
// cache of key lookups.
type ApplicationCache struct {
	next    apiapp.Repository
	client  *Client
	log     logging.Logger
	ttl     time.Duration
	nullTTL time.Duration
	group   singleflight.Group
}

var _ apiapp.Repository = (*ApplicationCache)(nil)

// CacheOption configures an ApplicationCache.
type CacheOption func(*ApplicationCache)

// WithTTL sets how long a resolved application is cached.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *ApplicationCache) { c.ttl = ttl }
}

// WithNullTTL sets how long an unknown key is remembered.
func WithNullTTL(ttl time.Duration) CacheOption {
	return func(c *ApplicationCache) { c.nullTTL = ttl }
}

// NewApplicationCache wraps next.
func NewApplicationCache(next apiapp.Repository, client *Client, log logging.Logger, opts ...CacheOption) *ApplicationCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &ApplicationCache{
		next:    next,
		client:  client,
		log:     log.Named("app_cache"),
		ttl:     time.Minute,
		nullTTL: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ApplicationCache) key(keyHash string) string {
	return c.client.Key("apiapp", "key", keyHash)
}

// jitterTTL spreads expiry by +/- 10%.
func jitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

// FindByKeyHash serves from Redis when possible.  Cache failures fall back
// to the wrapped repository.
func (c *ApplicationCache) FindByKeyHash(ctx context.Context, keyHash string) (*apiapp.Application, error) {
	key := c.key(keyHash)

	raw, err := c.client.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(raw) == nullMarker {
			return nil, errors.New(errors.ErrCodeApplicationNotFound, "api application not found")
		}
		var ca cachedApplication
		if uerr := json.Unmarshal(raw, &ca); uerr == nil {
			app := ca.Application
			app.KeyHash = ca.KeyHash
			return &app, nil
		}
		c.log.Warn("discarding undecodable cache entry", logging.String("key", key))
	case err != redis.Nil:
		c.log.Warn("application cache read failed", logging.Err(err))
	}

	v, err, _ := c.group.Do(keyHash, func() (interface{}, error) {
		return c.load(ctx, key, keyHash)
	})
	if err != nil {
		return nil, err
	}
	app := *v.(*apiapp.Application)
	return &app, nil
}

func (c *ApplicationCache) load(ctx context.Context, key, keyHash string) (*apiapp.Application, error) {
	app, err := c.next.FindByKeyHash(ctx, keyHash)
	if err != nil {
		if errors.IsNotFound(err) {
			if serr := c.client.rdb.Set(ctx, key, nullMarker, c.nullTTL).Err(); serr != nil {
				c.log.Warn("application cache write failed", logging.Err(serr))
			}
		}
		return nil, err
	}

	data, merr := json.Marshal(cachedApplication{Application: *app, KeyHash: app.KeyHash})
	if merr == nil {
		if serr := c.client.rdb.Set(ctx, key, data, jitterTTL(c.ttl)).Err(); serr != nil {
			c.log.Warn("application cache write failed", logging.Err(serr))
		}
	}
	return app, nil
}

// GetByID is not cached.
func (c *ApplicationCache) GetByID(ctx context.Context, id string) (*apiapp.Application, error) {
	return c.next.GetByID(ctx, id)
}

// Invalidate drops the cached entry for keyHash.
func (c *ApplicationCache) Invalidate(ctx context.Context, keyHash string) error {
	if err := c.client.rdb.Del(ctx, c.key(keyHash)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to invalidate application cache")
	}
	return nil
}

//Personal.AI order the ending
