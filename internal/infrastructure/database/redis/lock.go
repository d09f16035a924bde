package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeConflict, "failed to acquire lock")
	ErrLockNotHeld     = errors.New(errors.ErrCodeConflict, "lock not held by this owner")
)

var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

var extendScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0
`)

// Lock is a single-holder lease.  Each Lock value has its own token, so
// only the instance that acquired it can release or extend it.
type Lock struct {
	client *Client
	key    string
	token  string
	ttl    time.Duration
	log    logging.Logger
}

// NewLock creates a lease on name.  It is not acquired yet.
func NewLock(client *Client, name string, ttl time.Duration, log logging.Logger) *Lock {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Lock{
		client: client,
		key:    client.Key("lock", name),
		token:  uuid.NewString(),
		ttl:    ttl,
		log:    log,
	}
}

// TryLock acquires the lease without waiting.
func (l *Lock) TryLock(ctx context.Context) (bool, error) {
	ok, err := l.client.rdb.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to acquire lock")
	}
	return ok, nil
}

// Unlock releases the lease if this Lock still holds it.
func (l *Lock) Unlock(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.client.rdb, []string{l.key}, l.token).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Extend resets the lease TTL.
func (l *Lock) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, l.client.rdb, []string{l.key}, l.token, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to extend lock")
	}
	return n == 1, nil
}

// WithLock runs fn while holding the lease.  It returns ErrLockNotAcquired
// when another holder has it.
func (l *Lock) WithLock(ctx context.Context, fn func(ctx context.Context) error) error {
	ok, err := l.TryLock(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockNotAcquired
	}
	defer func() {
		// Release on a fresh context so a cancelled caller still frees the lease.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.Unlock(rctx); err != nil {
			l.log.Warn("failed to release lock", logging.String("key", l.key), logging.Err(err))
		}
	}()
	return fn(ctx)
}

//Personal.AI order the ending
