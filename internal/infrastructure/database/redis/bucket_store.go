package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yumzoom/yumzoom/internal/domain/apiapp"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

// Bucket keys outlive their window so that usage can still be read just
// after a rollover; expiry is the retention mechanism for this backend.
const (
	HourBucketTTL = 2 * time.Hour
	DayBucketTTL  = 48 * time.Hour
)

// acquireScript checks both buckets and increments them together.
// KEYS: hour, day. ARGV: hour limit, day limit, hour ttl ms, day ttl ms.
// Returns {allowed, hour count, day count}.
var acquireScript = redis.NewScript(`
local hour = tonumber(redis.call('GET', KEYS[1]) or '0')
local day = tonumber(redis.call('GET', KEYS[2]) or '0')
if hour >= tonumber(ARGV[1]) or day >= tonumber(ARGV[2]) then
	return {0, hour, day}
end
hour = redis.call('INCR', KEYS[1])
day = redis.call('INCR', KEYS[2])
if hour == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
if day == 1 then
	redis.call('PEXPIRE', KEYS[2], ARGV[4])
end
return {1, hour, day}
`)

// BucketStore keeps rate-limit buckets as Redis counters.  Both keys of an
// application share a hash tag so the script stays valid on a cluster.
type BucketStore struct {
	client *Client
	log    logging.Logger
}

var _ apiapp.BucketStore = (*BucketStore)(nil)

// NewBucketStore creates the store.
func NewBucketStore(client *Client, log logging.Logger) *BucketStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &BucketStore{client: client, log: log}
}

// BucketKey returns the Redis key of one bucket.
func (s *BucketStore) BucketKey(appID string, period apiapp.PeriodType, start time.Time) string {
	return s.client.Key("ratelimit", "{"+appID+"}", string(period), strconv.FormatInt(start.Unix(), 10))
}

func (s *BucketStore) keys(appID string, p apiapp.Periods) []string {
	return []string{
		s.BucketKey(appID, apiapp.PeriodHour, p.Hour),
		s.BucketKey(appID, apiapp.PeriodDay, p.Day),
	}
}

func (s *BucketStore) Acquire(ctx context.Context, appID string, p apiapp.Periods, hourLimit, dayLimit int) (apiapp.Usage, error) {
	if s.client.isClosed() {
		return apiapp.Usage{}, ErrClientClosed
	}
	res, err := acquireScript.Run(ctx, s.client.rdb, s.keys(appID, p),
		hourLimit, dayLimit, HourBucketTTL.Milliseconds(), DayBucketTTL.Milliseconds()).Int64Slice()
	if err != nil {
		return apiapp.Usage{}, errors.Wrap(err, errors.ErrCodeCacheError, "failed to acquire rate limit buckets")
	}
	if len(res) != 3 {
		return apiapp.Usage{}, errors.New(errors.ErrCodeCacheError, "unexpected rate limit script reply")
	}
	return apiapp.Usage{Allowed: res[0] == 1, HourCount: res[1], DayCount: res[2]}, nil
}

func (s *BucketStore) Peek(ctx context.Context, appID string, p apiapp.Periods) (apiapp.Usage, error) {
	if s.client.isClosed() {
		return apiapp.Usage{}, ErrClientClosed
	}
	vals, err := s.client.rdb.MGet(ctx, s.keys(appID, p)...).Result()
	if err != nil {
		return apiapp.Usage{}, errors.Wrap(err, errors.ErrCodeCacheError, "failed to read rate limit buckets")
	}
	var u apiapp.Usage
	u.HourCount = parseCount(vals[0])
	u.DayCount = parseCount(vals[1])
	return u, nil
}

func parseCount(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

//Personal.AI order the ending
