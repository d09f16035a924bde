package redis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumzoom/yumzoom/internal/domain/apiapp"
	pkgerrors "github.com/yumzoom/yumzoom/pkg/errors"
)

var bucketNow = time.Date(2024, 3, 10, 14, 25, 0, 0, time.UTC)

func TestBucketStore_AcquireUntilHourLimit(t *testing.T) {
	mr, client := newMiniClient(t)
	store := NewBucketStore(client, nil)
	p := apiapp.PeriodsAt(bucketNow)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		u, err := store.Acquire(ctx, "app-1", p, 3, 100)
		require.NoError(t, err)
		assert.True(t, u.Allowed)
		assert.Equal(t, int64(i), u.HourCount)
		assert.Equal(t, int64(i), u.DayCount)
	}

	u, err := store.Acquire(ctx, "app-1", p, 3, 100)
	require.NoError(t, err)
	assert.False(t, u.Allowed)
	assert.Equal(t, int64(3), u.HourCount)
	assert.Equal(t, int64(3), u.DayCount, "rejected request must not charge the day bucket")

	hourKey := store.BucketKey("app-1", apiapp.PeriodHour, p.Hour)
	dayKey := store.BucketKey("app-1", apiapp.PeriodDay, p.Day)
	assert.Equal(t, HourBucketTTL, mr.TTL(hourKey))
	assert.Equal(t, DayBucketTTL, mr.TTL(dayKey))
}

func TestBucketStore_NextHourStartsFresh(t *testing.T) {
	_, client := newMiniClient(t)
	store := NewBucketStore(client, nil)
	ctx := context.Background()

	_, err := store.Acquire(ctx, "app-1", apiapp.PeriodsAt(bucketNow), 1, 100)
	require.NoError(t, err)

	u, err := store.Acquire(ctx, "app-1", apiapp.PeriodsAt(bucketNow.Add(time.Hour)), 1, 100)
	require.NoError(t, err)
	assert.True(t, u.Allowed)
	assert.Equal(t, int64(1), u.HourCount)
	assert.Equal(t, int64(2), u.DayCount)
}

func TestBucketStore_DayLimit(t *testing.T) {
	_, client := newMiniClient(t)
	store := NewBucketStore(client, nil)
	ctx := context.Background()

	for h := 0; h < 2; h++ {
		u, err := store.Acquire(ctx, "app-1", apiapp.PeriodsAt(bucketNow.Add(time.Duration(h)*time.Hour)), 10, 2)
		require.NoError(t, err)
		assert.True(t, u.Allowed)
	}
	u, err := store.Acquire(ctx, "app-1", apiapp.PeriodsAt(bucketNow.Add(2*time.Hour)), 10, 2)
	require.NoError(t, err)
	assert.False(t, u.Allowed)
	assert.Equal(t, int64(0), u.HourCount)
}

func TestBucketStore_ConcurrentAcquire(t *testing.T) {
	_, client := newMiniClient(t)
	store := NewBucketStore(client, nil)
	p := apiapp.PeriodsAt(bucketNow)

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := store.Acquire(context.Background(), "app-1", p, 10, 100)
			if err == nil && u.Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), allowed)
	u, err := store.Peek(context.Background(), "app-1", p)
	require.NoError(t, err)
	assert.Equal(t, int64(10), u.HourCount)
}

func TestBucketStore_PeekEmpty(t *testing.T) {
	_, client := newMiniClient(t)
	store := NewBucketStore(client, nil)

	u, err := store.Peek(context.Background(), "unknown", apiapp.PeriodsAt(bucketNow))
	require.NoError(t, err)
	assert.Zero(t, u.HourCount)
	assert.Zero(t, u.DayCount)
}

func TestBucketStore_ScriptFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewClientFromUniversal(db, "test", nil)
	store := NewBucketStore(client, nil)
	p := apiapp.PeriodsAt(bucketNow)
	keys := store.keys("app-1", p)

	mock.ExpectEvalSha(acquireScript.Hash(), keys, 5, 100, HourBucketTTL.Milliseconds(), DayBucketTTL.Milliseconds()).
		SetErr(errors.New("READONLY You can't write against a read only replica."))

	_, err := store.Acquire(context.Background(), "app-1", p, 5, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBucketStore_PeekFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewClientFromUniversal(db, "test", nil)
	store := NewBucketStore(client, nil)
	p := apiapp.PeriodsAt(bucketNow)

	mock.ExpectMGet(store.keys("app-1", p)...).SetErr(errors.New("i/o timeout"))

	_, err := store.Peek(context.Background(), "app-1", p)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBucketStore_ClosedClient(t *testing.T) {
	_, client := newMiniClient(t)
	store := NewBucketStore(client, nil)
	require.NoError(t, client.Close())

	_, err := store.Acquire(context.Background(), "app-1", apiapp.PeriodsAt(bucketNow), 1, 1)
	assert.Equal(t, ErrClientClosed, err)
}

//Personal.AI order the ending
