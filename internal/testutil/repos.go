package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yumzoom/yumzoom/internal/domain/apiapp"
	"github.com/yumzoom/yumzoom/internal/domain/family"
	"github.com/yumzoom/yumzoom/internal/domain/rating"
)

// MockRatingRepository is a testify mock of rating.Repository.
type MockRatingRepository struct {
	mock.Mock
}

func (m *MockRatingRepository) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]rating.Record, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rating.Record), args.Error(1)
}

func (m *MockRatingRepository) ListByMember(ctx context.Context, userID, memberID string, from, to time.Time) ([]rating.Record, error) {
	args := m.Called(ctx, userID, memberID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rating.Record), args.Error(1)
}

// MockFamilyRepository is a testify mock of family.Repository.
type MockFamilyRepository struct {
	mock.Mock
}

func (m *MockFamilyRepository) ListByUser(ctx context.Context, userID string) ([]family.Member, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]family.Member), args.Error(1)
}

func (m *MockFamilyRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MockApplicationRepository is a testify mock of apiapp.Repository.
type MockApplicationRepository struct {
	mock.Mock
}

func (m *MockApplicationRepository) FindByKeyHash(ctx context.Context, keyHash string) (*apiapp.Application, error) {
	args := m.Called(ctx, keyHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apiapp.Application), args.Error(1)
}

func (m *MockApplicationRepository) GetByID(ctx context.Context, id string) (*apiapp.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apiapp.Application), args.Error(1)
}

// MockBucketStore is a testify mock of apiapp.BucketStore.
type MockBucketStore struct {
	mock.Mock
}

func (m *MockBucketStore) Acquire(ctx context.Context, applicationID string, p apiapp.Periods, hourLimit, dayLimit int) (apiapp.Usage, error) {
	args := m.Called(ctx, applicationID, p, hourLimit, dayLimit)
	return args.Get(0).(apiapp.Usage), args.Error(1)
}

func (m *MockBucketStore) Peek(ctx context.Context, applicationID string, p apiapp.Periods) (apiapp.Usage, error) {
	args := m.Called(ctx, applicationID, p)
	return args.Get(0).(apiapp.Usage), args.Error(1)
}

// MockUsageRepository is a testify mock of apiapp.UsageRepository.
type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) Increment(ctx context.Context, applicationID string, at time.Time, allowed bool) error {
	return m.Called(ctx, applicationID, at, allowed).Error(0)
}

func (m *MockUsageRepository) ListDaily(ctx context.Context, applicationID string, from, to time.Time) ([]apiapp.DailyUsage, error) {
	args := m.Called(ctx, applicationID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]apiapp.DailyUsage), args.Error(1)
}

// MemoryBucketStore is a mutex-guarded apiapp.BucketStore and
// apiapp.BucketPurger with the same all-or-nothing semantics as the real
// backends.
type MemoryBucketStore struct {
	mu      sync.Mutex
	buckets map[bucketKey]int64
}

type bucketKey struct {
	app    string
	period apiapp.PeriodType
	start  int64
}

// NewMemoryBucketStore returns an empty store.
func NewMemoryBucketStore() *MemoryBucketStore {
	return &MemoryBucketStore{buckets: make(map[bucketKey]int64)}
}

func (s *MemoryBucketStore) keys(app string, p apiapp.Periods) (bucketKey, bucketKey) {
	return bucketKey{app, apiapp.PeriodHour, p.Hour.Unix()}, bucketKey{app, apiapp.PeriodDay, p.Day.Unix()}
}

func (s *MemoryBucketStore) Acquire(_ context.Context, app string, p apiapp.Periods, hourLimit, dayLimit int) (apiapp.Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hk, dk := s.keys(app, p)
	h, d := s.buckets[hk], s.buckets[dk]
	if h >= int64(hourLimit) || d >= int64(dayLimit) {
		return apiapp.Usage{Allowed: false, HourCount: h, DayCount: d}, nil
	}
	s.buckets[hk], s.buckets[dk] = h+1, d+1
	return apiapp.Usage{Allowed: true, HourCount: h + 1, DayCount: d + 1}, nil
}

func (s *MemoryBucketStore) Peek(_ context.Context, app string, p apiapp.Periods) (apiapp.Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hk, dk := s.keys(app, p)
	return apiapp.Usage{HourCount: s.buckets[hk], DayCount: s.buckets[dk]}, nil
}

func (s *MemoryBucketStore) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.buckets {
		if k.start < cutoff.Unix() {
			delete(s.buckets, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored buckets.
func (s *MemoryBucketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

//Personal.AI order the ending
