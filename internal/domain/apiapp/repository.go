package apiapp

import (
	"context"
	"time"
)

// Repository reads registered applications.
type Repository interface {
	// FindByKeyHash returns the application whose key hashes to keyHash.
	// A missing application yields an error with ErrCodeApplicationNotFound.
	FindByKeyHash(ctx context.Context, keyHash string) (*Application, error)

	// GetByID returns the application with id.
	GetByID(ctx context.Context, id string) (*Application, error)
}

// BucketStore persists rate-limit buckets.
//
// Acquire must be atomic across both buckets: when either bucket is already
// at or above its limit nothing is incremented and Usage.Allowed is false;
// otherwise both buckets are incremented together and the new counts are
// returned.  Concurrent callers never observe a lost update.
type BucketStore interface {
	Acquire(ctx context.Context, applicationID string, p Periods, hourLimit, dayLimit int) (Usage, error)

	// Peek returns the current counts without incrementing.
	Peek(ctx context.Context, applicationID string, p Periods) (Usage, error)
}

// BucketPurger removes buckets whose period started before cutoff.
type BucketPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// DailyUsage is the per-day tally of public API requests for one
// application, built from usage events.
type DailyUsage struct {
	ApplicationID string    `json:"application_id"`
	Day           time.Time `json:"day"`
	Allowed       int64     `json:"allowed"`
	Rejected      int64     `json:"rejected"`
	LastSeenAt    time.Time `json:"last_seen_at"`
}

// UsageRepository persists DailyUsage.
type UsageRepository interface {
	// Increment adds one request to the day containing at.
	Increment(ctx context.Context, applicationID string, at time.Time, allowed bool) error

	// ListDaily returns the tallies for days in [from, to), oldest first.
	ListDaily(ctx context.Context, applicationID string, from, to time.Time) ([]DailyUsage, error)
}

//Personal.AI order the ending
