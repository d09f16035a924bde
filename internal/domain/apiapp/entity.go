// Package apiapp models third-party API applications and the fixed-window
// request buckets used to rate limit them.
package apiapp

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Application is a registered API consumer identified by its API key.
type Application struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Name             string    `json:"name"`
	KeyHash          string    `json:"-"`
	KeyPrefix        string    `json:"key_prefix"`
	RateLimitPerHour int       `json:"rate_limit_per_hour"`
	RateLimitPerDay  int       `json:"rate_limit_per_day"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Limits returns the hourly and daily limits, substituting the given
// defaults for non-positive values.
func (a Application) Limits(defaultHour, defaultDay int) (hour, day int) {
	hour, day = a.RateLimitPerHour, a.RateLimitPerDay
	if hour <= 0 {
		hour = defaultHour
	}
	if day <= 0 {
		day = defaultDay
	}
	return hour, day
}

// keyPrefixLen is the number of leading key characters stored in clear for
// display and log correlation.
const keyPrefixLen = 12

// HashKey returns the hex SHA-256 digest under which a key is stored.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}

// KeyPrefix returns the displayable prefix of key.
func KeyPrefix(key string) string {
	key = strings.TrimSpace(key)
	if len(key) <= keyPrefixLen {
		return key
	}
	return key[:keyPrefixLen]
}

// PeriodType is the granularity of a rate-limit bucket.
type PeriodType string

const (
	PeriodHour PeriodType = "hour"
	PeriodDay  PeriodType = "day"
)

// Duration is the length of one bucket of p.
func (p PeriodType) Duration() time.Duration {
	if p == PeriodDay {
		return 24 * time.Hour
	}
	return time.Hour
}

// Start truncates t to the start of its bucket.  Day buckets start at
// midnight in t's location, hour buckets at the top of the hour.
func (p PeriodType) Start(t time.Time) time.Time {
	y, m, d := t.Date()
	if p == PeriodDay {
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
	return time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location())
}

// Bucket counts the requests of one application in one period.
type Bucket struct {
	ApplicationID string     `json:"api_application_id"`
	PeriodType    PeriodType `json:"period_type"`
	PeriodStart   time.Time  `json:"period_start"`
	RequestCount  int64      `json:"request_count"`
}

// Usage is the state of both buckets after an admission attempt.
type Usage struct {
	Allowed   bool  `json:"allowed"`
	HourCount int64 `json:"hour_count"`
	DayCount  int64 `json:"day_count"`
}

// Periods holds the bucket starts for one instant.
type Periods struct {
	Hour time.Time
	Day  time.Time
}

// PeriodsAt returns the hour and day bucket starts containing t.
func PeriodsAt(t time.Time) Periods {
	return Periods{Hour: PeriodHour.Start(t), Day: PeriodDay.Start(t)}
}

//Personal.AI order the ending
