package apiapp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplication_Limits(t *testing.T) {
	a := Application{RateLimitPerHour: 5, RateLimitPerDay: 0}
	hour, day := a.Limits(100, 1000)
	assert.Equal(t, 5, hour)
	assert.Equal(t, 1000, day)
}

func TestHashKey(t *testing.T) {
	h := HashKey("yz_live_abc123")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashKey("  yz_live_abc123 "))
	assert.NotEqual(t, h, HashKey("yz_live_abc124"))
}

func TestKeyPrefix(t *testing.T) {
	assert.Equal(t, "yz_live_abc1", KeyPrefix("yz_live_abc123"))
	assert.Equal(t, "yz_live_abc1", KeyPrefix("  yz_live_abc123  "))
	assert.Equal(t, "short", KeyPrefix("short"))
}

func TestPeriodType_Start(t *testing.T) {
	ts := time.Date(2024, 7, 4, 17, 42, 13, 500, time.UTC)
	assert.Equal(t, time.Date(2024, 7, 4, 17, 0, 0, 0, time.UTC), PeriodHour.Start(ts))
	assert.Equal(t, time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC), PeriodDay.Start(ts))

	// Half-hour offsets still truncate on the local wall clock.
	india := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2024, 7, 4, 9, 10, 0, 0, india)
	assert.Equal(t, time.Date(2024, 7, 4, 9, 0, 0, 0, india), PeriodHour.Start(local))
}

func TestPeriodType_Duration(t *testing.T) {
	assert.Equal(t, time.Hour, PeriodHour.Duration())
	assert.Equal(t, 24*time.Hour, PeriodDay.Duration())
}

func TestPeriodsAt(t *testing.T) {
	ts := time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC)
	p := PeriodsAt(ts)
	assert.Equal(t, time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC), p.Hour)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), p.Day)
}

//Personal.AI order the ending
