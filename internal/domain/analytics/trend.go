package analytics

import "github.com/yumzoom/yumzoom/internal/domain/rating"

// Thresholds below which a change is reported as stable.
const (
	// ShareThreshold is in percentage points of the rating share.
	ShareThreshold = 5.0
	// EngagementThreshold is the relative change in rating count.
	EngagementThreshold = 0.2
)

// Option tunes an aggregation.
type Option func(*options)

type options struct {
	compare  bool
	previous []rating.Record
	limit    int
}

func buildOptions(opts []Option) options {
	o := options{limit: DefaultPopularLimit}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// CompareWith enables trend computation against the records of the previous
// window.  Without it every trend is TrendStable.
func CompareWith(previous []rating.Record) Option {
	return func(o *options) {
		o.compare = true
		o.previous = previous
	}
}

// WithLimit overrides DefaultPopularLimit.  Non-positive values are ignored.
func WithLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}

// shareTrend compares two percentages.
func shareTrend(current, previous float64) Trend {
	switch d := current - previous; {
	case d >= ShareThreshold:
		return TrendIncreasing
	case d <= -ShareThreshold:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// countTrend compares two counts relative to the previous one.
func countTrend(current, previous int) Trend {
	if previous == 0 {
		if current == 0 {
			return TrendStable
		}
		return TrendIncreasing
	}
	change := float64(current-previous) / float64(previous)
	switch {
	case change >= EngagementThreshold:
		return TrendIncreasing
	case change <= -EngagementThreshold:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

//Personal.AI order the ending
