package analytics

import (
	"time"

	"github.com/yumzoom/yumzoom/internal/domain/family"
	"github.com/yumzoom/yumzoom/internal/domain/rating"
)

// modeFirstSeen returns the most frequent value.  On a tie the value that was
// encountered first wins because the scan only replaces on a strictly
// greater count.  Empty input yields "".
func modeFirstSeen(values []string) string {
	counts := make(map[string]int, len(values))
	order := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}

	best, bestCount := "", 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// SummarizeMember computes the activity view for one member from the records
// rated on their behalf in the window.  A member without records reports
// EpochZero as MostRecentActivity.
//
// With CompareWith the engagement trend compares the record count against
// the previous window's; otherwise it is TrendStable.
func SummarizeMember(m family.Member, records []rating.Record, opts ...Option) MemberActivity {
	o := buildOptions(opts)

	var sum float64
	latest := time.Time{}
	restaurants := make([]string, 0, len(records))
	cuisines := make([]string, 0, len(records))
	for _, r := range records {
		sum += float64(r.Value)
		if r.CreatedAt.After(latest) {
			latest = r.CreatedAt
		}
		restaurants = append(restaurants, r.RestaurantName)
		cuisines = append(cuisines, r.Cuisine())
	}
	if latest.IsZero() {
		latest = EpochZero
	}

	trend := TrendStable
	if o.compare {
		trend = countTrend(len(records), len(o.previous))
	}

	return MemberActivity{
		MemberID:           m.ID,
		MemberName:         m.DisplayName(),
		Relationship:       string(m.Relationship),
		RatingCount:        len(records),
		AverageRating:      round1(mean(sum, len(records))),
		MostRecentActivity: latest,
		FavoriteRestaurant: modeFirstSeen(restaurants),
		FavoriteCuisine:    modeFirstSeen(cuisines),
		EngagementTrend:    trend,
	}
}

// SplitByMember partitions records by family member id, preserving order.
// Records without a member are dropped.
func SplitByMember(records []rating.Record) map[string][]rating.Record {
	out := make(map[string][]rating.Record)
	for _, r := range records {
		if r.HasMember() {
			out[r.FamilyMemberID] = append(out[r.FamilyMemberID], r)
		}
	}
	return out
}

//Personal.AI order the ending
