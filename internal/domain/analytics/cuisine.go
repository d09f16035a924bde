package analytics

import (
	"sort"

	"github.com/yumzoom/yumzoom/internal/domain/rating"
)

type cuisineAcc struct {
	name  string
	count int
	sum   float64
}

func groupCuisines(records []rating.Record) []*cuisineAcc {
	index := make(map[string]int)
	accs := make([]*cuisineAcc, 0)
	for _, r := range records {
		name := r.Cuisine()
		i, ok := index[name]
		if !ok {
			i = len(accs)
			index[name] = i
			accs = append(accs, &cuisineAcc{name: name})
		}
		accs[i].count++
		accs[i].sum += float64(r.Value)
	}
	return accs
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// AggregateCuisines groups records by cuisine (blank cuisines go to
// rating.OtherCuisine) and returns one preference per cuisine ordered by
// rating count, highest first.  Percentage is the share of all records in
// the window, rounded to one decimal.
//
// With CompareWith the trend compares each cuisine's share against its share
// of the previous window; otherwise it is TrendStable.
func AggregateCuisines(records []rating.Record, opts ...Option) []CuisinePreference {
	o := buildOptions(opts)

	var prevShare map[string]float64
	if o.compare {
		prevShare = make(map[string]float64)
		for _, a := range groupCuisines(o.previous) {
			prevShare[a.name] = percentage(a.count, len(o.previous))
		}
	}

	accs := groupCuisines(records)
	out := make([]CuisinePreference, 0, len(accs))
	for _, a := range accs {
		share := percentage(a.count, len(records))
		trend := TrendStable
		if o.compare {
			trend = shareTrend(share, prevShare[a.name])
		}
		out = append(out, CuisinePreference{
			CuisineType:   a.name,
			RatingCount:   a.count,
			AverageRating: round1(mean(a.sum, a.count)),
			Percentage:    round1(share),
			Trend:         trend,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RatingCount > out[j].RatingCount
	})
	return out
}

//Personal.AI order the ending
